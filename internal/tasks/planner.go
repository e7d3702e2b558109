package tasks

import (
	"log"
	"strconv"
	"time"

	"sgras/internal/handlers"
	"sgras/internal/models"
	"sgras/internal/storage"
	"sgras/internal/ws"

	"github.com/robfig/cron/v3"
)

// Janela do último anúncio: escalas com liberação dentro dela já foram
// avisadas.
var lastReleaseCheck = time.Now()

// AnnounceReleasedShifts procura escalas cujo horário de liberação passou
// desde a última verificação e avisa os painéis conectados. A inscrição em si
// não depende desse aviso: o motor de alocação checa a liberação a cada
// admissão.
func AnnounceReleasedShifts() {
	now := time.Now()

	var shifts []models.Shift
	if err := storage.DB.
		Where("release_at IS NOT NULL AND release_at > ? AND release_at <= ?", lastReleaseCheck, now).
		Find(&shifts).Error; err != nil {
		log.Println("Erro ao buscar escalas liberadas:", err)
		return
	}
	lastReleaseCheck = now

	if len(shifts) == 0 {
		return
	}

	handlers.InvalidateShiftsCache()
	for _, shift := range shifts {
		log.Printf("Inscrições liberadas para a escala '%s' (id=%d)\n", shift.Event, shift.ID)
		ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
			EventType: "shift_released",
			ShiftID:   strconv.Itoa(int(shift.ID)),
			Data: map[string]interface{}{
				"event":       shift.Event,
				"total_slots": shift.TotalSlots,
			},
		})
	}
}

// ExpireShiftsCache força a remontagem do cache de ocupação.
func ExpireShiftsCache() {
	handlers.InvalidateShiftsCache()
	log.Println("Cache de ocupação das escalas expirado.")
}

// InitScheduler inicializa o planejador de tarefas cron.
func InitScheduler() *cron.Cron {
	c := cron.New(cron.WithSeconds())

	// Anúncio de liberações a cada minuto.
	if _, err := c.AddFunc("0 * * * * *", AnnounceReleasedShifts); err != nil {
		log.Println("Erro ao agendar AnnounceReleasedShifts:", err)
	}

	// Expiração do cache todo dia às 03:00.
	if _, err := c.AddFunc("0 0 3 * * *", ExpireShiftsCache); err != nil {
		log.Println("Erro ao agendar ExpireShiftsCache:", err)
	}

	c.Start()
	log.Println("Planejador cron iniciado.")
	return c
}
