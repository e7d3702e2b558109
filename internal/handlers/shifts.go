package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"sgras/internal/models"
	"sgras/internal/response"
	"sgras/internal/storage"

	"github.com/gin-gonic/gin"
)

const shiftsOverviewCacheKey = "shifts_overview"

// ShiftItem agrega a escala e sua ocupação atual.
type ShiftItem struct {
	ID          uint       `json:"id"`
	Event       string     `json:"event"`
	ServiceDate time.Time  `json:"service_date"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
	TotalSlots  int        `json:"total_slots"`
	Payment     float64    `json:"payment"`
	ReleaseAt   *time.Time `json:"release_at,omitempty"`
	Released    bool       `json:"released"`
	Active      int64      `json:"active"`
	Waitlisted  int64      `json:"waitlisted"`
	Remaining   int64      `json:"remaining"`
}

type CreateShiftRequest struct {
	Event       string     `json:"event" binding:"required"`
	ServiceDate time.Time  `json:"service_date" binding:"required"`
	StartTime   string     `json:"start_time" binding:"required"`
	EndTime     string     `json:"end_time" binding:"required"`
	TotalSlots  int        `json:"total_slots" binding:"required,min=1"`
	Payment     float64    `json:"payment" binding:"min=0"`
	ReleaseAt   *time.Time `json:"release_at"`
}

// CreateShiftHandler godoc
// @Summary		Publicação de escala
// @Description	Cria uma nova escala RAS com vagas e valor fixos. A escala não pode ser editada depois.
// @Tags			shifts
// @Accept			json
// @Produce		json
// @Param			shift	body		CreateShiftRequest	true	"Dados da escala"
// @Security		BearerAuth
// @Success		201	{object}	ShiftItem				"Escala criada"
// @Failure		400	{object}	response.ErrorResponse	"Erro de validação (VALIDATION_ERROR)"
// @Failure		500	{object}	response.ErrorResponse	"Erro do servidor (DB_ERROR)"
// @Router			/api/admin/shifts [post]
func CreateShiftHandler(c *gin.Context) {
	var req CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Erro de validação dos dados",
			Details: err.Error(),
		})
		return
	}

	shift := models.Shift{
		Event:       req.Event,
		ServiceDate: req.ServiceDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		TotalSlots:  req.TotalSlots,
		Payment:     req.Payment,
		ReleaseAt:   req.ReleaseAt,
	}
	if err := storage.DB.Create(&shift).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao criar a escala",
			Details: err.Error(),
		})
		return
	}

	InvalidateShiftsCache()

	c.JSON(http.StatusCreated, shiftItemFor(shift, 0, 0, time.Now()))
}

// ListShiftsHandler godoc
// @Summary		Listagem de escalas
// @Description	Lista as escalas publicadas com a ocupação atual (com cache curto em Redis)
// @Tags			shifts
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		ShiftItem				"Escalas disponíveis"
// @Failure		500	{object}	response.ErrorResponse	"Erro do servidor (DB_ERROR)"
// @Router			/api/shifts [get]
func ListShiftsHandler(c *gin.Context) {
	if storage.RedisClient != nil {
		cached, err := storage.RedisClient.Get(storage.Ctx, shiftsOverviewCacheKey).Result()
		if err == nil && cached != "" {
			var items []ShiftItem
			if err := json.Unmarshal([]byte(cached), &items); err == nil {
				c.JSON(http.StatusOK, items)
				return
			}
		}
	}

	items, err := buildShiftsOverview()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao carregar as escalas",
			Details: err.Error(),
		})
		return
	}

	if storage.RedisClient != nil {
		if payload, err := json.Marshal(items); err == nil {
			storage.RedisClient.Set(storage.Ctx, shiftsOverviewCacheKey, payload, 30*time.Second)
		}
	}

	c.JSON(http.StatusOK, items)
}

// GetShiftHandler godoc
// @Summary		Detalhe de escala
// @Description	Retorna uma escala com sua ocupação atual
// @Tags			shifts
// @Produce		json
// @Param			id	path	string	true	"ID da escala"
// @Security		BearerAuth
// @Success		200	{object}	ShiftItem				"Escala"
// @Failure		400	{object}	response.ErrorResponse	"Identificador inválido (INVALID_SHIFT_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Escala não encontrada (SHIFT_NOT_FOUND)"
// @Router			/api/shifts/{id} [get]
func GetShiftHandler(c *gin.Context) {
	shiftID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SHIFT_ID",
			Message: "Identificador de escala inválido",
		})
		return
	}

	var shift models.Shift
	if err := storage.DB.First(&shift, shiftID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "SHIFT_NOT_FOUND",
			Message: "Escala não encontrada",
		})
		return
	}

	var active, waitlisted int64
	storage.DB.Model(&models.Registration{}).
		Where("shift_id = ? AND status = ?", shift.ID, models.StatusActive).Count(&active)
	storage.DB.Model(&models.Registration{}).
		Where("shift_id = ? AND status = ?", shift.ID, models.StatusWaitlisted).Count(&waitlisted)

	c.JSON(http.StatusOK, shiftItemFor(shift, active, waitlisted, time.Now()))
}

func buildShiftsOverview() ([]ShiftItem, error) {
	var shifts []models.Shift
	if err := storage.DB.Order("service_date ASC").Find(&shifts).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		ShiftID uint
		Status  models.RegistrationStatus
		Total   int64
	}
	var counts []statusCount
	if err := storage.DB.Model(&models.Registration{}).
		Select("shift_id, status, COUNT(*) as total").
		Group("shift_id, status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	active := make(map[uint]int64)
	waitlisted := make(map[uint]int64)
	for _, sc := range counts {
		switch sc.Status {
		case models.StatusActive:
			active[sc.ShiftID] = sc.Total
		case models.StatusWaitlisted:
			waitlisted[sc.ShiftID] = sc.Total
		}
	}

	now := time.Now()
	items := make([]ShiftItem, 0, len(shifts))
	for _, shift := range shifts {
		items = append(items, shiftItemFor(shift, active[shift.ID], waitlisted[shift.ID], now))
	}
	return items, nil
}

func shiftItemFor(shift models.Shift, active, waitlisted int64, now time.Time) ShiftItem {
	remaining := int64(shift.TotalSlots) - active
	if remaining < 0 {
		remaining = 0
	}
	return ShiftItem{
		ID:          shift.ID,
		Event:       shift.Event,
		ServiceDate: shift.ServiceDate,
		StartTime:   shift.StartTime,
		EndTime:     shift.EndTime,
		TotalSlots:  shift.TotalSlots,
		Payment:     shift.Payment,
		ReleaseAt:   shift.ReleaseAt,
		Released:    shift.ReleaseAt == nil || !now.Before(*shift.ReleaseAt),
		Active:      active,
		Waitlisted:  waitlisted,
		Remaining:   remaining,
	}
}

// InvalidateShiftsCache derruba o cache de ocupação depois de qualquer
// mutação de inscrição ou escala.
func InvalidateShiftsCache() {
	if storage.RedisClient != nil {
		storage.RedisClient.Del(storage.Ctx, shiftsOverviewCacheKey)
	}
}
