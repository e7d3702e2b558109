package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"sgras/internal/models"
	"sgras/internal/response"
	"sgras/internal/roster"
	"sgras/internal/storage"
	"sgras/internal/ws"

	"github.com/gin-gonic/gin"
)

// SignupResponse é o resultado de uma inscrição aceita.
type SignupResponse struct {
	Message        string `json:"message"`
	Status         string `json:"status"` // ADMITTED ou WAITLISTED
	RegistrationID uint   `json:"registration_id"`
}

// MyRegistrationItem é uma inscrição do agente com os dados da escala.
type MyRegistrationItem struct {
	RegistrationID uint                      `json:"registration_id"`
	ShiftID        uint                      `json:"shift_id"`
	Event          string                    `json:"event"`
	ServiceDate    time.Time                 `json:"service_date"`
	StartTime      string                    `json:"start_time"`
	EndTime        string                    `json:"end_time"`
	Payment        float64                   `json:"payment"`
	Status         models.RegistrationStatus `json:"status"`
}

// SignupHandler godoc
// @Summary		Inscrição em escala
// @Description	Inscreve o agente autenticado. Com vaga disponível a inscrição é ativa; com as vagas esgotadas o agente entra na lista de espera.
// @Tags			registrations
// @Produce		json
// @Param			id	path	string	true	"ID da escala"
// @Security		BearerAuth
// @Success		200	{object}	SignupResponse			"Inscrição registrada"
// @Failure		400	{object}	response.ErrorResponse	"Identificador inválido (INVALID_SHIFT_ID)"
// @Failure		403	{object}	response.ErrorResponse	"Inscrições ainda não liberadas (NOT_YET_RELEASED)"
// @Failure		404	{object}	response.ErrorResponse	"Escala não encontrada (SHIFT_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Já inscrito (ALREADY_REGISTERED)"
// @Failure		500	{object}	response.ErrorResponse	"Erro do servidor (DB_ERROR)"
// @Router			/api/shifts/{id}/signup [post]
func SignupHandler(c *gin.Context) {
	shiftIDStr := c.Param("id")
	shiftID, err := strconv.Atoi(shiftIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SHIFT_ID",
			Message: "Identificador de escala inválido",
		})
		return
	}

	agentID := c.GetUint("userID")
	status, reg, err := roster.Admit(storage.DB, agentID, uint(shiftID), time.Now())
	if err != nil {
		switch {
		case errors.Is(err, roster.ErrShiftNotFound):
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "SHIFT_NOT_FOUND",
				Message: "Escala não encontrada",
			})
		case errors.Is(err, roster.ErrNotYetReleased):
			c.JSON(http.StatusForbidden, response.ErrorResponse{
				Code:    "NOT_YET_RELEASED",
				Message: "As inscrições desta escala ainda não foram liberadas",
			})
		case errors.Is(err, roster.ErrAlreadyRegistered):
			c.JSON(http.StatusConflict, response.ErrorResponse{
				Code:    "ALREADY_REGISTERED",
				Message: "Você já está inscrito nesta escala",
			})
		default:
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{
				Code:    "DB_ERROR",
				Message: "Erro ao registrar a inscrição",
				Details: err.Error(),
			})
		}
		return
	}

	InvalidateShiftsCache()

	var msg, event string
	if status == roster.Admitted {
		msg = "Inscrição confirmada!"
		event = "signup"
	} else {
		msg = "Vagas esgotadas. Você entrou na lista de espera."
		event = "waitlisted"
	}

	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType: event,
		ShiftID:   shiftIDStr,
		Data: map[string]interface{}{
			"agent_id":        agentID,
			"registration_id": reg.ID,
		},
	})

	c.JSON(http.StatusOK, SignupResponse{
		Message:        msg,
		Status:         string(status),
		RegistrationID: reg.ID,
	})
}

// MyRegistrationsHandler godoc
// @Summary		Minhas escalas
// @Description	Lista as inscrições do agente autenticado com os dados das escalas
// @Tags			registrations
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		MyRegistrationItem		"Inscrições do agente"
// @Failure		500	{object}	response.ErrorResponse	"Erro do servidor (DB_ERROR)"
// @Router			/api/registrations [get]
func MyRegistrationsHandler(c *gin.Context) {
	agentID := c.GetUint("userID")

	var regs []models.Registration
	if err := storage.DB.Preload("Shift").
		Where("agent_id = ?", agentID).
		Find(&regs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao carregar as inscrições",
			Details: err.Error(),
		})
		return
	}

	items := make([]MyRegistrationItem, 0, len(regs))
	for _, reg := range regs {
		items = append(items, MyRegistrationItem{
			RegistrationID: reg.ID,
			ShiftID:        reg.ShiftID,
			Event:          reg.Shift.Event,
			ServiceDate:    reg.Shift.ServiceDate,
			StartTime:      reg.Shift.StartTime,
			EndTime:        reg.Shift.EndTime,
			Payment:        reg.Shift.Payment,
			Status:         reg.Status,
		})
	}

	c.JSON(http.StatusOK, items)
}

// loadOwnRegistration carrega a inscrição e garante que pertence ao agente
// autenticado.
func loadOwnRegistration(c *gin.Context) (*models.Registration, bool) {
	regID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_REGISTRATION_ID",
			Message: "Identificador de inscrição inválido",
		})
		return nil, false
	}

	var reg models.Registration
	if err := storage.DB.First(&reg, regID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "REGISTRATION_NOT_FOUND",
			Message: "Inscrição não encontrada",
		})
		return nil, false
	}

	if reg.AgentID != c.GetUint("userID") {
		c.JSON(http.StatusForbidden, response.ErrorResponse{
			Code:    "NOT_OWNER",
			Message: "A inscrição pertence a outro agente",
		})
		return nil, false
	}
	return &reg, true
}

func respondTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, roster.ErrRegistrationNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "REGISTRATION_NOT_FOUND",
			Message: "Inscrição não encontrada",
		})
	case errors.Is(err, roster.ErrInvalidTransition):
		c.JSON(http.StatusConflict, response.ErrorResponse{
			Code:    "INVALID_STATE_TRANSITION",
			Message: "A inscrição não está em um status que permita esta operação",
		})
	default:
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao atualizar a inscrição",
			Details: err.Error(),
		})
	}
}

// RequestWithdrawalHandler godoc
// @Summary		Pedido de desistência
// @Description	Solicita a saída de uma inscrição ativa; a vaga só é liberada após aprovação do administrador
// @Tags			registrations
// @Produce		json
// @Param			id	path	string	true	"ID da inscrição"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Pedido registrado"
// @Failure		400	{object}	response.ErrorResponse		"Identificador inválido (INVALID_REGISTRATION_ID)"
// @Failure		403	{object}	response.ErrorResponse		"Inscrição de outro agente (NOT_OWNER)"
// @Failure		404	{object}	response.ErrorResponse		"Inscrição não encontrada (REGISTRATION_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse		"Status não permite o pedido (INVALID_STATE_TRANSITION)"
// @Router			/api/registrations/{id}/withdraw [post]
func RequestWithdrawalHandler(c *gin.Context) {
	reg, ok := loadOwnRegistration(c)
	if !ok {
		return
	}

	if err := roster.RequestWithdrawal(storage.DB, reg.ID); err != nil {
		respondTransitionError(c, err)
		return
	}

	InvalidateShiftsCache()
	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType: "withdrawal_requested",
		ShiftID:   strconv.Itoa(int(reg.ShiftID)),
		Data: map[string]interface{}{
			"registration_id": reg.ID,
			"agent_id":        reg.AgentID,
		},
	})

	c.JSON(http.StatusOK, response.SuccessResponse{
		Message: "Pedido de desistência registrado. Aguarde a aprovação do comando.",
	})
}

// CancelWithdrawalHandler godoc
// @Summary		Cancelamento do pedido de desistência
// @Description	Desfaz um pedido de saída ainda não decidido; a inscrição volta a ativa
// @Tags			registrations
// @Produce		json
// @Param			id	path	string	true	"ID da inscrição"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Pedido cancelado"
// @Failure		400	{object}	response.ErrorResponse		"Identificador inválido (INVALID_REGISTRATION_ID)"
// @Failure		403	{object}	response.ErrorResponse		"Inscrição de outro agente (NOT_OWNER)"
// @Failure		404	{object}	response.ErrorResponse		"Inscrição não encontrada (REGISTRATION_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse		"Status não permite o cancelamento (INVALID_STATE_TRANSITION)"
// @Router			/api/registrations/{id}/withdraw/cancel [post]
func CancelWithdrawalHandler(c *gin.Context) {
	reg, ok := loadOwnRegistration(c)
	if !ok {
		return
	}

	if err := roster.CancelWithdrawal(storage.DB, reg.ID); err != nil {
		respondTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{
		Message: "Pedido de desistência cancelado. Sua vaga continua confirmada.",
	})
}

// LeaveWaitlistHandler godoc
// @Summary		Saída da lista de espera
// @Description	Remove a própria inscrição em lista de espera. Não há promoção porque nenhuma vaga ativa foi liberada.
// @Tags			registrations
// @Produce		json
// @Param			id	path	string	true	"ID da inscrição"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Inscrição removida"
// @Failure		400	{object}	response.ErrorResponse		"Identificador inválido (INVALID_REGISTRATION_ID)"
// @Failure		403	{object}	response.ErrorResponse		"Inscrição de outro agente (NOT_OWNER)"
// @Failure		404	{object}	response.ErrorResponse		"Inscrição não encontrada (REGISTRATION_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse		"Inscrição não está em espera (INVALID_STATE_TRANSITION)"
// @Router			/api/registrations/{id}/waitlist [delete]
func LeaveWaitlistHandler(c *gin.Context) {
	reg, ok := loadOwnRegistration(c)
	if !ok {
		return
	}

	if err := roster.LeaveWaitlist(storage.DB, reg.ID); err != nil {
		respondTransitionError(c, err)
		return
	}

	InvalidateShiftsCache()

	c.JSON(http.StatusOK, response.SuccessResponse{
		Message: "Você saiu da lista de espera.",
	})
}
