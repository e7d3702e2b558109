package handlers

import (
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

// PendingWithdrawalItem é um pedido de saída aguardando decisão do admin.
type PendingWithdrawalItem struct {
	RegistrationID uint      `json:"registration_id"`
	AgentID        uint      `json:"agent_id"`
	AgentName      string    `json:"agent_name"`
	Matricula      string    `json:"matricula"`
	ShiftID        uint      `json:"shift_id"`
	Event          string    `json:"event"`
	ServiceDate    time.Time `json:"service_date"`
}

type ResolveWithdrawalRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// ResolveWithdrawalResponse informa a decisão e a promoção resultante, se
// houver (o agente promovido é quem o comando precisa avisar).
type ResolveWithdrawalResponse struct {
	Message         string `json:"message"`
	Promoted        bool   `json:"promoted"`
	PromotedAgentID uint   `json:"promoted_agent_id,omitempty"`
}

// ListPendingWithdrawalsHandler godoc
// @Summary		Desistências pendentes
// @Description	Lista os pedidos de saída aguardando decisão do administrador
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		PendingWithdrawalItem	"Pedidos pendentes"
// @Failure		500	{object}	response.ErrorResponse	"Erro do servidor (DB_ERROR)"
// @Router			/api/admin/withdrawals [get]
func ListPendingWithdrawalsHandler(c *gin.Context) {
	var regs []models.Registration
	if err := storage.DB.Preload("Agent").Preload("Shift").
		Where("status = ?", models.StatusWithdrawalRequested).
		Order("created_at ASC").
		Find(&regs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao carregar os pedidos pendentes",
			Details: err.Error(),
		})
		return
	}

	items := make([]PendingWithdrawalItem, 0, len(regs))
	for _, reg := range regs {
		items = append(items, PendingWithdrawalItem{
			RegistrationID: reg.ID,
			AgentID:        reg.AgentID,
			AgentName:      reg.Agent.Name,
			Matricula:      reg.Agent.Matricula,
			ShiftID:        reg.ShiftID,
			Event:          reg.Shift.Event,
			ServiceDate:    reg.Shift.ServiceDate,
		})
	}

	c.JSON(http.StatusOK, items)
}

// ResolveWithdrawalHandler godoc
// @Summary		Decisão sobre desistência
// @Description	Aprova ou nega um pedido de saída. A aprovação remove a inscrição e promove o agente mais antigo da lista de espera.
// @Tags			admin
// @Accept			json
// @Produce		json
// @Param			id		path	string						true	"ID da inscrição"
// @Param			decisao	body	ResolveWithdrawalRequest	true	"Decisão"
// @Security		BearerAuth
// @Success		200	{object}	ResolveWithdrawalResponse	"Decisão aplicada"
// @Failure		400	{object}	response.ErrorResponse		"Erro de validação (VALIDATION_ERROR, INVALID_REGISTRATION_ID)"
// @Failure		404	{object}	response.ErrorResponse		"Inscrição não encontrada (REGISTRATION_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse		"Pedido não está pendente (INVALID_STATE_TRANSITION)"
// @Router			/api/admin/withdrawals/{id} [post]
func ResolveWithdrawalHandler(c *gin.Context) {
	regID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_REGISTRATION_ID",
			Message: "Identificador de inscrição inválido",
		})
		return
	}

	var req ResolveWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Erro de validação dos dados",
			Details: err.Error(),
		})
		return
	}

	// Guarda o ShiftID antes: na aprovação a inscrição deixa de existir.
	var reg models.Registration
	if err := storage.DB.First(&reg, regID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "REGISTRATION_NOT_FOUND",
			Message: "Inscrição não encontrada",
		})
		return
	}
	shiftIDStr := strconv.Itoa(int(reg.ShiftID))

	result, err := roster.ResolveWithdrawal(storage.DB, uint(regID), *req.Approve)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	InvalidateShiftsCache()

	if !*req.Approve {
		c.JSON(http.StatusOK, ResolveWithdrawalResponse{
			Message: "Pedido negado. A inscrição voltou a ativa.",
		})
		return
	}

	if result.Promoted {
		ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
			EventType: "promotion",
			ShiftID:   shiftIDStr,
			Data: map[string]interface{}{
				"registration_id": result.RegistrationID,
				"agent_id":        result.AgentID,
			},
		})
	}

	c.JSON(http.StatusOK, ResolveWithdrawalResponse{
		Message:         "Desistência aprovada.",
		Promoted:        result.Promoted,
		PromotedAgentID: result.AgentID,
	})
}
