package handlers

import (
	"net/http"
	"time"

	"sgras/internal/models"
	"sgras/internal/response"
	"sgras/internal/storage"

	"github.com/gin-gonic/gin"
)

// ReportSummary é o painel gerencial do administrador.
type ReportSummary struct {
	ConfirmedCount int64           `json:"confirmed_count"` // Inscrições ativas
	TotalValue     float64         `json:"total_value"`     // Valor previsto (R$) das inscrições ativas
	TopAgents      []TopAgentEntry `json:"top_agents"`      // Até 5 agentes com mais escalas confirmadas
}

type TopAgentEntry struct {
	AgentID uint   `json:"agent_id"`
	Name    string `json:"name"`
	Total   int64  `json:"total"`
}

// RegistrationReportItem é uma linha da listagem geral de inscrições.
type RegistrationReportItem struct {
	RegistrationID uint                      `json:"registration_id"`
	Event          string                    `json:"event"`
	ServiceDate    time.Time                 `json:"service_date"`
	AgentName      string                    `json:"agent_name"`
	Matricula      string                    `json:"matricula"`
	Status         models.RegistrationStatus `json:"status"`
}

// ReportSummaryHandler godoc
// @Summary		Relatórios gerenciais
// @Description	Totais de inscrições confirmadas, valor previsto e os agentes com mais escalas
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	ReportSummary			"Resumo"
// @Failure		500	{object}	response.ErrorResponse	"Erro do servidor (DB_ERROR)"
// @Router			/api/admin/reports/summary [get]
func ReportSummaryHandler(c *gin.Context) {
	var summary ReportSummary

	if err := storage.DB.Model(&models.Registration{}).
		Where("status = ?", models.StatusActive).
		Count(&summary.ConfirmedCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao montar o relatório",
			Details: err.Error(),
		})
		return
	}

	var total *float64
	if err := storage.DB.Model(&models.Registration{}).
		Select("SUM(shifts.payment)").
		Joins("JOIN shifts ON shifts.id = registrations.shift_id").
		Where("registrations.status = ?", models.StatusActive).
		Scan(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao montar o relatório",
			Details: err.Error(),
		})
		return
	}
	if total != nil {
		summary.TotalValue = *total
	}

	if err := storage.DB.Model(&models.Registration{}).
		Select("registrations.agent_id AS agent_id, users.name AS name, COUNT(*) AS total").
		Joins("JOIN users ON users.id = registrations.agent_id").
		Where("registrations.status = ?", models.StatusActive).
		Group("registrations.agent_id, users.name").
		Order("total DESC").
		Limit(5).
		Scan(&summary.TopAgents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao montar o relatório",
			Details: err.Error(),
		})
		return
	}
	if summary.TopAgents == nil {
		summary.TopAgents = []TopAgentEntry{}
	}

	c.JSON(http.StatusOK, summary)
}

// ListRegistrationsReportHandler godoc
// @Summary		Lista de inscrições
// @Description	Listagem geral de inscrições com filtros por evento e por agente (nome ou matrícula)
// @Tags			admin
// @Produce		json
// @Param			event	query	string	false	"Filtro por nome do evento"
// @Param			agent	query	string	false	"Filtro por nome ou matrícula do agente"
// @Security		BearerAuth
// @Success		200	{array}		RegistrationReportItem	"Inscrições"
// @Failure		500	{object}	response.ErrorResponse	"Erro do servidor (DB_ERROR)"
// @Router			/api/admin/registrations [get]
func ListRegistrationsReportHandler(c *gin.Context) {
	query := storage.DB.Model(&models.Registration{}).
		Select(`registrations.id AS registration_id,
			shifts.event AS event,
			shifts.service_date AS service_date,
			users.name AS agent_name,
			users.matricula AS matricula,
			registrations.status AS status`).
		Joins("JOIN shifts ON shifts.id = registrations.shift_id").
		Joins("JOIN users ON users.id = registrations.agent_id").
		Order("shifts.service_date DESC")

	// LIKE com lower() funciona igual no Postgres e no sqlite dos testes.
	if event := c.Query("event"); event != "" {
		query = query.Where("LOWER(shifts.event) LIKE LOWER(?)", "%"+event+"%")
	}
	if agent := c.Query("agent"); agent != "" {
		query = query.Where("LOWER(users.name) LIKE LOWER(?) OR users.matricula LIKE ?",
			"%"+agent+"%", "%"+agent+"%")
	}

	var items []RegistrationReportItem
	if err := query.Scan(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao carregar as inscrições",
			Details: err.Error(),
		})
		return
	}
	if items == nil {
		items = []RegistrationReportItem{}
	}

	c.JSON(http.StatusOK, items)
}
