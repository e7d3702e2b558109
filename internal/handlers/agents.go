package handlers

import (
	"net/http"
	"strconv"

	"sgras/internal/models"
	"sgras/internal/response"
	"sgras/internal/storage"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AgentItem é a visão administrativa de um agente.
type AgentItem struct {
	ID        uint   `json:"id"`
	Matricula string `json:"matricula"`
	Name      string `json:"name"`
	Rank      string `json:"rank"`
	Unit      string `json:"unit"`
}

type UpdateAgentRequest struct {
	Name string `json:"name" binding:"required"`
	Rank string `json:"rank" binding:"required"`
	Unit string `json:"unit" binding:"required"`
}

// ListAgentsHandler godoc
// @Summary		Gestão de efetivo
// @Description	Lista todos os agentes cadastrados
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		AgentItem				"Agentes"
// @Failure		500	{object}	response.ErrorResponse	"Erro do servidor (DB_ERROR)"
// @Router			/api/admin/agents [get]
func ListAgentsHandler(c *gin.Context) {
	var agents []models.User
	if err := storage.DB.Where("role = ?", models.RoleAgent).Order("name ASC").Find(&agents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao carregar os agentes",
			Details: err.Error(),
		})
		return
	}

	items := make([]AgentItem, 0, len(agents))
	for _, a := range agents {
		items = append(items, AgentItem{
			ID:        a.ID,
			Matricula: a.Matricula,
			Name:      a.Name,
			Rank:      a.Rank,
			Unit:      a.Unit,
		})
	}

	c.JSON(http.StatusOK, items)
}

func loadAgent(c *gin.Context) (*models.User, bool) {
	agentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_AGENT_ID",
			Message: "Identificador de agente inválido",
		})
		return nil, false
	}

	var agent models.User
	if err := storage.DB.Where("role = ?", models.RoleAgent).First(&agent, agentID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "AGENT_NOT_FOUND",
			Message: "Agente não encontrado",
		})
		return nil, false
	}
	return &agent, true
}

// UpdateAgentHandler godoc
// @Summary		Edição de agente
// @Description	Atualiza nome, graduação e lotação de um agente
// @Tags			admin
// @Accept			json
// @Produce		json
// @Param			id		path	string				true	"ID do agente"
// @Param			agente	body	UpdateAgentRequest	true	"Dados do agente"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Agente atualizado"
// @Failure		400	{object}	response.ErrorResponse		"Erro de validação (VALIDATION_ERROR, INVALID_AGENT_ID, INVALID_RANK)"
// @Failure		404	{object}	response.ErrorResponse		"Agente não encontrado (AGENT_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Erro do servidor (DB_ERROR)"
// @Router			/api/admin/agents/{id} [put]
func UpdateAgentHandler(c *gin.Context) {
	agent, ok := loadAgent(c)
	if !ok {
		return
	}

	var req UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Erro de validação dos dados",
			Details: err.Error(),
		})
		return
	}

	var rank models.Rank
	if err := storage.DB.Where("name = ?", req.Rank).First(&rank).Error; err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_RANK",
			Message: "Graduação não encontrada no catálogo de cargos",
		})
		return
	}

	updates := map[string]interface{}{
		"name": req.Name,
		"rank": req.Rank,
		"unit": req.Unit,
	}
	if err := storage.DB.Model(agent).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao atualizar o agente",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{
		Message: "Agente atualizado com sucesso",
	})
}

// ResetAgentPasswordHandler godoc
// @Summary		Reset de senha
// @Description	Redefine a senha do agente para 1234 e força a troca no próximo login
// @Tags			admin
// @Produce		json
// @Param			id	path	string	true	"ID do agente"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Senha redefinida"
// @Failure		400	{object}	response.ErrorResponse		"Identificador inválido (INVALID_AGENT_ID)"
// @Failure		404	{object}	response.ErrorResponse		"Agente não encontrado (AGENT_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Erro do servidor (PASSWORD_HASH_ERROR, DB_ERROR)"
// @Router			/api/admin/agents/{id}/reset-password [post]
func ResetAgentPasswordHandler(c *gin.Context) {
	agent, ok := loadAgent(c)
	if !ok {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "PASSWORD_HASH_ERROR",
			Message: "Erro ao gerar hash da senha",
		})
		return
	}

	updates := map[string]interface{}{
		"password_hash":        string(hashed),
		"must_change_password": true,
	}
	if err := storage.DB.Model(agent).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao redefinir a senha",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{
		Message: "Senha redefinida para 1234. O agente deverá trocá-la no próximo acesso.",
	})
}

// DeleteAgentHandler godoc
// @Summary		Exclusão de agente
// @Description	Remove o agente e todas as suas inscrições (cascata)
// @Tags			admin
// @Produce		json
// @Param			id	path	string	true	"ID do agente"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Agente removido"
// @Failure		400	{object}	response.ErrorResponse		"Identificador inválido (INVALID_AGENT_ID)"
// @Failure		404	{object}	response.ErrorResponse		"Agente não encontrado (AGENT_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Erro do servidor (DB_ERROR)"
// @Router			/api/admin/agents/{id} [delete]
func DeleteAgentHandler(c *gin.Context) {
	agent, ok := loadAgent(c)
	if !ok {
		return
	}

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("agent_id = ?", agent.ID).Delete(&models.Registration{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.User{}, agent.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao excluir o agente",
			Details: err.Error(),
		})
		return
	}

	InvalidateShiftsCache()

	c.JSON(http.StatusOK, response.SuccessResponse{
		Message: "Agente e inscrições removidos",
	})
}
