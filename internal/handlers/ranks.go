package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"sgras/internal/models"
	"sgras/internal/response"
	"sgras/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RankItem é um cargo/patente do catálogo.
type RankItem struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type CreateRankRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListRanksHandler godoc
// @Summary		Catálogo de cargos
// @Description	Lista as graduações disponíveis para o cadastro de agentes
// @Tags			ranks
// @Produce		json
// @Success		200	{array}		RankItem				"Cargos"
// @Failure		500	{object}	response.ErrorResponse	"Erro do servidor (DB_ERROR)"
// @Router			/ranks [get]
func ListRanksHandler(c *gin.Context) {
	var ranks []models.Rank
	if err := storage.DB.Order("name ASC").Find(&ranks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao carregar os cargos",
			Details: err.Error(),
		})
		return
	}

	items := make([]RankItem, 0, len(ranks))
	for _, r := range ranks {
		items = append(items, RankItem{ID: r.ID, Name: r.Name})
	}

	c.JSON(http.StatusOK, items)
}

// CreateRankHandler godoc
// @Summary		Novo cargo
// @Description	Adiciona uma graduação ao catálogo
// @Tags			admin
// @Accept			json
// @Produce		json
// @Param			cargo	body	CreateRankRequest	true	"Nome do cargo"
// @Security		BearerAuth
// @Success		201	{object}	RankItem				"Cargo criado"
// @Failure		400	{object}	response.ErrorResponse	"Erro de validação (VALIDATION_ERROR) ou cargo já existe (RANK_EXISTS)"
// @Failure		500	{object}	response.ErrorResponse	"Erro do servidor (DB_ERROR)"
// @Router			/api/admin/ranks [post]
func CreateRankHandler(c *gin.Context) {
	var req CreateRankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Erro de validação dos dados",
			Details: err.Error(),
		})
		return
	}

	var existing models.Rank
	if err := storage.DB.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "RANK_EXISTS",
			Message: "Esse cargo já existe",
		})
		return
	}

	rank := models.Rank{Name: req.Name}
	if err := storage.DB.Create(&rank).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "RANK_EXISTS",
				Message: "Esse cargo já existe",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao criar o cargo",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, RankItem{ID: rank.ID, Name: rank.Name})
}

// DeleteRankHandler godoc
// @Summary		Remoção de cargo
// @Description	Remove uma graduação do catálogo
// @Tags			admin
// @Produce		json
// @Param			id	path	string	true	"ID do cargo"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Cargo removido"
// @Failure		400	{object}	response.ErrorResponse		"Identificador inválido (INVALID_RANK_ID)"
// @Failure		404	{object}	response.ErrorResponse		"Cargo não encontrado (RANK_NOT_FOUND)"
// @Router			/api/admin/ranks/{id} [delete]
func DeleteRankHandler(c *gin.Context) {
	rankID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_RANK_ID",
			Message: "Identificador de cargo inválido",
		})
		return
	}

	var rank models.Rank
	if err := storage.DB.First(&rank, rankID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "RANK_NOT_FOUND",
			Message: "Cargo não encontrado",
		})
		return
	}

	if err := storage.DB.Unscoped().Delete(&rank).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao remover o cargo",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{
		Message: "Cargo removido",
	})
}
