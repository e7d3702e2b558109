package handlers

import (
	"errors"
	"net/http"
	"os"
	"time"

	"sgras/internal/models"
	"sgras/internal/response"
	"sgras/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	AccessSecret  = []byte(os.Getenv("JWT_ACCESS_SECRET"))
	refreshSecret = []byte(os.Getenv("JWT_REFRESH_SECRET"))
)

type RegisterRequest struct {
	Matricula string `json:"matricula" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Rank      string `json:"rank" binding:"required"`
	Unit      string `json:"unit" binding:"required"`
	Password  string `json:"password" binding:"required,min=4"`
}

type LoginRequest struct {
	Matricula string `json:"matricula" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// Register godoc
// @Summary		Cadastro de agente
// @Description	Autocadastro de um agente para acesso às escalas
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			user	body		RegisterRequest				true	"Dados do agente"
// @Success		201		{object}	response.SuccessResponse	"Cadastro realizado"
// @Failure		400		{object}	response.ErrorResponse		"Erro de validação (VALIDATION_ERROR, INVALID_RANK) ou matrícula já cadastrada (MATRICULA_EXISTS)"
// @Failure		500		{object}	response.ErrorResponse		"Erro do servidor (PASSWORD_HASH_ERROR, DB_ERROR)"
// @Router			/auth/register [post]
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Erro de validação dos dados",
			Details: err.Error(),
		})
		return
	}

	var existing models.User
	if err := storage.DB.Where("matricula = ?", req.Matricula).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "MATRICULA_EXISTS",
			Message: "Matrícula já cadastrada",
		})
		return
	}

	// A graduação precisa existir no catálogo de cargos.
	var rank models.Rank
	if err := storage.DB.Where("name = ?", req.Rank).First(&rank).Error; err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_RANK",
			Message: "Graduação não encontrada no catálogo de cargos",
		})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "PASSWORD_HASH_ERROR",
			Message: "Erro ao gerar hash da senha",
		})
		return
	}

	user := models.User{
		Matricula:    req.Matricula,
		Name:         req.Name,
		Rank:         req.Rank,
		Unit:         req.Unit,
		PasswordHash: string(hashed),
		Role:         models.RoleAgent,
	}

	if err := storage.DB.Create(&user).Error; err != nil {
		// Dois cadastros simultâneos da mesma matrícula: o índice único
		// barra o segundo depois da checagem acima.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "MATRICULA_EXISTS",
				Message: "Matrícula já cadastrada",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao criar o agente",
		})
		return
	}

	c.JSON(http.StatusCreated, response.SuccessResponse{
		Message: "Agente cadastrado com sucesso",
	})
}

// Login godoc
// @Summary		Autenticação
// @Description	Autentica agente ou administrador pela matrícula e devolve os tokens
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			user	body		LoginRequest			true	"Credenciais"
// @Success		200		{object}	response.TokenResponse	"Autenticado"
// @Failure		400		{object}	response.ErrorResponse	"Erro de validação (VALIDATION_ERROR)"
// @Failure		401		{object}	response.ErrorResponse	"Credenciais inválidas (INVALID_CREDENTIALS)"
// @Failure		500		{object}	response.ErrorResponse	"Erro do servidor (TOKEN_GENERATION_ERROR)"
// @Router			/auth/login [post]
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Erro de validação dos dados",
			Details: err.Error(),
		})
		return
	}

	var user models.User
	if err := storage.DB.Where("matricula = ?", req.Matricula).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "INVALID_CREDENTIALS",
			Message: "Matrícula ou senha incorretos",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "INVALID_CREDENTIALS",
			Message: "Matrícula ou senha incorretos",
		})
		return
	}

	accessToken, err := generateToken(user.ID, user.Role, time.Minute*15, AccessSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "TOKEN_GENERATION_ERROR",
			Message: "Erro ao gerar o access token",
		})
		return
	}

	refreshToken, err := generateToken(user.ID, user.Role, time.Hour*24*7, refreshSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "TOKEN_GENERATION_ERROR",
			Message: "Erro ao gerar o refresh token",
		})
		return
	}

	c.JSON(http.StatusOK, response.TokenResponse{
		AccessToken:        accessToken,
		RefreshToken:       refreshToken,
		MustChangePassword: user.MustChangePassword,
	})
}

func generateToken(userID uint, role string, duration time.Duration, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(duration).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken godoc
// @Summary		Renovação do access token
// @Description	Gera um novo par de tokens a partir do refresh token
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			refresh_token	body		RefreshTokenRequest		true	"Refresh token"
// @Success		200				{object}	response.TokenResponse	"Tokens renovados"
// @Failure		400				{object}	response.ErrorResponse	"Erro de validação (VALIDATION_ERROR)"
// @Failure		401				{object}	response.ErrorResponse	"Refresh token inválido (INVALID_REFRESH_TOKEN) ou usuário não encontrado (USER_NOT_FOUND)"
// @Failure		500				{object}	response.ErrorResponse	"Erro do servidor (TOKEN_GENERATION_ERROR)"
// @Router			/auth/refresh [post]
func RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Erro de validação dos dados",
			Details: err.Error(),
		})
		return
	}

	token, err := jwt.Parse(req.RefreshToken, func(token *jwt.Token) (interface{}, error) {
		return refreshSecret, nil
	})
	if err != nil || !token.Valid {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "INVALID_REFRESH_TOKEN",
			Message: "Refresh token inválido ou expirado",
		})
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "INVALID_REFRESH_TOKEN",
			Message: "Refresh token inválido ou expirado",
		})
		return
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "INVALID_REFRESH_TOKEN",
			Message: "Refresh token inválido ou expirado",
		})
		return
	}
	userID := uint(userIDFloat)

	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "USER_NOT_FOUND",
			Message: "Usuário não encontrado",
		})
		return
	}

	newAccessToken, err := generateToken(user.ID, user.Role, time.Minute*15, AccessSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "TOKEN_GENERATION_ERROR",
			Message: "Erro ao gerar o access token",
		})
		return
	}

	newRefreshToken, err := generateToken(user.ID, user.Role, time.Hour*24*7, refreshSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "TOKEN_GENERATION_ERROR",
			Message: "Erro ao gerar o refresh token",
		})
		return
	}

	c.JSON(http.StatusOK, response.TokenResponse{
		AccessToken:        newAccessToken,
		RefreshToken:       newRefreshToken,
		MustChangePassword: user.MustChangePassword,
	})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=4"`
}

// ChangePassword godoc
// @Summary		Troca de senha
// @Description	Troca a senha do usuário autenticado e limpa a flag de primeiro acesso
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			senha	body		ChangePasswordRequest	true	"Senhas"
// @Security		BearerAuth
// @Success		200		{object}	response.SuccessResponse	"Senha alterada"
// @Failure		400		{object}	response.ErrorResponse		"Erro de validação (VALIDATION_ERROR)"
// @Failure		401		{object}	response.ErrorResponse		"Senha atual incorreta (INVALID_CREDENTIALS)"
// @Failure		500		{object}	response.ErrorResponse		"Erro do servidor (PASSWORD_HASH_ERROR, DB_ERROR)"
// @Router			/auth/password [post]
func ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Erro de validação dos dados",
			Details: err.Error(),
		})
		return
	}

	userID := c.GetUint("userID")
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "USER_NOT_FOUND",
			Message: "Usuário não encontrado",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "INVALID_CREDENTIALS",
			Message: "Senha atual incorreta",
		})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "PASSWORD_HASH_ERROR",
			Message: "Erro ao gerar hash da senha",
		})
		return
	}

	updates := map[string]interface{}{
		"password_hash":        string(hashed),
		"must_change_password": false,
	}
	if err := storage.DB.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Erro ao atualizar a senha",
		})
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{
		Message: "Senha alterada com sucesso",
	})
}
