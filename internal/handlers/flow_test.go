package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"sgras/internal/auth"
	"sgras/internal/handlers"
	"sgras/internal/models"
	"sgras/internal/storage"
	"sgras/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Middleware de teste: lê usuário e papel de cabeçalhos em vez de JWT.
func authMiddlewareTest() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := uint(1)
		if s := c.Request.Header.Get("X-Test-UserID"); s != "" {
			if id, err := strconv.Atoi(s); err == nil {
				userID = uint(id)
			}
		}
		role := c.Request.Header.Get("X-Test-Role")
		if role == "" {
			role = models.RoleAgent
		}
		c.Set("userID", userID)
		c.Set("role", role)
		c.Next()
	}
}

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "Erro ao abrir banco em memória")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Rank{}, &models.Shift{}, &models.Registration{}))
	storage.DB = db
	storage.RedisClient = nil

	go ws.HubInstance.Run()

	r := gin.New()

	r.POST("/auth/register", handlers.Register)
	r.GET("/ranks", handlers.ListRanksHandler)

	api := r.Group("/api", authMiddlewareTest())
	{
		api.GET("/shifts", handlers.ListShiftsHandler)
		api.GET("/shifts/:id", handlers.GetShiftHandler)
		api.POST("/shifts/:id/signup", handlers.SignupHandler)

		api.GET("/registrations", handlers.MyRegistrationsHandler)
		api.POST("/registrations/:id/withdraw", handlers.RequestWithdrawalHandler)
		api.POST("/registrations/:id/withdraw/cancel", handlers.CancelWithdrawalHandler)
		api.DELETE("/registrations/:id/waitlist", handlers.LeaveWaitlistHandler)
	}

	admin := api.Group("/admin", auth.AdminOnly())
	{
		admin.POST("/shifts", handlers.CreateShiftHandler)
		admin.POST("/ranks", handlers.CreateRankHandler)
		admin.GET("/withdrawals", handlers.ListPendingWithdrawalsHandler)
		admin.POST("/withdrawals/:id", handlers.ResolveWithdrawalHandler)
		admin.GET("/reports/summary", handlers.ReportSummaryHandler)
		admin.GET("/registrations", handlers.ListRegistrationsReportHandler)
	}

	return httptest.NewServer(r)
}

func createTestAgent(t *testing.T, matricula string) models.User {
	t.Helper()
	agent := models.User{
		Matricula:    matricula,
		Name:         "Agente " + matricula,
		Rank:         "Soldado",
		Unit:         "1º Pelotão",
		PasswordHash: "hash",
		Role:         models.RoleAgent,
	}
	require.NoError(t, storage.DB.Create(&agent).Error)
	return agent
}

func doJSON(t *testing.T, method, url string, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	var decoded map[string]interface{}
	json.NewDecoder(res.Body).Decode(&decoded)
	res.Body.Close()
	return res, decoded
}

func adminHeaders(adminID uint) map[string]string {
	return map[string]string{
		"X-Test-UserID": fmt.Sprintf("%d", adminID),
		"X-Test-Role":   models.RoleAdmin,
	}
}

func agentHeaders(agentID uint) map[string]string {
	return map[string]string{
		"X-Test-UserID": fmt.Sprintf("%d", agentID),
	}
}

func TestSignupWithdrawalPromotionFlow(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	adminUser := models.User{Matricula: "admin", Name: "Admin", PasswordHash: "hash", Role: models.RoleAdmin}
	require.NoError(t, storage.DB.Create(&adminUser).Error)

	a := createTestAgent(t, "1001")
	b := createTestAgent(t, "1002")
	cAgent := createTestAgent(t, "1003")

	// Admin publica uma escala com 2 vagas.
	res, body := doJSON(t, "POST", ts.URL+"/api/admin/shifts", map[string]interface{}{
		"event":        "Jogo no Estádio",
		"service_date": time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		"start_time":   "18:00",
		"end_time":     "23:00",
		"total_slots":  2,
		"payment":      200.0,
	}, adminHeaders(adminUser.ID))
	require.Equal(t, http.StatusCreated, res.StatusCode)
	shiftID := int(body["id"].(float64))
	signupURL := fmt.Sprintf("%s/api/shifts/%d/signup", ts.URL, shiftID)

	// A e B ficam ativos, C entra na espera.
	res, body = doJSON(t, "POST", signupURL, nil, agentHeaders(a.ID))
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ADMITTED", body["status"])
	regA := uint(body["registration_id"].(float64))

	res, body = doJSON(t, "POST", signupURL, nil, agentHeaders(b.ID))
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ADMITTED", body["status"])

	res, body = doJSON(t, "POST", signupURL, nil, agentHeaders(cAgent.ID))
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "WAITLISTED", body["status"])

	// Inscrição duplicada não cria linha.
	res, body = doJSON(t, "POST", signupURL, nil, agentHeaders(a.ID))
	require.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "ALREADY_REGISTERED", body["code"])

	// A pede desistência; só o dono pode pedir.
	withdrawURL := fmt.Sprintf("%s/api/registrations/%d/withdraw", ts.URL, regA)
	res, body = doJSON(t, "POST", withdrawURL, nil, agentHeaders(b.ID))
	require.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "NOT_OWNER", body["code"])

	res, _ = doJSON(t, "POST", withdrawURL, nil, agentHeaders(a.ID))
	require.Equal(t, http.StatusOK, res.StatusCode)

	// O pedido aparece na fila do admin.
	res, _ = doJSON(t, "GET", ts.URL+"/api/admin/withdrawals", nil, adminHeaders(adminUser.ID))
	require.Equal(t, http.StatusOK, res.StatusCode)

	// Aprovação promove C, o mais antigo da espera.
	resolveURL := fmt.Sprintf("%s/api/admin/withdrawals/%d", ts.URL, regA)
	res, body = doJSON(t, "POST", resolveURL, map[string]interface{}{"approve": true}, adminHeaders(adminUser.ID))
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["promoted"])
	assert.EqualValues(t, cAgent.ID, body["promoted_agent_id"])

	// Estado final: B e C ativos, ninguém na espera.
	var active, waitlisted int64
	storage.DB.Model(&models.Registration{}).
		Where("shift_id = ? AND status = ?", shiftID, models.StatusActive).Count(&active)
	storage.DB.Model(&models.Registration{}).
		Where("shift_id = ? AND status = ?", shiftID, models.StatusWaitlisted).Count(&waitlisted)
	assert.EqualValues(t, 2, active)
	assert.EqualValues(t, 0, waitlisted)
}

func TestSignupBeforeRelease(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	adminUser := models.User{Matricula: "admin", Name: "Admin", PasswordHash: "hash", Role: models.RoleAdmin}
	require.NoError(t, storage.DB.Create(&adminUser).Error)
	agent := createTestAgent(t, "1001")

	release := time.Now().Add(48 * time.Hour)
	res, body := doJSON(t, "POST", ts.URL+"/api/admin/shifts", map[string]interface{}{
		"event":        "Operação Carnaval",
		"service_date": time.Now().Add(96 * time.Hour).Format(time.RFC3339),
		"start_time":   "08:00",
		"end_time":     "14:00",
		"total_slots":  10,
		"payment":      350.0,
		"release_at":   release.Format(time.RFC3339),
	}, adminHeaders(adminUser.ID))
	require.Equal(t, http.StatusCreated, res.StatusCode)
	shiftID := int(body["id"].(float64))

	res, body = doJSON(t, "POST", fmt.Sprintf("%s/api/shifts/%d/signup", ts.URL, shiftID), nil, agentHeaders(agent.ID))
	require.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "NOT_YET_RELEASED", body["code"])

	var total int64
	storage.DB.Model(&models.Registration{}).Where("shift_id = ?", shiftID).Count(&total)
	assert.EqualValues(t, 0, total)
}

func TestWithdrawCancelKeepsSeat(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	adminUser := models.User{Matricula: "admin", Name: "Admin", PasswordHash: "hash", Role: models.RoleAdmin}
	require.NoError(t, storage.DB.Create(&adminUser).Error)
	agent := createTestAgent(t, "1001")

	res, body := doJSON(t, "POST", ts.URL+"/api/admin/shifts", map[string]interface{}{
		"event":        "Show na Arena",
		"service_date": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"start_time":   "20:00",
		"end_time":     "23:59",
		"total_slots":  1,
		"payment":      180.0,
	}, adminHeaders(adminUser.ID))
	require.Equal(t, http.StatusCreated, res.StatusCode)
	shiftID := int(body["id"].(float64))

	res, body = doJSON(t, "POST", fmt.Sprintf("%s/api/shifts/%d/signup", ts.URL, shiftID), nil, agentHeaders(agent.ID))
	require.Equal(t, http.StatusOK, res.StatusCode)
	regID := uint(body["registration_id"].(float64))

	res, _ = doJSON(t, "POST", fmt.Sprintf("%s/api/registrations/%d/withdraw", ts.URL, regID), nil, agentHeaders(agent.ID))
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = doJSON(t, "POST", fmt.Sprintf("%s/api/registrations/%d/withdraw/cancel", ts.URL, regID), nil, agentHeaders(agent.ID))
	require.Equal(t, http.StatusOK, res.StatusCode)

	var reg models.Registration
	require.NoError(t, storage.DB.First(&reg, regID).Error)
	assert.Equal(t, models.StatusActive, reg.Status)

	// Cancelar de novo é uma transição inválida.
	res, body = doJSON(t, "POST", fmt.Sprintf("%s/api/registrations/%d/withdraw/cancel", ts.URL, regID), nil, agentHeaders(agent.ID))
	require.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "INVALID_STATE_TRANSITION", body["code"])
}

func TestAdminRoutesForbiddenForAgents(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	agent := createTestAgent(t, "1001")

	res, body := doJSON(t, "POST", ts.URL+"/api/admin/shifts", map[string]interface{}{
		"event":        "Evento",
		"service_date": time.Now().Format(time.RFC3339),
		"start_time":   "08:00",
		"end_time":     "12:00",
		"total_slots":  5,
	}, agentHeaders(agent.ID))
	require.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["code"])
}

func TestDuplicateMatriculaAndRankReturnBusinessCodes(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	adminUser := models.User{Matricula: "admin", Name: "Admin", PasswordHash: "hash", Role: models.RoleAdmin}
	require.NoError(t, storage.DB.Create(&adminUser).Error)
	require.NoError(t, storage.DB.Create(&models.Rank{Name: "Soldado"}).Error)

	payload := map[string]interface{}{
		"matricula": "5001",
		"name":      "Agente Teste",
		"rank":      "Soldado",
		"unit":      "1º Pelotão",
		"password":  "senha123",
	}
	res, _ := doJSON(t, "POST", ts.URL+"/auth/register", payload, nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	// Matrícula repetida volta como erro de negócio, nunca como erro de banco.
	res, body := doJSON(t, "POST", ts.URL+"/auth/register", payload, nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "MATRICULA_EXISTS", body["code"])

	res, body = doJSON(t, "POST", ts.URL+"/api/admin/ranks",
		map[string]interface{}{"name": "Soldado"}, adminHeaders(adminUser.ID))
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "RANK_EXISTS", body["code"])
}

func TestReportsSummary(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	adminUser := models.User{Matricula: "admin", Name: "Admin", PasswordHash: "hash", Role: models.RoleAdmin}
	require.NoError(t, storage.DB.Create(&adminUser).Error)
	a := createTestAgent(t, "1001")
	b := createTestAgent(t, "1002")

	res, body := doJSON(t, "POST", ts.URL+"/api/admin/shifts", map[string]interface{}{
		"event":        "Desfile Cívico",
		"service_date": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"start_time":   "07:00",
		"end_time":     "12:00",
		"total_slots":  5,
		"payment":      150.0,
	}, adminHeaders(adminUser.ID))
	require.Equal(t, http.StatusCreated, res.StatusCode)
	shiftID := int(body["id"].(float64))
	signupURL := fmt.Sprintf("%s/api/shifts/%d/signup", ts.URL, shiftID)

	res, _ = doJSON(t, "POST", signupURL, nil, agentHeaders(a.ID))
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = doJSON(t, "POST", signupURL, nil, agentHeaders(b.ID))
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body = doJSON(t, "GET", ts.URL+"/api/admin/reports/summary", nil, adminHeaders(adminUser.ID))
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 2, body["confirmed_count"])
	assert.EqualValues(t, 300, body["total_value"])

	// Filtro por evento na listagem geral.
	res, _ = doJSON(t, "GET", ts.URL+"/api/admin/registrations?event=desfile", nil, adminHeaders(adminUser.ID))
	require.Equal(t, http.StatusOK, res.StatusCode)
}
