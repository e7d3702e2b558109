package main

import (
	"fmt"
	"log"
	"os"

	_ "sgras/docs"
	"sgras/internal/auth"
	"sgras/internal/handlers"
	"sgras/internal/models"
	"sgras/internal/storage"
	"sgras/internal/tasks"
	"sgras/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @Title						Sistema de escalas RAS
// @Description				Inscrição em escalas de serviço com lista de espera e aprovação de desistências
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	key := os.Getenv("ENV_CHECK")
	if key == "" {
		fmt.Println("Carregando .env")
		if err := godotenv.Load(); err != nil {
			log.Fatal("Erro ao carregar o .env")
		}
	}

	storage.ConnectDatabase()

	if err := storage.DB.AutoMigrate(&models.User{}, &models.Rank{}, &models.Shift{}, &models.Registration{}); err != nil {
		log.Fatal("Erro na migração... ", err.Error())
	}

	storage.SeedDefaults()
	storage.InitRedis()

	tasks.InitScheduler()

	go ws.HubInstance.Run()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", handlers.Login)
		authGroup.POST("/register", handlers.Register)
		authGroup.POST("/refresh", handlers.RefreshToken)
		authGroup.POST("/password", auth.AuthMiddleware(), handlers.ChangePassword)
	}

	// Catálogo de cargos é público: a tela de cadastro precisa dele antes do login.
	r.GET("/ranks", handlers.ListRanksHandler)

	wsGroup := r.Group("/api/shifts")
	{
		wsGroup.GET("/:id/ws", ws.ShiftWebSocketHandler)
	}

	api := r.Group("/api", auth.AuthMiddleware())
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

		admin.GET("/withdrawals", handlers.ListPendingWithdrawalsHandler)
		admin.POST("/withdrawals/:id", handlers.ResolveWithdrawalHandler)

		admin.GET("/agents", handlers.ListAgentsHandler)
		admin.PUT("/agents/:id", handlers.UpdateAgentHandler)
		admin.POST("/agents/:id/reset-password", handlers.ResetAgentPasswordHandler)
		admin.DELETE("/agents/:id", handlers.DeleteAgentHandler)

		admin.POST("/ranks", handlers.CreateRankHandler)
		admin.DELETE("/ranks/:id", handlers.DeleteRankHandler)

		admin.GET("/reports/summary", handlers.ReportSummaryHandler)
		admin.GET("/registrations", handlers.ListRegistrationsReportHandler)
	}

	if err := r.Run(":8080"); err != nil {
		log.Fatal("Erro ao iniciar o servidor...", err.Error())
	}
}
