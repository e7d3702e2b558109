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
	"sgras/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Versão enxuta do servidor: sem Redis, cron e rota WebSocket. Útil para
// rodar o fluxo de inscrições sozinho em desenvolvimento.
//
// @Title						Sistema de escalas RAS
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

	// Os handlers de inscrição publicam no hub; sem o Run o envio bloqueia.
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

	r.GET("/ranks", handlers.ListRanksHandler)

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
	}

	if err := r.Run(":8080"); err != nil {
		log.Fatal("Erro ao iniciar o servidor...", err.Error())
	}
}
