package storage

import (
	"log"

	"sgras/internal/models"

	"golang.org/x/crypto/bcrypt"
)

var defaultRanks = []string{
	"Guarda Municipal", "Subinspetor", "Inspetor", "Soldado", "Cabo",
	"Sargento", "Subtenente", "Tenente", "Capitão", "Major",
}

// SeedDefaults garante que exista ao menos um administrador e o catálogo
// inicial de cargos. Idempotente: roda a cada inicialização.
func SeedDefaults() {
	var count int64
	DB.Model(&models.Rank{}).Count(&count)
	if count == 0 {
		for _, name := range defaultRanks {
			if err := DB.Create(&models.Rank{Name: name}).Error; err != nil {
				log.Println("Erro ao popular cargo padrão:", name, err)
			}
		}
	}

	DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal("Erro ao gerar hash do admin padrão:", err)
		}
		admin := models.User{
			Matricula:          "admin",
			Name:               "Administrador",
			PasswordHash:       string(hash),
			Role:               models.RoleAdmin,
			MustChangePassword: true,
		}
		if err := DB.Create(&admin).Error; err != nil {
			log.Fatal("Erro ao criar admin padrão:", err)
		}
		log.Println("Admin padrão criado (admin / admin123) - troque a senha no primeiro acesso.")
	}
}
