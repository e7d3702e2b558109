package models

import (
	"time"

	"gorm.io/gorm"
)

// Papéis de usuário no sistema.
const (
	RoleAgent = "agente"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Matricula          string `gorm:"uniqueIndex;not null"` // Número de matrícula (login do agente)
	Name               string `gorm:"not null"`
	Rank               string // Graduação (vazio para administradores)
	Unit               string // Lotação (vazio para administradores)
	PasswordHash       string `gorm:"not null"`
	Role               string `gorm:"not null;default:agente"`
	MustChangePassword bool   `gorm:"default:false"` // Força troca de senha no próximo login
}

type Shift struct {
	gorm.Model
	Event       string     `gorm:"not null"`       // Nome do evento
	ServiceDate time.Time  `gorm:"index;not null"` // Data do serviço
	StartTime   string     `gorm:"not null"`       // Hora de início, ex: "18:00"
	EndTime     string     `gorm:"not null"`       // Hora de término
	TotalSlots  int        `gorm:"not null"`       // Vagas totais (fixado na criação)
	Payment     float64    `gorm:"not null"`       // Valor pago pela escala (R$)
	ReleaseAt   *time.Time `gorm:"index"`          // Liberação: inscrições rejeitadas antes deste instante (nil = liberada)
}

// RegistrationStatus é o conjunto fechado de estados de uma inscrição.
type RegistrationStatus string

const (
	StatusActive              RegistrationStatus = "ACTIVE"
	StatusWaitlisted          RegistrationStatus = "WAITLISTED"
	StatusWithdrawalRequested RegistrationStatus = "WITHDRAWAL_REQUESTED"
)

type Registration struct {
	gorm.Model
	ShiftID uint               `gorm:"not null;uniqueIndex:idx_shift_agent"`
	Shift   Shift              `gorm:"foreignKey:ShiftID"`
	AgentID uint               `gorm:"not null;uniqueIndex:idx_shift_agent"`
	Agent   User               `gorm:"foreignKey:AgentID"`
	Status  RegistrationStatus `gorm:"not null"` // CreatedAt do gorm.Model é a chave de ordenação da lista de espera
}

type Rank struct {
	gorm.Model
	Name string `gorm:"uniqueIndex;not null"` // Nome do cargo/patente, ex: "Sargento"
}
