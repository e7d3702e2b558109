// Package roster implementa o motor de alocação de vagas: admissão com
// capacidade fixa, lista de espera e promoção FIFO quando uma vaga é liberada.
package roster

import (
	"errors"
	"sync"
	"time"

	"sgras/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrShiftNotFound        = errors.New("escala não encontrada")
	ErrRegistrationNotFound = errors.New("inscrição não encontrada")
	ErrNotYetReleased       = errors.New("inscrições ainda não liberadas para esta escala")
	ErrAlreadyRegistered    = errors.New("agente já inscrito nesta escala")
	ErrInvalidTransition    = errors.New("transição de status inválida")
)

// AdmissionStatus é o resultado de uma admissão bem-sucedida.
type AdmissionStatus string

const (
	Admitted   AdmissionStatus = "ADMITTED"
	Waitlisted AdmissionStatus = "WAITLISTED"
)

// PromotionResult informa se a aprovação de uma desistência promoveu alguém
// da lista de espera (o chamador usa o AgentID para notificação).
type PromotionResult struct {
	Promoted       bool
	RegistrationID uint
	AgentID        uint
}

// Um mutex por escala serializa leitura-de-ocupação + escrita dentro do
// processo. O lock de linha FOR UPDATE cobre múltiplas instâncias no Postgres.
var shiftLocks sync.Map

func lockShift(shiftID uint) func() {
	v, _ := shiftLocks.LoadOrStore(shiftID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// FOR UPDATE não existe no sqlite usado nos testes; lá o mutex por escala
// já garante a exclusão.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Admit inscreve o agente na escala. Na ordem: rejeita antes do horário de
// liberação, rejeita inscrição duplicada e por fim decide entre vaga ativa e
// lista de espera comparando a ocupação com o total de vagas. A contagem e a
// inserção acontecem na mesma transação, sob o lock da escala, para que a
// invariante ativos <= vagas_totais nunca seja violada por chamadas
// concorrentes.
func Admit(db *gorm.DB, agentID, shiftID uint, now time.Time) (AdmissionStatus, *models.Registration, error) {
	unlock := lockShift(shiftID)
	defer unlock()

	var status AdmissionStatus
	var reg models.Registration

	err := db.Transaction(func(tx *gorm.DB) error {
		var shift models.Shift
		if err := lockForUpdate(tx).First(&shift, shiftID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShiftNotFound
			}
			return err
		}

		if shift.ReleaseAt != nil && now.Before(*shift.ReleaseAt) {
			return ErrNotYetReleased
		}

		// Qualquer inscrição existente (independente do status) bloqueia uma
		// nova; o índice único (shift_id, agent_id) fecha a corrida entre a
		// checagem e o insert.
		var existing models.Registration
		err := tx.Where("shift_id = ? AND agent_id = ?", shiftID, agentID).First(&existing).Error
		if err == nil {
			return ErrAlreadyRegistered
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var active int64
		if err := tx.Model(&models.Registration{}).
			Where("shift_id = ? AND status = ?", shiftID, models.StatusActive).
			Count(&active).Error; err != nil {
			return err
		}

		reg = models.Registration{ShiftID: shiftID, AgentID: agentID}
		if active < int64(shift.TotalSlots) {
			reg.Status = models.StatusActive
			status = Admitted
		} else {
			reg.Status = models.StatusWaitlisted
			status = Waitlisted
		}
		if err := tx.Create(&reg).Error; err != nil {
			// O índice único (shift_id, agent_id) segura a corrida que a
			// checagem acima não viu.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return status, &reg, nil
}

// RequestWithdrawal marca uma inscrição ATIVA como pendente de saída,
// aguardando decisão do administrador. Qualquer outro status é erro explícito.
func RequestWithdrawal(db *gorm.DB, regID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		reg, err := loadRegistration(tx, regID)
		if err != nil {
			return err
		}
		if reg.Status != models.StatusActive {
			return ErrInvalidTransition
		}
		return tx.Model(reg).Update("status", models.StatusWithdrawalRequested).Error
	})
}

// CancelWithdrawal desfaz um pedido de saída ainda não decidido. A vaga nunca
// chegou a ser liberada, então não há efeito sobre a lista de espera.
func CancelWithdrawal(db *gorm.DB, regID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		reg, err := loadRegistration(tx, regID)
		if err != nil {
			return err
		}
		if reg.Status != models.StatusWithdrawalRequested {
			return ErrInvalidTransition
		}
		return tx.Model(reg).Update("status", models.StatusActive).Error
	})
}

// ResolveWithdrawal decide um pedido de saída. Negado: a inscrição volta a
// ATIVO. Aprovado: a inscrição é removida e a inscrição mais antiga da lista
// de espera (created_at, desempate por id) é promovida a ATIVO. A promoção só
// acontece depois da vaga confirmada, na mesma transação, sob o lock da
// escala - uma admissão concorrente não enxerga a vaga duas vezes.
func ResolveWithdrawal(db *gorm.DB, regID uint, approve bool) (PromotionResult, error) {
	var result PromotionResult

	var probe models.Registration
	if err := db.First(&probe, regID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result, ErrRegistrationNotFound
		}
		return result, err
	}

	unlock := lockShift(probe.ShiftID)
	defer unlock()

	err := db.Transaction(func(tx *gorm.DB) error {
		reg, err := loadRegistration(tx, regID)
		if err != nil {
			return err
		}
		if reg.Status != models.StatusWithdrawalRequested {
			return ErrInvalidTransition
		}

		if !approve {
			return tx.Model(reg).Update("status", models.StatusActive).Error
		}

		// Delete físico: a inscrição deixa de existir e o agente pode se
		// inscrever de novo no futuro.
		if err := tx.Unscoped().Delete(&models.Registration{}, reg.ID).Error; err != nil {
			return err
		}

		for {
			var next models.Registration
			err := lockForUpdate(tx).
				Where("shift_id = ? AND status = ?", reg.ShiftID, models.StatusWaitlisted).
				Order("created_at ASC, id ASC").
				First(&next).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Ninguém na espera: a vaga fica aberta para admissões futuras.
				return nil
			}
			if err != nil {
				return err
			}

			// A condição de status na atualização cobre a entrada que saiu da
			// espera entre a seleção e a escrita: zero linhas afetadas passa
			// para o próximo candidato em vez de promover um ausente.
			res := tx.Model(&models.Registration{}).
				Where("id = ? AND status = ?", next.ID, models.StatusWaitlisted).
				Update("status", models.StatusActive)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			result = PromotionResult{Promoted: true, RegistrationID: next.ID, AgentID: next.AgentID}
			return nil
		}
	})
	if err != nil {
		return PromotionResult{}, err
	}
	return result, nil
}

// LeaveWaitlist remove a própria inscrição em lista de espera. Não há
// promoção: nenhuma vaga ativa foi liberada. Roda sob o lock da escala para
// não disputar com uma promoção em andamento na mesma escala.
func LeaveWaitlist(db *gorm.DB, regID uint) error {
	var probe models.Registration
	if err := db.First(&probe, regID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRegistrationNotFound
		}
		return err
	}

	unlock := lockShift(probe.ShiftID)
	defer unlock()

	return db.Transaction(func(tx *gorm.DB) error {
		reg, err := loadRegistration(tx, regID)
		if err != nil {
			return err
		}
		if reg.Status != models.StatusWaitlisted {
			return ErrInvalidTransition
		}
		return tx.Unscoped().Delete(&models.Registration{}, reg.ID).Error
	})
}

func loadRegistration(tx *gorm.DB, regID uint) (*models.Registration, error) {
	var reg models.Registration
	if err := lockForUpdate(tx).First(&reg, regID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return &reg, nil
}
