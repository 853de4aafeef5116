package provisioning

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okojic12722rn/banka-provisioning/internal/domain"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/entity"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/repository"
	"github.com/okojic12722rn/banka-provisioning/pkg/logger"
)

// Stream y tipos de eventos de alta.
const (
	StreamProvisioning = "provisioning.events"

	EventOwnerResolved      = "provisioning.owner_resolved"
	EventCompanyResolved    = "provisioning.company_resolved"
	EventAccountProvisioned = "provisioning.account_provisioned"
	EventFailed             = "provisioning.failed"
	EventCancelled          = "provisioning.cancelled"
)

// Tipos de error para logs, métricas y diario.
const (
	ErrorKindValidation        = "validation"
	ErrorKindRemoteWrite       = "remote_write"
	ErrorKindMissingIdentifier = "missing_identifier"
	ErrorKindInternal          = "internal"
)

const observerTimeout = 3 * time.Second

// EventPublisher puerto de salida para publicar eventos (Redis Streams en producción).
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// MetricsRecorder puerto de salida para métricas del asistente.
type MetricsRecorder interface {
	ObserveTransition(category, from, to string)
	ObserveOutcome(category, outcome, errorKind string)
}

// Event cuerpo de los eventos publicados.
type Event struct {
	SessionID        string `json:"sessionId"`
	OperatorID       string `json:"operatorId"`
	Category         string `json:"category"`
	OwnerID          string `json:"ownerId,omitempty"`
	CompanyID        string `json:"companyId,omitempty"`
	AccountID        string `json:"accountId,omitempty"`
	Balance          string `json:"balance,omitempty"`
	CreateCard       bool   `json:"createCard,omitempty"`
	ErrorKind        string `json:"errorKind,omitempty"`
	Error            string `json:"error,omitempty"`
	OrphanCustomerID string `json:"orphanCustomerId,omitempty"`
	OrphanCompanyID  string `json:"orphanCompanyId,omitempty"`
}

// ErrorKind clasifica un error del flujo.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrValidation):
		return ErrorKindValidation
	case errors.Is(err, domain.ErrRemoteWrite):
		return ErrorKindRemoteWrite
	case errors.Is(err, domain.ErrMissingIdentifier):
		return ErrorKindMissingIdentifier
	default:
		return ErrorKindInternal
	}
}

// LoggingHooks registra cada transición y resultado de la sesión.
func LoggingHooks(log *logger.Logger) HookFactory {
	return func(s *Session) Hooks {
		l := log.With().Str("session_id", s.ID).Str("operator_id", s.OperatorID).Logger()
		return Hooks{
			OnTransition: func(from, to State) {
				sel := s.Workflow.Snapshot().Selection
				l.Debug().
					Str("from", string(from)).
					Str("state", string(to)).
					Str("owner_id", sel.OwnerID).
					Str("company_id", sel.CompanyID).
					Msg("transición")
			},
			OnOwnerResolved: func(id string) {
				l.Info().Str("owner_id", id).Msg("dueño seleccionado")
			},
			OnCompanyResolved: func(id string) {
				l.Info().Str("company_id", id).Msg("empresa creada")
			},
			OnCompleted: func(id string) {
				l.Info().Str("account_id", id).Msg("cuenta creada")
			},
			OnFailed: func(err error) {
				snap := s.Workflow.Snapshot()
				l.Warn().Err(err).
					Str("error_kind", ErrorKind(err)).
					Str("orphan_customer_id", snap.CreatedCustomerID).
					Str("orphan_company_id", snap.CreatedCompanyID).
					Msg("alta fallida")
			},
		}
	}
}

// MetricsHooks cuenta transiciones y resultados.
func MetricsHooks(rec MetricsRecorder) HookFactory {
	return func(s *Session) Hooks {
		category := string(s.Workflow.Category())
		return Hooks{
			OnTransition: func(from, to State) {
				rec.ObserveTransition(category, string(from), string(to))
				switch to {
				case StateCompleted:
					rec.ObserveOutcome(category, entity.OutcomeCompleted, "")
				case StateCancelled:
					rec.ObserveOutcome(category, entity.OutcomeCancelled, "")
				case StateFailed:
					rec.ObserveOutcome(category, entity.OutcomeFailed, ErrorKind(s.Workflow.Snapshot().Err))
				}
			},
		}
	}
}

// EventHooks publica un evento por cada cambio relevante. Un fallo al publicar
// se registra en el log y no afecta al flujo.
func EventHooks(pub EventPublisher, log *logger.Logger) HookFactory {
	return func(s *Session) Hooks {
		publish := func(eventType string, ev Event) {
			ctx, cancel := context.WithTimeout(context.Background(), observerTimeout)
			defer cancel()
			if err := pub.Publish(ctx, StreamProvisioning, eventType, ev); err != nil {
				log.Error().Err(err).Str("session_id", s.ID).Str("event", eventType).Msg("publicar evento")
			}
		}
		base := func() Event {
			return Event{SessionID: s.ID, OperatorID: s.OperatorID, Category: string(s.Workflow.Category())}
		}
		return Hooks{
			OnOwnerResolved: func(id string) {
				ev := base()
				ev.OwnerID = id
				publish(EventOwnerResolved, ev)
			},
			OnCompanyResolved: func(id string) {
				ev := base()
				ev.OwnerID = s.Workflow.Snapshot().Selection.OwnerID
				ev.CompanyID = id
				publish(EventCompanyResolved, ev)
			},
			OnCompleted: func(id string) {
				ev := base()
				if r := s.Workflow.Snapshot().Result; r != nil {
					ev.OwnerID = r.OwnerID
					ev.CompanyID = r.CompanyID
					ev.Balance = r.Balance.StringFixed(2)
					ev.CreateCard = r.CreateCard
				}
				ev.AccountID = id
				publish(EventAccountProvisioned, ev)
			},
			OnFailed: func(err error) {
				snap := s.Workflow.Snapshot()
				ev := base()
				ev.OwnerID = snap.Selection.OwnerID
				ev.CompanyID = snap.Selection.CompanyID
				ev.ErrorKind = ErrorKind(err)
				ev.Error = err.Error()
				ev.OrphanCustomerID = snap.CreatedCustomerID
				ev.OrphanCompanyID = snap.CreatedCompanyID
				publish(EventFailed, ev)
			},
			OnTransition: func(_, to State) {
				if to != StateCancelled {
					return
				}
				snap := s.Workflow.Snapshot()
				ev := base()
				ev.OrphanCustomerID = snap.CreatedCustomerID
				ev.OrphanCompanyID = snap.CreatedCompanyID
				publish(EventCancelled, ev)
			},
		}
	}
}

// JournalHooks escribe una fila en el diario de altas por cada ejecución terminada.
func JournalHooks(journal repository.ProvisioningJournal, log *logger.Logger) HookFactory {
	return func(s *Session) Hooks {
		return Hooks{
			OnTransition: func(_, to State) {
				var outcome string
				switch to {
				case StateCompleted:
					outcome = entity.OutcomeCompleted
				case StateFailed:
					outcome = entity.OutcomeFailed
				case StateCancelled:
					outcome = entity.OutcomeCancelled
				default:
					return
				}
				rec := NewRecord(s, outcome)
				ctx, cancel := context.WithTimeout(context.Background(), observerTimeout)
				defer cancel()
				if err := journal.Append(ctx, rec); err != nil {
					log.Error().Err(err).Str("session_id", s.ID).Str("outcome", outcome).Msg("diario de altas")
				}
			},
		}
	}
}

// NewRecord arma la fila del diario a partir del estado actual de la sesión.
func NewRecord(s *Session, outcome string) *entity.ProvisioningRecord {
	snap := s.Workflow.Snapshot()
	rec := &entity.ProvisioningRecord{
		ID:         uuid.New().String(),
		SessionID:  s.ID,
		OperatorID: s.OperatorID,
		Category:   snap.Category,
		Outcome:    outcome,
		CreatedAt:  time.Now().UTC(),
	}
	if outcome == entity.OutcomeCompleted && snap.Result != nil {
		rec.OwnerID = snap.Result.OwnerID
		rec.CompanyID = snap.Result.CompanyID
		rec.AccountID = snap.Result.AccountID
		rec.StartingBalance = snap.Result.Balance
		rec.CreateCard = snap.Result.CreateCard
		return rec
	}
	rec.OwnerID = snap.Selection.OwnerID
	rec.CompanyID = snap.Selection.CompanyID
	if rec.OwnerID == "" {
		rec.OwnerID = snap.CreatedCustomerID
	}
	if rec.CompanyID == "" {
		rec.CompanyID = snap.CreatedCompanyID
	}
	if d, err := decimal.NewFromString(snap.Selection.StartingBalance); err == nil {
		rec.StartingBalance = d
	}
	rec.CreateCard = snap.Selection.MakeCard
	rec.OrphanCustomer = snap.CreatedCustomerID != ""
	rec.OrphanCompany = snap.CreatedCompanyID != ""
	if snap.Err != nil {
		rec.ErrorKind = ErrorKind(snap.Err)
		rec.ErrorMessage = snap.Err.Error()
	}
	return rec
}
