package provisioning

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okojic12722rn/banka-provisioning/internal/domain"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/entity"
)

// Receipt comprobante de apertura de una cuenta creada por el asistente.
type Receipt struct {
	SessionID  string
	OperatorID string
	Category   entity.Category
	OwnerID    string
	CompanyID  string
	AccountID  string
	Subtype    entity.AccountSubtype
	Currency   string
	Balance    decimal.Decimal
	CreateCard bool
	IssuedAt   time.Time
}

// ReceiptRenderer genera el documento (PDF) del comprobante.
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, r *Receipt) ([]byte, error)
}

// NewReceipt arma el comprobante de la última ejecución completada de la sesión.
func NewReceipt(s *Session, issuedAt time.Time) (*Receipt, error) {
	snap := s.Workflow.Snapshot()
	if snap.State != StateCompleted || snap.Result == nil {
		return nil, domain.NewValidationError("state", "la cuenta todavía no fue creada")
	}
	r := snap.Result
	return &Receipt{
		SessionID:  s.ID,
		OperatorID: s.OperatorID,
		Category:   snap.Category,
		OwnerID:    r.OwnerID,
		CompanyID:  r.CompanyID,
		AccountID:  r.AccountID,
		Subtype:    r.Subtype,
		Currency:   r.Currency,
		Balance:    r.Balance,
		CreateCard: r.CreateCard,
		IssuedAt:   issuedAt,
	}, nil
}
