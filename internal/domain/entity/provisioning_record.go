package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Resultados finales de una ejecución del asistente.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// ProvisioningRecord fila del diario de altas: una por ejecución terminada.
// Si la ejecución falló después de crear cliente o empresa, esos IDs quedan
// registrados como huérfanos (no hay rollback compensatorio).
type ProvisioningRecord struct {
	ID              string
	SessionID       string
	OperatorID      string
	Category        Category
	Outcome         string
	OwnerID         string
	CompanyID       string
	AccountID       string
	StartingBalance decimal.Decimal
	CreateCard      bool
	ErrorKind       string
	ErrorMessage    string
	OrphanCustomer  bool
	OrphanCompany   bool
	CreatedAt       time.Time
}
