package entity

import "github.com/shopspring/decimal"

// Valores fijos con los que el flujo de alta crea cuentas corrientes.
const (
	AccountTypeCurrent  = "CURRENT"
	AccountStatusActive = "ACTIVE"
	DefaultCurrency     = "RSD"
)

// AccountSubtype clasificación de la cuenta corriente.
type AccountSubtype string

const (
	SubtypePersonal AccountSubtype = "PERSONAL"
	SubtypeBusiness AccountSubtype = "BUSINESS"
)

// Category categoría elegida en el asistente (personal | business).
type Category string

const (
	CategoryPersonal Category = "personal"
	CategoryBusiness Category = "business"
)

// Subtype devuelve el subtipo de cuenta que corresponde a la categoría.
func (c Category) Subtype() AccountSubtype {
	if c == CategoryBusiness {
		return SubtypeBusiness
	}
	return SubtypePersonal
}

// Valid indica si la categoría es conocida.
func (c Category) Valid() bool {
	return c == CategoryPersonal || c == CategoryBusiness
}

// Account cuenta corriente creada en el servicio bancario.
// CompanyID es nil en cuentas personales y obligatorio en cuentas de empresa.
type Account struct {
	ID           string
	OwnerID      string
	CompanyID    *string
	Currency     string
	Type         string
	Subtype      AccountSubtype
	DailyLimit   decimal.Decimal
	MonthlyLimit decimal.Decimal
	Status       string
	Balance      decimal.Decimal
	CreateCard   bool
}

// NewCurrentAccount arma el payload de una cuenta corriente con los valores por defecto del alta:
// límites en cero, estado ACTIVE y la moneda indicada.
func NewCurrentAccount(ownerID string, companyID *string, subtype AccountSubtype, currency string, balance decimal.Decimal, createCard bool) *Account {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Account{
		OwnerID:      ownerID,
		CompanyID:    companyID,
		Currency:     currency,
		Type:         AccountTypeCurrent,
		Subtype:      subtype,
		DailyLimit:   decimal.Zero,
		MonthlyLimit: decimal.Zero,
		Status:       AccountStatusActive,
		Balance:      balance,
		CreateCard:   createCard,
	}
}
