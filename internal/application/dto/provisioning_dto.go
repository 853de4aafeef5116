package dto

import "time"

// StartSessionRequest body de POST /api/provisioning/sessions.
type StartSessionRequest struct {
	Category string `json:"category" validate:"required,oneof=personal business"`
}

// UpdateFormRequest body de PUT /api/provisioning/sessions/:id/form. Campos ausentes no se tocan.
type UpdateFormRequest struct {
	StartingBalance *string `json:"starting_balance"`
	MakeCard        *bool   `json:"make_card"`
}

// SelectOwnerRequest body de POST /api/provisioning/sessions/:id/owner.
type SelectOwnerRequest struct {
	CustomerID string `json:"customer_id" validate:"required,max=64"`
}

// CreateCustomerRequest body de POST /api/provisioning/sessions/:id/customer.
type CreateCustomerRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Username    string `json:"username" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"required,max=30"`
	Address     string `json:"address" validate:"required,max=200"`
	BirthDate   string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"` // yyyy-mm-dd
	Gender      string `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
}

// CreateCompanyRequest body de POST /api/provisioning/sessions/:id/company.
// El dueño no se envía: siempre es el dueño seleccionado en la sesión.
type CreateCompanyRequest struct {
	Name               string `json:"name" validate:"required,max=200"`
	RegistrationNumber string `json:"registration_number" validate:"required,max=20"`
	TaxID              string `json:"tax_id" validate:"required,max=20"`
	Address            string `json:"address" validate:"required,max=200"`
	ActivityCode       string `json:"activity_code" validate:"required,activity_code"`
}

// ConfirmRequest body de POST /api/provisioning/sessions/:id/confirm.
// starting_balance se valida en el flujo (un valor inválido deja la sesión en FAILED).
type ConfirmRequest struct {
	StartingBalance string `json:"starting_balance"`
	MakeCard        bool   `json:"make_card"`
}

// SelectionResponse selección en curso.
type SelectionResponse struct {
	OwnerID         string `json:"owner_id,omitempty"`
	CompanyID       string `json:"company_id,omitempty"`
	StartingBalance string `json:"starting_balance,omitempty"`
	MakeCard        bool   `json:"make_card"`
}

// ResultResponse cuenta creada en la última ejecución completada.
type ResultResponse struct {
	OwnerID    string `json:"owner_id"`
	CompanyID  string `json:"company_id,omitempty"`
	AccountID  string `json:"account_id,omitempty"`
	Subtype    string `json:"subtype"`
	Currency   string `json:"currency"`
	Balance    string `json:"balance"`
	CreateCard bool   `json:"create_card"`
}

// SessionResponse estado de una sesión del asistente.
type SessionResponse struct {
	SessionID        string            `json:"session_id"`
	Category         string            `json:"category"`
	State            string            `json:"state"`
	Selection        SelectionResponse `json:"selection"`
	Error            *ErrorResponse    `json:"error,omitempty"`
	OrphanCustomerID string            `json:"orphan_customer_id,omitempty"`
	OrphanCompanyID  string            `json:"orphan_company_id,omitempty"`
	Result           *ResultResponse   `json:"result,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// OrphanRecordResponse fila del diario con entidades sin cuenta.
type OrphanRecordResponse struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	OperatorID     string    `json:"operator_id"`
	Category       string    `json:"category"`
	Outcome        string    `json:"outcome"`
	OwnerID        string    `json:"owner_id,omitempty"`
	CompanyID      string    `json:"company_id,omitempty"`
	OrphanCustomer bool      `json:"orphan_customer"`
	OrphanCompany  bool      `json:"orphan_company"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrphanListResponse listado paginado de huérfanos.
type OrphanListResponse struct {
	Items []OrphanRecordResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}
