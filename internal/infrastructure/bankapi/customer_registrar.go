package bankapi

import (
	"context"
	"encoding/json"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/okojic12722rn/banka-provisioning/internal/application/provisioning"
	"github.com/okojic12722rn/banka-provisioning/internal/domain"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/entity"
	"github.com/okojic12722rn/banka-provisioning/pkg/datefmt"
)

var _ provisioning.CustomerRegistrar = (*CustomerRegistrar)(nil)

const opCustomerCreate = "customer.create"

// CustomerRegistrar crea clientes vía POST {USER_SERVICE_URL}/customer.
type CustomerRegistrar struct {
	client *Client
}

// NewCustomerRegistrar construye el adaptador sobre el cliente del servicio de usuarios.
func NewCustomerRegistrar(client *Client) *CustomerRegistrar {
	return &CustomerRegistrar{client: client}
}

type customerRequest struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Username    string  `json:"username"`
	BirthDate   *string `json:"birthDate"`
	Gender      string  `json:"gender,omitempty"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phoneNumber"`
	Address     string  `json:"address"`
}

// El id viene en customer.id o en data.customer.id según la versión del servicio.
type customerResponse struct {
	Customer *idHolder `json:"customer"`
	Data     *struct {
		Customer *idHolder `json:"customer"`
	} `json:"data"`
}

func (r customerResponse) id() string {
	if r.Customer != nil && r.Customer.ID != "" {
		return string(r.Customer.ID)
	}
	if r.Data != nil && r.Data.Customer != nil {
		return string(r.Data.Customer.ID)
	}
	return ""
}

// Create registra el cliente y devuelve su id.
func (r *CustomerRegistrar) Create(ctx context.Context, fields entity.CustomerFields) (string, error) {
	birth, err := datefmt.ISOToAPI(fields.BirthDate)
	if err != nil {
		return "", domain.NewValidationError("birth_date", "debe tener formato yyyy-mm-dd")
	}
	if !entity.IsValidGender(fields.Gender) {
		return "", domain.NewValidationError("gender", "debe ser MALE, FEMALE u OTHER")
	}

	req := customerRequest{
		FirstName:   nfc(fields.FirstName),
		LastName:    nfc(fields.LastName),
		Username:    strings.TrimSpace(fields.Username),
		Gender:      fields.Gender,
		Email:       strings.TrimSpace(fields.Email),
		PhoneNumber: strings.TrimSpace(fields.PhoneNumber),
		Address:     nfc(fields.Address),
	}
	if birth != "" {
		req.BirthDate = &birth
	}

	raw, err := r.client.postJSON(ctx, opCustomerCreate, "/customer", req)
	if err != nil {
		return "", err
	}
	var resp customerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &domain.MissingIdentifierError{Entity: "customer"}
	}
	id := resp.id()
	if id == "" {
		return "", &domain.MissingIdentifierError{Entity: "customer"}
	}
	return id, nil
}

// nfc normaliza a Unicode NFC: "Petrović" tecleado con diacríticos combinados
// y precompuestos debe llegar igual al servicio.
func nfc(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
