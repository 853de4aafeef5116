package bankapi

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/okojic12722rn/banka-provisioning/internal/application/provisioning"
	"github.com/okojic12722rn/banka-provisioning/internal/domain"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/entity"
	"github.com/okojic12722rn/banka-provisioning/pkg/catalog"
)

var _ provisioning.CompanyRegistrar = (*CompanyRegistrar)(nil)

const opCompanyCreate = "company.create"

// CompanyRegistrar crea empresas vía POST {BANKING_SERVICE_URL}/companies/.
type CompanyRegistrar struct {
	client *Client
}

// NewCompanyRegistrar construye el adaptador sobre el cliente del servicio bancario.
func NewCompanyRegistrar(client *Client) *CompanyRegistrar {
	return &CompanyRegistrar{client: client}
}

type companyRequest struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	VATNumber     string `json:"vatNumber"`
	CompanyNumber string `json:"companyNumber"`
	BAS           string `json:"bas"`
	OwnerID       string `json:"ownerId"`
}

type companyResponse struct {
	Data *idHolder `json:"data"`
}

// Create registra la empresa del dueño indicado en fields.OwnerID y devuelve su id.
func (r *CompanyRegistrar) Create(ctx context.Context, fields entity.CompanyFields) (string, error) {
	ownerID := strings.TrimSpace(fields.OwnerID)
	if ownerID == "" {
		return "", domain.NewValidationError("owner_id", "requerido")
	}
	if !catalog.IsValidActivityCode(fields.ActivityCode) {
		return "", domain.NewValidationError("activity_code", "no pertenece al catálogo")
	}

	req := companyRequest{
		Name:          nfc(fields.Name),
		Address:       nfc(fields.Address),
		VATNumber:     strings.TrimSpace(fields.TaxID),
		CompanyNumber: strings.TrimSpace(fields.RegistrationNumber),
		BAS:           catalog.Normalize(fields.ActivityCode),
		OwnerID:       ownerID,
	}

	raw, err := r.client.postJSON(ctx, opCompanyCreate, "/companies/", req)
	if err != nil {
		return "", err
	}
	var resp companyResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Data == nil || resp.Data.ID == "" {
		return "", &domain.MissingIdentifierError{Entity: "company"}
	}
	return string(resp.Data.ID), nil
}
