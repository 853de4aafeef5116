package bankapi

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/okojic12722rn/banka-provisioning/internal/application/provisioning"
	"github.com/okojic12722rn/banka-provisioning/internal/domain"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/entity"
)

var _ provisioning.AccountProvisioner = (*AccountProvisioner)(nil)

const opAccountCreate = "account.create"

// AccountProvisioner crea cuentas corrientes vía POST {BANKING_SERVICE_URL}/accounts/.
type AccountProvisioner struct {
	client *Client
}

// NewAccountProvisioner construye el adaptador sobre el cliente del servicio bancario.
func NewAccountProvisioner(client *Client) *AccountProvisioner {
	return &AccountProvisioner{client: client}
}

// Los montos viajan como número JSON (no como string, que es lo que haría decimal.Decimal).
type accountRequest struct {
	OwnerID      string      `json:"ownerID"`
	Currency     string      `json:"currency"`
	Type         string      `json:"type"`
	Subtype      string      `json:"subtype"`
	DailyLimit   json.Number `json:"dailyLimit"`
	MonthlyLimit json.Number `json:"monthlyLimit"`
	Status       string      `json:"status"`
	CreateCard   bool        `json:"createCard"`
	Balance      json.Number `json:"balance"`
	CompanyID    *string     `json:"companyID"`
}

type accountResponse struct {
	Data *struct {
		ID      remoteID  `json:"id"`
		Account *idHolder `json:"account"`
	} `json:"data"`
}

func (r accountResponse) id() string {
	if r.Data == nil {
		return ""
	}
	if r.Data.ID != "" {
		return string(r.Data.ID)
	}
	if r.Data.Account != nil {
		return string(r.Data.Account.ID)
	}
	return ""
}

// Create crea la cuenta. El id devuelto puede ser "" si el servicio no lo informa.
func (p *AccountProvisioner) Create(ctx context.Context, acc *entity.Account) (string, error) {
	if acc == nil || strings.TrimSpace(acc.OwnerID) == "" {
		return "", domain.NewValidationError("owner_id", "requerido")
	}
	hasCompany := acc.CompanyID != nil && strings.TrimSpace(*acc.CompanyID) != ""
	switch {
	case acc.Subtype == entity.SubtypeBusiness && !hasCompany:
		return "", domain.NewValidationError("company_id", "requerido en cuentas de empresa")
	case acc.Subtype != entity.SubtypeBusiness && acc.CompanyID != nil:
		return "", domain.NewValidationError("company_id", "las cuentas personales no llevan empresa")
	}
	if acc.Balance.IsNegative() {
		return "", domain.NewValidationError("starting_balance", "no puede ser negativo")
	}

	req := accountRequest{
		OwnerID:      acc.OwnerID,
		Currency:     acc.Currency,
		Type:         acc.Type,
		Subtype:      string(acc.Subtype),
		DailyLimit:   json.Number(acc.DailyLimit.String()),
		MonthlyLimit: json.Number(acc.MonthlyLimit.String()),
		Status:       acc.Status,
		CreateCard:   acc.CreateCard,
		Balance:      json.Number(acc.Balance.StringFixed(2)),
		CompanyID:    acc.CompanyID,
	}

	raw, err := p.client.postJSON(ctx, opAccountCreate, "/accounts/", req)
	if err != nil {
		return "", err
	}
	var resp accountResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", nil
	}
	return resp.id(), nil
}
