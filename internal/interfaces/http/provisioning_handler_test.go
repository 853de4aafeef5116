package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okojic12722rn/banka-provisioning/internal/application/dto"
	"github.com/okojic12722rn/banka-provisioning/internal/application/provisioning"
	"github.com/okojic12722rn/banka-provisioning/internal/domain"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/entity"
	"github.com/okojic12722rn/banka-provisioning/internal/infrastructure/bankapi"
	apphttp "github.com/okojic12722rn/banka-provisioning/internal/interfaces/http"
	pkgjwt "github.com/okojic12722rn/banka-provisioning/pkg/jwt"
)

// ── fakes ─────────────────────────────────────────────────────────────────────

type stubRegistrar struct {
	mu       sync.Mutex
	id       string
	err      error
	calls    int
	accounts []*entity.Account
}

func (s *stubRegistrar) record() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.id, s.err
}

type stubCustomers struct{ stubRegistrar }

func (s *stubCustomers) Create(_ context.Context, _ entity.CustomerFields) (string, error) {
	return s.record()
}

type stubCompanies struct {
	stubRegistrar
	last entity.CompanyFields
}

func (s *stubCompanies) Create(_ context.Context, f entity.CompanyFields) (string, error) {
	s.mu.Lock()
	s.last = f
	s.mu.Unlock()
	return s.record()
}

type stubAccounts struct{ stubRegistrar }

func (s *stubAccounts) Create(_ context.Context, acc *entity.Account) (string, error) {
	s.mu.Lock()
	s.accounts = append(s.accounts, acc)
	s.mu.Unlock()
	return s.record()
}

type stubRenderer struct{}

func (stubRenderer) RenderReceipt(_ context.Context, r *provisioning.Receipt) ([]byte, error) {
	return []byte("%PDF-1.3 " + r.AccountID), nil
}

type stubJournal struct {
	orphans []*entity.ProvisioningRecord
	limit   int
	offset  int
}

func (j *stubJournal) Append(context.Context, *entity.ProvisioningRecord) error { return nil }

func (j *stubJournal) ListOrphans(_ context.Context, limit, offset int) ([]*entity.ProvisioningRecord, error) {
	j.limit, j.offset = limit, offset
	return j.orphans, nil
}

// ── harness ───────────────────────────────────────────────────────────────────

type harness struct {
	app       *fiber.App
	customers *stubCustomers
	companies *stubCompanies
	accounts  *stubAccounts
	journal   *stubJournal
	token     string
}

func newHarness(t *testing.T, withJournal bool) *harness {
	t.Helper()
	h := &harness{
		customers: &stubCustomers{stubRegistrar{id: "CU1"}},
		companies: &stubCompanies{stubRegistrar: stubRegistrar{id: "CO1"}},
		accounts:  &stubAccounts{stubRegistrar{id: "AC1"}},
		token:     tokenFor(t, "op-1", pkgjwt.RoleEmployee),
	}
	sessions := provisioning.NewSessionManager(provisioning.Deps{
		Customers: h.customers,
		Companies: h.companies,
		Accounts:  h.accounts,
	})
	deps := apphttp.RouterDeps{
		Sessions:  sessions,
		Receipts:  stubRenderer{},
		JWTSecret: testJWTSecret,
	}
	if withJournal {
		h.journal = &stubJournal{}
		deps.Journal = h.journal
	}
	h.app = fiber.New()
	apphttp.Router(h.app, deps)
	return h
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (h *harness) start(t *testing.T, category string) string {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/api/provisioning/sessions", h.token, dto.StartSessionRequest{Category: category})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	s := decode[dto.SessionResponse](t, resp)
	require.Equal(t, string(provisioning.StateSelectingOwner), s.State)
	return s.SessionID
}

func sessionPath(id, suffix string) string {
	return "/api/provisioning/sessions/" + id + suffix
}

func customerBody() dto.CreateCustomerRequest {
	return dto.CreateCustomerRequest{
		FirstName:   "Ana",
		LastName:    "Petrović",
		Username:    "ana.p",
		Email:       "ana@example.com",
		PhoneNumber: "+381601234567",
		Address:     "Bulevar 1",
		BirthDate:   "1990-04-12",
		Gender:      "FEMALE",
	}
}

func companyBody() dto.CreateCompanyRequest {
	return dto.CreateCompanyRequest{
		Name:               "Ana DOO",
		RegistrationNumber: "12345678",
		TaxID:              "100200300",
		Address:            "Knez Mihailova 5",
		ActivityCode:       "62.01",
	}
}

// ── tests ─────────────────────────────────────────────────────────────────────

func TestProvisioning_FlujoPersonalConClienteExistente(t *testing.T) {
	h := newHarness(t, false)
	id := h.start(t, "personal")

	resp := h.do(t, http.MethodPost, sessionPath(id, "/owner"), h.token, dto.SelectOwnerRequest{CustomerID: "CU9"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decode[dto.SessionResponse](t, resp)
	assert.Equal(t, string(provisioning.StateOwnerSelected), s.State)
	assert.Equal(t, "CU9", s.Selection.OwnerID)

	resp = h.do(t, http.MethodPost, sessionPath(id, "/confirm"), h.token, dto.ConfirmRequest{StartingBalance: "1500.5", MakeCard: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s = decode[dto.SessionResponse](t, resp)
	assert.Equal(t, string(provisioning.StateCompleted), s.State)
	require.NotNil(t, s.Result)
	assert.Equal(t, "AC1", s.Result.AccountID)
	assert.Equal(t, "CU9", s.Result.OwnerID)
	assert.Equal(t, "1500.50", s.Result.Balance)
	assert.Equal(t, string(entity.SubtypePersonal), s.Result.Subtype)
	assert.True(t, s.Result.CreateCard)
	assert.Empty(t, s.Selection.OwnerID, "la selección se vacía al completar")

	require.Len(t, h.accounts.accounts, 1)
	assert.Nil(t, h.accounts.accounts[0].CompanyID)
	assert.Equal(t, 0, h.customers.calls)
}

func TestProvisioning_FlujoEmpresaCompleto(t *testing.T) {
	h := newHarness(t, false)
	id := h.start(t, "business")

	resp := h.do(t, http.MethodPost, sessionPath(id, "/customer"), h.token, customerBody())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decode[dto.SessionResponse](t, resp)
	assert.Equal(t, string(provisioning.StateAwaitingCompany), s.State)
	assert.Equal(t, "CU1", s.Selection.OwnerID)

	resp = h.do(t, http.MethodPost, sessionPath(id, "/company"), h.token, companyBody())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s = decode[dto.SessionResponse](t, resp)
	assert.Equal(t, string(provisioning.StateCompanySelected), s.State)
	assert.Equal(t, "CO1", s.Selection.CompanyID)
	assert.Equal(t, "CU1", h.companies.last.OwnerID, "la empresa se registra a nombre del dueño seleccionado")

	resp = h.do(t, http.MethodPost, sessionPath(id, "/confirm"), h.token, dto.ConfirmRequest{StartingBalance: "0"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s = decode[dto.SessionResponse](t, resp)
	assert.Equal(t, string(provisioning.StateCompleted), s.State)
	require.NotNil(t, s.Result)
	assert.Equal(t, "CO1", s.Result.CompanyID)
	assert.True(t, s.Result.CreateCard, "las cuentas de empresa siempre llevan tarjeta")
	assert.Equal(t, string(entity.SubtypeBusiness), s.Result.Subtype)
}

func TestProvisioning_ReenviaTokenDelOperador(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"customer":{"id":"CU5"}}`))
	}))
	defer srv.Close()

	client := bankapi.NewClient(srv.URL, 2*time.Second, nil)
	sessions := provisioning.NewSessionManager(provisioning.Deps{
		Customers: bankapi.NewCustomerRegistrar(client),
		Companies: &stubCompanies{},
		Accounts:  &stubAccounts{},
	})
	app := fiber.New()
	app.Use(requestid.New())
	apphttp.Router(app, apphttp.RouterDeps{Sessions: sessions, Receipts: stubRenderer{}, JWTSecret: testJWTSecret})
	h := &harness{app: app, token: tokenFor(t, "op-1", pkgjwt.RoleEmployee)}

	id := h.start(t, "personal")
	req := httptest.NewRequest(http.MethodPost, sessionPath(id, "/customer"), bytes.NewReader(mustJSON(t, customerBody())))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", h.token)
	req.Header.Set(fiber.HeaderXRequestID, "req-42")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decode[dto.SessionResponse](t, resp)
	assert.Equal(t, "CU5", s.Selection.OwnerID)

	assert.Equal(t, h.token, gotAuth)
	assert.Equal(t, "req-42", gotRequestID)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestProvisioning_FormularioAutoConfirmaAlCrearCliente(t *testing.T) {
	h := newHarness(t, false)
	id := h.start(t, "personal")

	balance := "250"
	card := true
	resp := h.do(t, http.MethodPut, sessionPath(id, "/form"), h.token, dto.UpdateFormRequest{StartingBalance: &balance, MakeCard: &card})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decode[dto.SessionResponse](t, resp)
	assert.Equal(t, "250", s.Selection.StartingBalance)
	assert.True(t, s.Selection.MakeCard)

	resp = h.do(t, http.MethodPost, sessionPath(id, "/customer"), h.token, customerBody())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s = decode[dto.SessionResponse](t, resp)
	assert.Equal(t, string(provisioning.StateCompleted), s.State)
	require.NotNil(t, s.Result)
	assert.Equal(t, "250.00", s.Result.Balance)
}

func TestProvisioning_ValidacionDeEntrada(t *testing.T) {
	h := newHarness(t, false)

	resp := h.do(t, http.MethodPost, "/api/provisioning/sessions", h.token, dto.StartSessionRequest{Category: "savings"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", errResp.Code)
	assert.Contains(t, errResp.Details, "category")

	id := h.start(t, "business")
	bad := customerBody()
	bad.Email = "no-es-email"
	bad.BirthDate = "12-04-1990"
	resp = h.do(t, http.MethodPost, sessionPath(id, "/customer"), h.token, bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp = decode[dto.ErrorResponse](t, resp)
	assert.Contains(t, errResp.Details, "email")
	assert.Contains(t, errResp.Details, "birth_date")
	assert.Equal(t, 0, h.customers.calls, "una entrada inválida no llega a la red")

	resp = h.do(t, http.MethodPost, sessionPath(id, "/owner"), h.token, dto.SelectOwnerRequest{CustomerID: "CU9"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	badCompany := companyBody()
	badCompany.ActivityCode = "99.99"
	resp = h.do(t, http.MethodPost, sessionPath(id, "/company"), h.token, badCompany)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp = decode[dto.ErrorResponse](t, resp)
	assert.Contains(t, errResp.Details, "activity_code")
	assert.Equal(t, 0, h.companies.calls)
}

func TestProvisioning_CuerpoInvalido(t *testing.T) {
	h := newHarness(t, false)
	id := h.start(t, "personal")

	req := httptest.NewRequest(http.MethodPost, sessionPath(id, "/owner"), bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", h.token)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INVALID_BODY", errResp.Code)
}

func TestProvisioning_FalloRemotoDejaHuerfano(t *testing.T) {
	h := newHarness(t, false)
	h.companies.err = &domain.RemoteWriteError{Op: "company.create", StatusCode: 500, Message: "boom"}
	id := h.start(t, "business")

	resp := h.do(t, http.MethodPost, sessionPath(id, "/customer"), h.token, customerBody())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.do(t, http.MethodPost, sessionPath(id, "/company"), h.token, companyBody())
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "REMOTE_WRITE", errResp.Code)
	assert.Contains(t, errResp.Message, "boom")

	resp = h.do(t, http.MethodGet, sessionPath(id, ""), h.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decode[dto.SessionResponse](t, resp)
	assert.Equal(t, string(provisioning.StateFailed), s.State)
	require.NotNil(t, s.Error)
	assert.Equal(t, "REMOTE_WRITE", s.Error.Code)
	assert.Equal(t, "CU1", s.OrphanCustomerID)
	assert.Empty(t, s.OrphanCompanyID)

	// Failed es final para esta sesión.
	resp = h.do(t, http.MethodPost, sessionPath(id, "/confirm"), h.token, dto.ConfirmRequest{StartingBalance: "10"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errResp = decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "WORKFLOW_CLOSED", errResp.Code)
}

func TestProvisioning_IdentificadorFaltante(t *testing.T) {
	h := newHarness(t, false)
	h.customers.err = &domain.MissingIdentifierError{Entity: "customer"}
	id := h.start(t, "personal")

	resp := h.do(t, http.MethodPost, sessionPath(id, "/customer"), h.token, customerBody())
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "MISSING_IDENTIFIER", errResp.Code)
}

func TestProvisioning_SaldoInvalidoFallaSinLlamarALaRed(t *testing.T) {
	h := newHarness(t, false)
	id := h.start(t, "personal")

	resp := h.do(t, http.MethodPost, sessionPath(id, "/owner"), h.token, dto.SelectOwnerRequest{CustomerID: "CU9"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.do(t, http.MethodPost, sessionPath(id, "/confirm"), h.token, dto.ConfirmRequest{StartingBalance: "-5"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", errResp.Code)
	assert.Contains(t, errResp.Details, "starting_balance")
	assert.Equal(t, 0, h.accounts.calls)
}

func TestProvisioning_CancelarYReabrir(t *testing.T) {
	h := newHarness(t, false)
	id := h.start(t, "business")

	resp := h.do(t, http.MethodPost, sessionPath(id, "/owner"), h.token, dto.SelectOwnerRequest{CustomerID: "CU9"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.do(t, http.MethodPost, sessionPath(id, "/cancel"), h.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decode[dto.SessionResponse](t, resp)
	assert.Equal(t, string(provisioning.StateCancelled), s.State)
	assert.Empty(t, s.Selection.OwnerID)

	// Confirmar sobre una ejecución cancelada se rechaza.
	resp = h.do(t, http.MethodPost, sessionPath(id, "/confirm"), h.token, dto.ConfirmRequest{StartingBalance: "1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Elegir dueño arranca una ejecución nueva.
	resp = h.do(t, http.MethodPost, sessionPath(id, "/owner"), h.token, dto.SelectOwnerRequest{CustomerID: "CU7"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s = decode[dto.SessionResponse](t, resp)
	assert.Equal(t, string(provisioning.StateOwnerSelected), s.State)
	assert.Equal(t, "CU7", s.Selection.OwnerID)
}

func TestProvisioning_SesionesPorOperador(t *testing.T) {
	h := newHarness(t, false)
	id := h.start(t, "personal")

	other := tokenFor(t, "op-2", pkgjwt.RoleEmployee)
	resp := h.do(t, http.MethodGet, sessionPath(id, ""), other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = h.do(t, http.MethodGet, sessionPath("no-existe", ""), h.token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "NOT_FOUND", errResp.Code)

	resp = h.do(t, http.MethodGet, sessionPath(id, ""), tokenFor(t, "cli-1", pkgjwt.RoleClient), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = h.do(t, http.MethodGet, sessionPath(id, ""), "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestProvisioning_EliminarSesion(t *testing.T) {
	h := newHarness(t, false)
	id := h.start(t, "personal")

	resp := h.do(t, http.MethodDelete, sessionPath(id, ""), h.token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = h.do(t, http.MethodGet, sessionPath(id, ""), h.token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestProvisioning_Comprobante(t *testing.T) {
	h := newHarness(t, false)
	id := h.start(t, "personal")

	resp := h.do(t, http.MethodGet, sessionPath(id, "/receipt"), h.token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "sin cuenta creada no hay comprobante")
	resp.Body.Close()

	resp = h.do(t, http.MethodPost, sessionPath(id, "/owner"), h.token, dto.SelectOwnerRequest{CustomerID: "CU9"})
	resp.Body.Close()
	resp = h.do(t, http.MethodPost, sessionPath(id, "/confirm"), h.token, dto.ConfirmRequest{StartingBalance: "10"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.do(t, http.MethodGet, sessionPath(id, "/receipt"), h.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "cuenta-AC1.pdf")
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "%PDF-1.3 AC1", string(body))
}

func TestProvisioning_Huerfanos(t *testing.T) {
	t.Run("solo admin", func(t *testing.T) {
		h := newHarness(t, true)
		resp := h.do(t, http.MethodGet, "/api/provisioning/orphans", h.token, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("listado", func(t *testing.T) {
		h := newHarness(t, true)
		h.journal.orphans = []*entity.ProvisioningRecord{{
			ID:             "J1",
			SessionID:      "S1",
			OperatorID:     "op-1",
			Category:       entity.CategoryBusiness,
			Outcome:        entity.OutcomeFailed,
			OwnerID:        "CU1",
			OrphanCustomer: true,
			ErrorKind:      provisioning.ErrorKindRemoteWrite,
			CreatedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		}}
		admin := tokenFor(t, "adm-1", pkgjwt.RoleAdmin)
		resp := h.do(t, http.MethodGet, "/api/provisioning/orphans?limit=5&offset=10", admin, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		out := decode[dto.OrphanListResponse](t, resp)
		require.Len(t, out.Items, 1)
		assert.Equal(t, "CU1", out.Items[0].OwnerID)
		assert.True(t, out.Items[0].OrphanCustomer)
		assert.Equal(t, 5, out.Page.Limit)
		assert.Equal(t, 10, h.journal.offset)
	})

	t.Run("limite fuera de rango", func(t *testing.T) {
		h := newHarness(t, true)
		admin := tokenFor(t, "adm-1", pkgjwt.RoleAdmin)
		resp := h.do(t, http.MethodGet, "/api/provisioning/orphans?limit=500", admin, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("sin diario", func(t *testing.T) {
		h := newHarness(t, false)
		admin := tokenFor(t, "adm-1", pkgjwt.RoleAdmin)
		resp := h.do(t, http.MethodGet, "/api/provisioning/orphans", admin, nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestCatalog_ActivityCodes(t *testing.T) {
	h := newHarness(t, false)
	resp := h.do(t, http.MethodGet, "/api/catalog/activity-codes", h.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	codes := decode[[]map[string]string](t, resp)
	require.NotEmpty(t, codes)
	found := false
	for _, c := range codes {
		if c["code"] == "62.01" {
			found = true
		}
	}
	assert.True(t, found)
}
