// Package provisioning implementa el asistente de alta de cuentas corrientes:
//
//	SelectingOwner → {CreatingCustomer | OwnerSelected} → (business: AwaitingCompany →
//	CreatingCompany → CompanySelected) → CreatingAccount → Completed
//
// con Failed alcanzable desde cualquier paso y Cancelled desde cualquier estado no terminal.
// Cada transición hace como máximo una llamada remota; las llamadas de un mismo flujo
// nunca se solapan. No hay rollback: un cliente o empresa creados antes de un fallo
// quedan persistidos en los servicios remotos.
package provisioning

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/okojic12722rn/banka-provisioning/internal/domain"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/entity"
)

// State estado del asistente.
type State string

const (
	StateSelectingOwner   State = "SELECTING_OWNER"
	StateCreatingCustomer State = "CREATING_CUSTOMER"
	StateOwnerSelected    State = "OWNER_SELECTED"
	StateAwaitingCompany  State = "AWAITING_COMPANY"
	StateCreatingCompany  State = "CREATING_COMPANY"
	StateCompanySelected  State = "COMPANY_SELECTED"
	StateCreatingAccount  State = "CREATING_ACCOUNT"
	StateCompleted        State = "COMPLETED"
	StateFailed           State = "FAILED"
	StateCancelled        State = "CANCELLED"
)

// Terminal indica si la ejecución actual terminó.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// InFlight indica que hay una llamada remota pendiente.
func (s State) InFlight() bool {
	return s == StateCreatingCustomer || s == StateCreatingCompany || s == StateCreatingAccount
}

// Selection selección en curso (WorkflowSelection). Se vacía al cancelar o al completar.
type Selection struct {
	OwnerID         string
	CompanyID       string
	StartingBalance string // tal como lo escribió el operador
	MakeCard        bool
}

// Result datos de la última ejecución completada.
type Result struct {
	OwnerID    string
	CompanyID  string
	AccountID  string
	Subtype    entity.AccountSubtype
	Currency   string
	Balance    decimal.Decimal
	CreateCard bool
}

// Snapshot vista de solo lectura del flujo.
type Snapshot struct {
	Category  entity.Category
	State     State
	Selection Selection
	Err       error
	// IDs creados en la ejecución actual. Si el flujo falla, quedan huérfanos.
	CreatedCustomerID string
	CreatedCompanyID  string
	Result            *Result
}

// Deps dependencias del flujo.
type Deps struct {
	Customers CustomerRegistrar
	Companies CompanyRegistrar
	Accounts  AccountProvisioner
	Currency  string // vacío = entity.DefaultCurrency
	Hooks     Hooks
}

// Workflow una instancia del asistente. Es seguro llamarlo desde varias goroutines:
// el mutex nunca se mantiene durante una llamada remota, así Cancel puede entrar
// mientras un paso está en curso.
type Workflow struct {
	category  entity.Category
	customers CustomerRegistrar
	companies CompanyRegistrar
	accounts  AccountProvisioner
	currency  string
	hooks     Hooks

	mu                sync.Mutex
	state             State
	sel               Selection
	generation        uint64 // se incrementa al cancelar o reabrir; descarta resultados tardíos
	pending           bool   // hay una llamada remota sin respuesta, aunque su ejecución ya se haya cancelado
	lastErr           error
	createdCustomerID string
	createdCompanyID  string
	result            *Result
}

// NewWorkflow construye un flujo en SelectingOwner para la categoría dada.
func NewWorkflow(category entity.Category, deps Deps) (*Workflow, error) {
	if !category.Valid() {
		return nil, domain.NewValidationError("category", "debe ser personal o business")
	}
	currency := deps.Currency
	if currency == "" {
		currency = entity.DefaultCurrency
	}
	w := &Workflow{
		category:  category,
		customers: deps.Customers,
		companies: deps.Companies,
		accounts:  deps.Accounts,
		currency:  currency,
		hooks:     deps.Hooks,
		state:     StateSelectingOwner,
	}
	w.sel = w.emptySelection()
	return w, nil
}

// Category categoría fija de esta instancia.
func (w *Workflow) Category() entity.Category { return w.category }

// Snapshot devuelve una copia del estado actual.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := Snapshot{
		Category:          w.category,
		State:             w.state,
		Selection:         w.sel,
		Err:               w.lastErr,
		CreatedCustomerID: w.createdCustomerID,
		CreatedCompanyID:  w.createdCompanyID,
	}
	if w.result != nil {
		r := *w.result
		snap.Result = &r
	}
	return snap
}

// SelectExistingOwner elige un cliente existente como dueño.
// Válido desde SelectingOwner (o desde Completed/Cancelled, que reabren el asistente).
func (w *Workflow) SelectExistingOwner(customerID string) error {
	var n notices
	w.mu.Lock()
	err := w.selectOwnerLocked(&n, strings.TrimSpace(customerID))
	w.mu.Unlock()
	n.fire(w.hooks)
	return err
}

func (w *Workflow) selectOwnerLocked(n *notices, customerID string) error {
	if err := w.checkOpenLocked(); err != nil {
		return err
	}
	w.reopenLocked(n)
	if w.state != StateSelectingOwner {
		return w.failLocked(n, domain.NewValidationError("state", "ya hay un dueño seleccionado"))
	}
	if customerID == "" {
		return w.failLocked(n, domain.NewValidationError("customer_id", "requerido"))
	}
	w.sel.OwnerID = customerID
	w.sel.CompanyID = ""
	w.setStateLocked(n, StateOwnerSelected)
	n.ownerResolved(customerID)
	return nil
}

// RequestNewCustomer crea un cliente nuevo y lo deja como dueño.
// En business pasa directo a AwaitingCompany; en personal, si ya hay saldo inicial
// cargado, continúa con la creación de la cuenta.
func (w *Workflow) RequestNewCustomer(ctx context.Context, fields entity.CustomerFields) error {
	var n notices
	w.mu.Lock()
	gen, err := w.beginCustomerLocked(&n)
	w.mu.Unlock()
	n.fire(w.hooks)
	if err != nil {
		return err
	}

	id, callErr := w.customers.Create(ctx, fields)

	n = nil
	w.mu.Lock()
	w.pending = false
	if w.generation != gen {
		w.mu.Unlock()
		return domain.ErrCancelled
	}
	if callErr != nil {
		err = w.failLocked(&n, callErr)
		w.mu.Unlock()
		n.fire(w.hooks)
		return err
	}
	w.createdCustomerID = id
	w.sel.OwnerID = id
	w.sel.CompanyID = ""
	w.setStateLocked(&n, StateOwnerSelected)
	n.ownerResolved(id)

	var acc *entity.Account
	switch {
	case w.category == entity.CategoryBusiness:
		w.setStateLocked(&n, StateAwaitingCompany)
	case strings.TrimSpace(w.sel.StartingBalance) != "":
		acc, err = w.beginAccountLocked(&n)
	}
	w.mu.Unlock()
	n.fire(w.hooks)
	if err != nil || acc == nil {
		return err
	}
	return w.finishAccount(ctx, acc, gen)
}

func (w *Workflow) beginCustomerLocked(n *notices) (uint64, error) {
	if err := w.checkOpenLocked(); err != nil {
		return 0, err
	}
	w.reopenLocked(n)
	if w.state != StateSelectingOwner {
		return 0, w.failLocked(n, domain.NewValidationError("state", "ya hay un dueño seleccionado"))
	}
	w.pending = true
	w.setStateLocked(n, StateCreatingCustomer)
	return w.generation, nil
}

// RequestNewCompany crea una empresa para el dueño seleccionado (solo business).
// fields.OwnerID se ignora: siempre se usa el dueño de la selección.
func (w *Workflow) RequestNewCompany(ctx context.Context, fields entity.CompanyFields) error {
	var n notices
	w.mu.Lock()
	gen, err := w.beginCompanyLocked(&n)
	if err == nil {
		fields.OwnerID = w.sel.OwnerID
	}
	w.mu.Unlock()
	n.fire(w.hooks)
	if err != nil {
		return err
	}

	id, callErr := w.companies.Create(ctx, fields)

	n = nil
	w.mu.Lock()
	w.pending = false
	if w.generation != gen {
		w.mu.Unlock()
		return domain.ErrCancelled
	}
	if callErr != nil {
		err = w.failLocked(&n, callErr)
		w.mu.Unlock()
		n.fire(w.hooks)
		return err
	}
	w.createdCompanyID = id
	w.sel.CompanyID = id
	w.setStateLocked(&n, StateCompanySelected)
	n.companyResolved(id)

	var acc *entity.Account
	if strings.TrimSpace(w.sel.StartingBalance) != "" {
		acc, err = w.beginAccountLocked(&n)
	}
	w.mu.Unlock()
	n.fire(w.hooks)
	if err != nil || acc == nil {
		return err
	}
	return w.finishAccount(ctx, acc, gen)
}

func (w *Workflow) beginCompanyLocked(n *notices) (uint64, error) {
	if err := w.checkContinuableLocked(); err != nil {
		return 0, err
	}
	if w.category != entity.CategoryBusiness {
		return 0, w.failLocked(n, domain.NewValidationError("category", "las cuentas personales no llevan empresa"))
	}
	if w.sel.OwnerID == "" {
		return 0, w.failLocked(n, domain.NewValidationError("owner_id", "no hay dueño seleccionado"))
	}
	switch w.state {
	case StateOwnerSelected, StateAwaitingCompany, StateCompanySelected:
	default:
		return 0, w.failLocked(n, domain.NewValidationError("state", "no se puede crear empresa en "+string(w.state)))
	}
	w.pending = true
	w.setStateLocked(n, StateCreatingCompany)
	return w.generation, nil
}

// Confirm valida el saldo inicial y crea la cuenta. En business la tarjeta se emite siempre.
func (w *Workflow) Confirm(ctx context.Context, startingBalance string, makeCard bool) error {
	var n notices
	w.mu.Lock()
	if err := w.checkContinuableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	w.sel.StartingBalance = startingBalance
	w.sel.MakeCard = makeCard || w.category == entity.CategoryBusiness
	gen := w.generation
	acc, err := w.beginAccountLocked(&n)
	w.mu.Unlock()
	n.fire(w.hooks)
	if err != nil {
		return err
	}
	return w.finishAccount(ctx, acc, gen)
}

// beginAccountLocked valida la selección, arma el payload y pasa a CreatingAccount.
// Cualquier error es local (ValidationError) y deja el flujo en Failed sin llamar a la red.
func (w *Workflow) beginAccountLocked(n *notices) (*entity.Account, error) {
	if w.sel.OwnerID == "" {
		return nil, w.failLocked(n, domain.NewValidationError("owner_id", "no hay dueño seleccionado"))
	}
	var companyID *string
	switch w.category {
	case entity.CategoryBusiness:
		if w.state != StateCompanySelected || w.sel.CompanyID == "" {
			return nil, w.failLocked(n, domain.NewValidationError("company_id", "debe seleccionar o crear una empresa"))
		}
		id := w.sel.CompanyID
		companyID = &id
	default:
		if w.state != StateOwnerSelected {
			return nil, w.failLocked(n, domain.NewValidationError("state", "no se puede confirmar en "+string(w.state)))
		}
	}
	balance, err := ParseStartingBalance(w.sel.StartingBalance)
	if err != nil {
		return nil, w.failLocked(n, err)
	}
	makeCard := w.sel.MakeCard || w.category == entity.CategoryBusiness
	acc := entity.NewCurrentAccount(w.sel.OwnerID, companyID, w.category.Subtype(), w.currency, balance, makeCard)
	w.pending = true
	w.setStateLocked(n, StateCreatingAccount)
	return acc, nil
}

func (w *Workflow) finishAccount(ctx context.Context, acc *entity.Account, gen uint64) error {
	id, callErr := w.accounts.Create(ctx, acc)

	var n notices
	w.mu.Lock()
	w.pending = false
	if w.generation != gen {
		w.mu.Unlock()
		return domain.ErrCancelled
	}
	if callErr != nil {
		err := w.failLocked(&n, callErr)
		w.mu.Unlock()
		n.fire(w.hooks)
		return err
	}
	companyID := ""
	if acc.CompanyID != nil {
		companyID = *acc.CompanyID
	}
	w.result = &Result{
		OwnerID:    acc.OwnerID,
		CompanyID:  companyID,
		AccountID:  id,
		Subtype:    acc.Subtype,
		Currency:   acc.Currency,
		Balance:    acc.Balance,
		CreateCard: acc.CreateCard,
	}
	w.sel = w.emptySelection()
	w.setStateLocked(&n, StateCompleted)
	n.completed(id)
	w.mu.Unlock()
	n.fire(w.hooks)
	return nil
}

// Cancel descarta la selección y pasa a Cancelled sin revertir nada remoto.
// Si hay un paso en curso, la llamada no se aborta: su resultado se ignora al llegar.
// En un estado terminal no hace nada.
func (w *Workflow) Cancel() {
	var n notices
	w.mu.Lock()
	if !w.state.Terminal() {
		w.generation++
		w.sel = w.emptySelection()
		w.setStateLocked(&n, StateCancelled)
	}
	w.mu.Unlock()
	n.fire(w.hooks)
}

// SetStartingBalance guarda el saldo inicial tal como lo escribió el operador.
// Se valida recién al confirmar.
func (w *Workflow) SetStartingBalance(input string) error {
	var n notices
	w.mu.Lock()
	err := w.checkOpenLocked()
	if err == nil {
		w.reopenLocked(&n)
		w.sel.StartingBalance = input
	}
	w.mu.Unlock()
	n.fire(w.hooks)
	return err
}

// SetMakeCard guarda la preferencia de tarjeta. En business queda siempre en true.
func (w *Workflow) SetMakeCard(makeCard bool) error {
	var n notices
	w.mu.Lock()
	err := w.checkOpenLocked()
	if err == nil {
		w.reopenLocked(&n)
		w.sel.MakeCard = makeCard || w.category == entity.CategoryBusiness
	}
	w.mu.Unlock()
	n.fire(w.hooks)
	return err
}

// ParseStartingBalance valida que el saldo sea un número no negativo.
func ParseStartingBalance(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, domain.NewValidationError("starting_balance", "requerido")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domain.NewValidationError("starting_balance", "no es un número válido")
	}
	if d.IsNegative() {
		return decimal.Zero, domain.NewValidationError("starting_balance", "no puede ser negativo")
	}
	return d, nil
}

// ── helpers (llamar con w.mu tomado) ──────────────────────────────────────────

func (w *Workflow) emptySelection() Selection {
	return Selection{MakeCard: w.category == entity.CategoryBusiness}
}

func (w *Workflow) setStateLocked(n *notices, to State) {
	n.transition(w.state, to)
	w.state = to
}

func (w *Workflow) failLocked(n *notices, err error) error {
	w.lastErr = err
	w.setStateLocked(n, StateFailed)
	n.failed(err)
	return err
}

// checkOpenLocked rechaza sin cambiar estado: paso en curso o flujo fallido.
// Un paso cancelado sigue en curso hasta que llega su respuesta.
func (w *Workflow) checkOpenLocked() error {
	if w.pending || w.state.InFlight() {
		return domain.ErrStepInFlight
	}
	if w.state == StateFailed {
		return domain.ErrWorkflowClosed
	}
	return nil
}

// checkContinuableLocked como checkOpenLocked, pero además la ejecución no debe haber terminado.
func (w *Workflow) checkContinuableLocked() error {
	if err := w.checkOpenLocked(); err != nil {
		return err
	}
	if w.state.Terminal() {
		return domain.ErrWorkflowClosed
	}
	return nil
}

// reopenLocked desde Completed o Cancelled arranca una ejecución nueva con la selección vacía.
func (w *Workflow) reopenLocked(n *notices) {
	if w.state != StateCompleted && w.state != StateCancelled {
		return
	}
	w.generation++
	w.sel = w.emptySelection()
	w.lastErr = nil
	w.createdCustomerID = ""
	w.createdCompanyID = ""
	w.result = nil
	w.setStateLocked(n, StateSelectingOwner)
}
