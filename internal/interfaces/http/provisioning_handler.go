package http

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/okojic12722rn/banka-provisioning/internal/application/dto"
	"github.com/okojic12722rn/banka-provisioning/internal/application/provisioning"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/entity"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/repository"
	"github.com/okojic12722rn/banka-provisioning/internal/infrastructure/bankapi"
)

// ProvisioningHandler expone el asistente de alta de cuentas.
type ProvisioningHandler struct {
	sessions *provisioning.SessionManager
	receipts provisioning.ReceiptRenderer
	journal  repository.ProvisioningJournal // nil si no hay base de datos
	now      func() time.Time
}

// NewProvisioningHandler construye el handler. journal puede ser nil.
func NewProvisioningHandler(sessions *provisioning.SessionManager, receipts provisioning.ReceiptRenderer, journal repository.ProvisioningJournal) *ProvisioningHandler {
	return &ProvisioningHandler{sessions: sessions, receipts: receipts, journal: journal, now: time.Now}
}

// Start godoc
// @Summary      Abrir asistente de alta
// @Description  Crea una sesión del asistente para una cuenta personal o de empresa.
// @Tags         Provisioning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.StartSessionRequest  true  "Categoría"
// @Success      201   {object}  dto.SessionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/provisioning/sessions [post]
func (h *ProvisioningHandler) Start(c *fiber.Ctx) error {
	var in dto.StartSessionRequest
	if ok, err := parseAndValidate(c, &in); !ok {
		return err
	}
	s, err := h.sessions.Start(entity.Category(in.Category), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSessionResponse(s))
}

// Get godoc
// @Summary      Estado de la sesión
// @Tags         Provisioning
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de sesión"
// @Success      200  {object}  dto.SessionResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/provisioning/sessions/{id} [get]
func (h *ProvisioningHandler) Get(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSessionResponse(s))
}

// UpdateForm godoc
// @Summary      Actualizar saldo inicial y tarjeta
// @Description  Guarda los campos del formulario. El saldo se valida recién al confirmar.
// @Tags         Provisioning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "ID de sesión"
// @Param        body  body      dto.UpdateFormRequest  true  "Campos"
// @Success      200   {object}  dto.SessionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/provisioning/sessions/{id}/form [put]
func (h *ProvisioningHandler) UpdateForm(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateFormRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.StartingBalance != nil {
		if err := s.Workflow.SetStartingBalance(*in.StartingBalance); err != nil {
			return writeError(c, err)
		}
	}
	if in.MakeCard != nil {
		if err := s.Workflow.SetMakeCard(*in.MakeCard); err != nil {
			return writeError(c, err)
		}
	}
	return c.JSON(toSessionResponse(s))
}

// SelectOwner godoc
// @Summary      Elegir cliente existente
// @Tags         Provisioning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID de sesión"
// @Param        body  body      dto.SelectOwnerRequest  true  "Cliente"
// @Success      200   {object}  dto.SessionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/provisioning/sessions/{id}/owner [post]
func (h *ProvisioningHandler) SelectOwner(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.SelectOwnerRequest
	if ok, err := parseAndValidate(c, &in); !ok {
		return err
	}
	if err := s.Workflow.SelectExistingOwner(in.CustomerID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSessionResponse(s))
}

// CreateCustomer godoc
// @Summary      Registrar cliente nuevo como dueño
// @Description  Crea el cliente en el servicio de usuarios. Si falla, la sesión queda en FAILED.
// @Tags         Provisioning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true  "ID de sesión"
// @Param        body  body      dto.CreateCustomerRequest  true  "Datos del cliente"
// @Success      200   {object}  dto.SessionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/provisioning/sessions/{id}/customer [post]
func (h *ProvisioningHandler) CreateCustomer(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CreateCustomerRequest
	if ok, err := parseAndValidate(c, &in); !ok {
		return err
	}
	fields := entity.CustomerFields{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Username:    in.Username,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		Address:     in.Address,
		BirthDate:   in.BirthDate,
		Gender:      in.Gender,
	}
	if err := s.Workflow.RequestNewCustomer(remoteContext(c), fields); err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSessionResponse(s))
}

// CreateCompany godoc
// @Summary      Registrar empresa del dueño seleccionado
// @Tags         Provisioning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "ID de sesión"
// @Param        body  body      dto.CreateCompanyRequest  true  "Datos de la empresa"
// @Success      200   {object}  dto.SessionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/provisioning/sessions/{id}/company [post]
func (h *ProvisioningHandler) CreateCompany(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CreateCompanyRequest
	if ok, err := parseAndValidate(c, &in); !ok {
		return err
	}
	fields := entity.CompanyFields{
		Name:               in.Name,
		RegistrationNumber: in.RegistrationNumber,
		TaxID:              in.TaxID,
		Address:            in.Address,
		ActivityCode:       in.ActivityCode,
	}
	if err := s.Workflow.RequestNewCompany(remoteContext(c), fields); err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSessionResponse(s))
}

// Confirm godoc
// @Summary      Confirmar y crear la cuenta
// @Tags         Provisioning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "ID de sesión"
// @Param        body  body      dto.ConfirmRequest  true  "Saldo inicial y tarjeta"
// @Success      200   {object}  dto.SessionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/provisioning/sessions/{id}/confirm [post]
func (h *ProvisioningHandler) Confirm(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ConfirmRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := s.Workflow.Confirm(remoteContext(c), in.StartingBalance, in.MakeCard); err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSessionResponse(s))
}

// Cancel godoc
// @Summary      Cancelar el asistente
// @Description  Descarta la selección. Lo ya creado en los servicios remotos no se revierte.
// @Tags         Provisioning
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de sesión"
// @Success      200  {object}  dto.SessionResponse
// @Router       /api/provisioning/sessions/{id}/cancel [post]
func (h *ProvisioningHandler) Cancel(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	s.Workflow.Cancel()
	return c.JSON(toSessionResponse(s))
}

// Delete godoc
// @Summary      Cerrar la sesión
// @Tags         Provisioning
// @Security     Bearer
// @Param        id   path  string  true  "ID de sesión"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/provisioning/sessions/{id} [delete]
func (h *ProvisioningHandler) Delete(c *fiber.Ctx) error {
	if err := h.sessions.Remove(c.Params("id"), GetUserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Receipt godoc
// @Summary      Comprobante de apertura (PDF)
// @Tags         Provisioning
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path      string  true  "ID de sesión"
// @Success      200  {file}    binary
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/provisioning/sessions/{id}/receipt [get]
func (h *ProvisioningHandler) Receipt(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	r, err := provisioning.NewReceipt(s, h.now())
	if err != nil {
		return writeError(c, err)
	}
	pdf, err := h.receipts.RenderReceipt(c.UserContext(), r)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "PDF_ERROR", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="cuenta-`+r.AccountID+`.pdf"`)
	return c.Send(pdf)
}

// ListOrphans godoc
// @Summary      Altas fallidas con entidades huérfanas
// @Description  Clientes y empresas creados en ejecuciones que no llegaron a crear la cuenta.
// @Tags         Provisioning
// @Security     Bearer
// @Produce      json
// @Param        limit   query     int  false  "Límite (máx. 100)"
// @Param        offset  query     int  false  "Desplazamiento"
// @Success      200     {object}  dto.OrphanListResponse
// @Failure      403     {object}  dto.ErrorResponse
// @Failure      503     {object}  dto.ErrorResponse
// @Router       /api/provisioning/orphans [get]
func (h *ProvisioningHandler) ListOrphans(c *fiber.Ctx) error {
	if h.journal == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "JOURNAL_DISABLED", Message: "el diario de altas no está configurado"})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	page := dto.PageRequest{Limit: limit, Offset: offset}
	if details := validateRequest(page); details != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida", Details: details})
	}
	page.DefaultPage()
	recs, err := h.journal.ListOrphans(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := dto.OrphanListResponse{
		Items: make([]dto.OrphanRecordResponse, 0, len(recs)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, r := range recs {
		out.Items = append(out.Items, dto.OrphanRecordResponse{
			ID:             r.ID,
			SessionID:      r.SessionID,
			OperatorID:     r.OperatorID,
			Category:       string(r.Category),
			Outcome:        r.Outcome,
			OwnerID:        r.OwnerID,
			CompanyID:      r.CompanyID,
			OrphanCustomer: r.OrphanCustomer,
			OrphanCompany:  r.OrphanCompany,
			ErrorKind:      r.ErrorKind,
			ErrorMessage:   r.ErrorMessage,
			CreatedAt:      r.CreatedAt,
		})
	}
	return c.JSON(out)
}

func (h *ProvisioningHandler) session(c *fiber.Ctx) (*provisioning.Session, error) {
	return h.sessions.Get(c.Params("id"), GetUserID(c))
}

// remoteContext contexto para las llamadas remotas: reenvía el token del operador y el request id.
func remoteContext(c *fiber.Ctx) context.Context {
	ctx := bankapi.WithBearerToken(c.UserContext(), GetToken(c))
	if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
		ctx = bankapi.WithRequestID(ctx, id)
	}
	return ctx
}

func toSessionResponse(s *provisioning.Session) dto.SessionResponse {
	snap := s.Workflow.Snapshot()
	out := dto.SessionResponse{
		SessionID: s.ID,
		Category:  string(snap.Category),
		State:     string(snap.State),
		Selection: dto.SelectionResponse{
			OwnerID:         snap.Selection.OwnerID,
			CompanyID:       snap.Selection.CompanyID,
			StartingBalance: snap.Selection.StartingBalance,
			MakeCard:        snap.Selection.MakeCard,
		},
		CreatedAt: s.CreatedAt,
	}
	if snap.State == provisioning.StateFailed {
		out.Error = errorBody(snap.Err)
		out.OrphanCustomerID = snap.CreatedCustomerID
		out.OrphanCompanyID = snap.CreatedCompanyID
	}
	if r := snap.Result; r != nil {
		out.Result = &dto.ResultResponse{
			OwnerID:    r.OwnerID,
			CompanyID:  r.CompanyID,
			AccountID:  r.AccountID,
			Subtype:    string(r.Subtype),
			Currency:   r.Currency,
			Balance:    r.Balance.StringFixed(2),
			CreateCard: r.CreateCard,
		}
	}
	return out
}
