package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/okojic12722rn/banka-provisioning/internal/application/provisioning"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/repository"
	"github.com/okojic12722rn/banka-provisioning/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sessions  *provisioning.SessionManager
	Receipts  provisioning.ReceiptRenderer
	Journal   repository.ProvisioningJournal // opcional
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Todo requiere Bearer Token de un empleado del banco
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireRole(jwt.RoleEmployee, jwt.RoleAdmin))

	catalogHandler := NewCatalogHandler()
	protected.Get("/catalog/activity-codes", catalogHandler.ActivityCodes)

	h := NewProvisioningHandler(deps.Sessions, deps.Receipts, deps.Journal)
	prov := protected.Group("/provisioning")
	prov.Get("/orphans", RequireRole(jwt.RoleAdmin), h.ListOrphans)

	sessions := prov.Group("/sessions")
	sessions.Post("/", h.Start)
	sessions.Get("/:id", h.Get)
	sessions.Delete("/:id", h.Delete)
	sessions.Put("/:id/form", h.UpdateForm)
	sessions.Post("/:id/owner", h.SelectOwner)
	sessions.Post("/:id/customer", h.CreateCustomer)
	sessions.Post("/:id/company", h.CreateCompany)
	sessions.Post("/:id/confirm", h.Confirm)
	sessions.Post("/:id/cancel", h.Cancel)
	sessions.Get("/:id/receipt", h.Receipt)
}
