package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/okojic12722rn/banka-provisioning/pkg/catalog"
)

// CatalogHandler expone los catálogos que usa el formulario de empresa.
type CatalogHandler struct{}

// NewCatalogHandler construye el handler.
func NewCatalogHandler() *CatalogHandler { return &CatalogHandler{} }

// ActivityCodes godoc
// @Summary      Códigos de actividad
// @Tags         Catalog
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  catalog.ActivityCode
// @Router       /api/catalog/activity-codes [get]
func (h *CatalogHandler) ActivityCodes(c *fiber.Ctx) error {
	return c.JSON(catalog.ActivityCodes())
}
