package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/catalogo-sync/internal/application/dto"
	"github.com/jhoicas/catalogo-sync/internal/application/usecase"
)

// RunHandler consulta la auditoría de ejecuciones.
type RunHandler struct {
	uc *usecase.SyncRunUseCase
}

// NewRunHandler construye el handler.
func NewRunHandler(uc *usecase.SyncRunUseCase) *RunHandler {
	return &RunHandler{uc: uc}
}

// List godoc
// @Summary      Listar ejecuciones
// @Tags         runs
// @Security     Bearer
// @Produce      json
// @Param        kind    query  string  false  "categories o prices"
// @Param        limit   query  int     false  "Límite"   default(20)
// @Param        offset  query  int     false  "Offset"   default(0)
// @Success      200     {object}  dto.SyncRunListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/sync/runs [get]
func (h *RunHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	out, err := h.uc.List(c.Context(), c.Query("kind"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener ejecución por ID
// @Tags         runs
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la ejecución"
// @Success      200  {object}  dto.SyncRunResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sync/runs/{id} [get]
func (h *RunHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Reporte PDF de una ejecución
// @Tags         runs
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la ejecución"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sync/runs/{id}/report [get]
func (h *RunHandler) Report(c *fiber.Ctx) error {
	id := c.Params("id")
	doc, err := h.uc.Report(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="sync-run-`+id+`.pdf"`)
	return c.Send(doc)
}
