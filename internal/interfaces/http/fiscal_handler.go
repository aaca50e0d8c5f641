package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seu-usuario/pdv-fiscal/internal/application/dto"
	"github.com/seu-usuario/pdv-fiscal/internal/application/fiscal"
)

// FiscalHandler trata emissão, cancelamento e o probe de status da SEFAZ.
type FiscalHandler struct {
	emitir   *fiscal.EmitirNFCeUseCase
	cancelar *fiscal.CancelarNFCeUseCase
}

// NewFiscalHandler constrói o handler.
func NewFiscalHandler(emitir *fiscal.EmitirNFCeUseCase, cancelar *fiscal.CancelarNFCeUseCase) *FiscalHandler {
	return &FiscalHandler{emitir: emitir, cancelar: cancelar}
}

// Emitir autoriza a NFC-e da venda junto à SEFAZ.
// POST /api/vendas/:id/emitir
func (h *FiscalHandler) Emitir(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	venda, err := h.emitir.Emitir(c.Context(), id)
	if err != nil {
		return responderErro(c, err)
	}
	return c.JSON(dto.NovaVendaFiscalResponse(venda))
}

// Cancelar cancela uma NFC-e autorizada dentro da janela permitida.
// POST /api/vendas/:id/cancelar
func (h *FiscalHandler) Cancelar(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	var in dto.CancelarVendaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	venda, err := h.cancelar.Cancelar(c.Context(), id, in.Justificativa)
	if err != nil {
		return responderErro(c, err)
	}
	return c.JSON(dto.NovaVendaFiscalResponse(venda))
}

// StatusServico consulta a disponibilidade do autorizador (cStat 107).
// GET /api/sefaz/status
func (h *FiscalHandler) StatusServico(c *fiber.Ctx) error {
	ret, err := h.emitir.ConsultarStatusServico(c.Context())
	if err != nil {
		return responderErro(c, err)
	}
	return c.JSON(dto.StatusServicoResponse{Online: ret.Online, CStat: ret.CStat, XMotivo: ret.XMotivo})
}
