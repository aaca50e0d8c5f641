package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seu-usuario/pdv-fiscal/internal/application/dto"
	"github.com/seu-usuario/pdv-fiscal/internal/application/fiscal"
)

// InutilizacaoHandler trata as rotas de inutilização de faixa.
type InutilizacaoHandler struct {
	uc *fiscal.InutilizarUseCase
}

// NewInutilizacaoHandler constrói o handler.
func NewInutilizacaoHandler(uc *fiscal.InutilizarUseCase) *InutilizacaoHandler {
	return &InutilizacaoHandler{uc: uc}
}

// Criar registra um pedido de inutilização em "pendente".
// POST /api/inutilizacoes
func (h *InutilizacaoHandler) Criar(c *fiber.Ctx) error {
	var in dto.CriarInutilizacaoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	inut, err := h.uc.Criar(c.Context(), fiscal.CriarInutilizacaoInput{
		Serie:         in.Serie,
		NumeroInicial: in.NumeroInicial,
		NumeroFinal:   in.NumeroFinal,
		Justificativa: in.Justificativa,
	})
	if err != nil {
		return responderErro(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NovaInutilizacaoResponse(inut))
}

// Listar devolve todas as inutilizações.
// GET /api/inutilizacoes
func (h *InutilizacaoHandler) Listar(c *fiber.Ctx) error {
	lista, err := h.uc.Listar(c.Context())
	if err != nil {
		return responderErro(c, err)
	}
	out := make([]dto.InutilizacaoResponse, len(lista))
	for i, inut := range lista {
		out[i] = dto.NovaInutilizacaoResponse(inut)
	}
	return c.JSON(out)
}

// GetByID devolve um registro pelo ID.
// GET /api/inutilizacoes/:id
func (h *InutilizacaoHandler) GetByID(c *fiber.Ctx) error {
	inut, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return responderErro(c, err)
	}
	return c.JSON(dto.NovaInutilizacaoResponse(inut))
}

// Processar transmite (ou retransmite) o pedido à SEFAZ.
// POST /api/inutilizacoes/:id/processar
func (h *InutilizacaoHandler) Processar(c *fiber.Ctx) error {
	inut, err := h.uc.Processar(c.Context(), c.Params("id"))
	if err != nil {
		return responderErro(c, err)
	}
	return c.JSON(dto.NovaInutilizacaoResponse(inut))
}
