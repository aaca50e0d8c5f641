package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seu-usuario/pdv-fiscal/internal/application/dto"
	"github.com/seu-usuario/pdv-fiscal/internal/application/fiscal"
)

// ConfigHandler trata a configuração fiscal da empresa.
type ConfigHandler struct {
	uc *fiscal.EmpresaConfigUseCase
}

// NewConfigHandler constrói o handler.
func NewConfigHandler(uc *fiscal.EmpresaConfigUseCase) *ConfigHandler {
	return &ConfigHandler{uc: uc}
}

// Obter devolve a configuração atual.
// GET /api/config
func (h *ConfigHandler) Obter(c *fiber.Ctx) error {
	cfg, err := h.uc.Obter(c.Context())
	if err != nil {
		return responderErro(c, err)
	}
	return c.JSON(dto.NovaEmpresaConfigResponse(cfg))
}

// Atualizar grava a configuração fiscal.
// PUT /api/config
func (h *ConfigHandler) Atualizar(c *fiber.Ctx) error {
	var in dto.EmpresaConfigRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	cfg, err := h.uc.Atualizar(c.Context(), in.ParaEntidade())
	if err != nil {
		return responderErro(c, err)
	}
	return c.JSON(dto.NovaEmpresaConfigResponse(cfg))
}
