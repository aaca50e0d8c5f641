package http

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/seu-usuario/pdv-fiscal/internal/application/dto"
	"github.com/seu-usuario/pdv-fiscal/internal/application/fiscal"
)

// CertificadoHandler trata o cadastro e a administração de certificados A1.
type CertificadoHandler struct {
	uc *fiscal.CertificadoUseCase
}

// NewCertificadoHandler constrói o handler.
func NewCertificadoHandler(uc *fiscal.CertificadoUseCase) *CertificadoHandler {
	return &CertificadoHandler{uc: uc}
}

// Enviar recebe o .pfx via multipart (campo "arquivo") com a senha e o alias
// nos campos de formulário.
// POST /api/certificados
func (h *CertificadoHandler) Enviar(c *fiber.Ctx) error {
	arquivo, err := c.FormFile("arquivo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "arquivo .pfx requerido"})
	}
	f, err := arquivo.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "arquivo ilegível"})
	}
	defer f.Close()
	dados, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "arquivo ilegível"})
	}

	senha := c.FormValue("senha")
	alias := c.FormValue("alias", arquivo.Filename)

	cert, err := h.uc.Enviar(c.Context(), alias, dados, senha)
	if err != nil {
		return responderErro(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NovoCertificadoResponse(cert, time.Now()))
}

// Listar devolve os certificados cadastrados.
// GET /api/certificados
func (h *CertificadoHandler) Listar(c *fiber.Ctx) error {
	certs, err := h.uc.Listar(c.Context())
	if err != nil {
		return responderErro(c, err)
	}
	agora := time.Now()
	out := make([]dto.CertificadoResponse, len(certs))
	for i, cert := range certs {
		out[i] = dto.NovoCertificadoResponse(cert, agora)
	}
	return c.JSON(out)
}

// DefinirPadrao troca o certificado padrão.
// PUT /api/certificados/:id/padrao
func (h *CertificadoHandler) DefinirPadrao(c *fiber.Ctx) error {
	if err := h.uc.DefinirPadrao(c.Context(), c.Params("id")); err != nil {
		return responderErro(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Excluir remove um certificado (o último é protegido).
// DELETE /api/certificados/:id
func (h *CertificadoHandler) Excluir(c *fiber.Ctx) error {
	if err := h.uc.Excluir(c.Context(), c.Params("id")); err != nil {
		return responderErro(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
