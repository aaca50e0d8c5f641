package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/seu-usuario/pdv-fiscal/internal/application/dto"
	"github.com/seu-usuario/pdv-fiscal/internal/domain"
)

// responderErro traduz erros de domínio para o par status/corpo HTTP.
// Rejeição da SEFAZ vira 422 com o cStat no código; falha de transporte, 502.
func responderErro(c *fiber.Ctx, err error) error {
	var rejeicao *domain.RejeicaoSefaz
	if errors.As(err, &rejeicao) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code: "SEFAZ_" + rejeicao.Codigo, Message: rejeicao.Motivo,
		})
	}
	var transporte *domain.ErroTransporte
	if errors.As(err, &transporte) {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Code: "SEFAZ_INDISPONIVEL", Message: transporte.Error(),
		})
	}

	switch {
	case errors.Is(err, domain.ErrNaoEncontrado):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrEntradaInvalida):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrConflito),
		errors.Is(err, domain.ErrEstadoInvalido),
		errors.Is(err, domain.ErrFaixaSobreposta),
		errors.Is(err, domain.ErrCancelamentoNaoPermitido),
		errors.Is(err, domain.ErrLimiteTentativas),
		errors.Is(err, domain.ErrUltimoCertificado):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrCertificadoAusente),
		errors.Is(err, domain.ErrCertificadoVencido),
		errors.Is(err, domain.ErrSenhaCertificado):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CERTIFICADO", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
