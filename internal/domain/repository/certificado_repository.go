package repository

import (
	"context"

	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
)

// CertificadoRepository define o porto de persistência de certificados digitais.
type CertificadoRepository interface {
	Create(ctx context.Context, c *entity.Certificado) error
	GetByID(ctx context.Context, id string) (*entity.Certificado, error)
	// GetPadrao devolve o certificado padrão da configuração, ou nil.
	GetPadrao(ctx context.Context, empresaConfigID string) (*entity.Certificado, error)
	List(ctx context.Context, empresaConfigID string) ([]*entity.Certificado, error)
	Count(ctx context.Context, empresaConfigID string) (int, error)
	// DefinirPadrao limpa o padrão anterior e marca o novo num único update
	// atômico, sem janela com zero ou dois padrões.
	DefinirPadrao(ctx context.Context, empresaConfigID, certificadoID string) error
	Delete(ctx context.Context, id string) error
}
