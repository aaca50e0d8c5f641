package repository

import (
	"context"

	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
)

// EmpresaConfigRepository define o porto da configuração fiscal da empresa.
// A configuração é passada explicitamente aos componentes de emissão; nenhum
// componente faz lookup ambiente de singleton.
type EmpresaConfigRepository interface {
	Get(ctx context.Context) (*entity.EmpresaConfig, error)
	Update(ctx context.Context, c *entity.EmpresaConfig) error
	// ProximoNumero incrementa e devolve o contador de numeração da série
	// configurada, de forma atômica.
	ProximoNumero(ctx context.Context, id string) (int64, error)
}
