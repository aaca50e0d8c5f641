package repository

import (
	"context"

	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
)

// InutilizacaoRepository define o porto de persistência das inutilizações.
type InutilizacaoRepository interface {
	Create(ctx context.Context, i *entity.Inutilizacao) error
	GetByID(ctx context.Context, id string) (*entity.Inutilizacao, error)
	List(ctx context.Context) ([]*entity.Inutilizacao, error)
	// ListPorSerie devolve os registros não-error da série, para a checagem
	// de sobreposição de faixas antes de criar um novo pedido.
	ListPorSerie(ctx context.Context, serie int) ([]*entity.Inutilizacao, error)
	Update(ctx context.Context, i *entity.Inutilizacao) error
}

// ClienteRepository define o porto de leitura do destinatário opcional.
type ClienteRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Cliente, error)
}
