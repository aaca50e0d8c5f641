package repository

import (
	"context"

	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
)

// VendaRepository define o porto de persistência dos campos fiscais da venda.
type VendaRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Venda, error)
	GetItens(ctx context.Context, vendaID string) ([]entity.ItemVenda, error)
	// MarcarSubmissao move rascunho → autorizacao_pendente gravando a chave e
	// o número consumido. Retorna domain.ErrConflito se a venda não estiver
	// mais em rascunho (guarda contra duas submissões concorrentes).
	MarcarSubmissao(ctx context.Context, id, chave string, numero int64) error
	// AtualizarFiscal persiste status, protocolo, caminhos de XML, carimbos e
	// mensagens de erro. Executar sempre dentro de transação junto com o
	// restante da transição de estado.
	AtualizarFiscal(ctx context.Context, v *entity.Venda) error
}
