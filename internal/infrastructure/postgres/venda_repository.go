package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/seu-usuario/pdv-fiscal/internal/domain"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/repository"
)

var _ repository.VendaRepository = (*VendaRepo)(nil)

// VendaRepo implementação de VendaRepository (usável com pool ou tx).
type VendaRepo struct {
	q Querier
}

// NewVendaRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewVendaRepository(q Querier) *VendaRepo {
	return &VendaRepo{q: q}
}

// GetByID busca os campos fiscais da venda, sem os itens.
func (r *VendaRepo) GetByID(ctx context.Context, id string) (*entity.Venda, error) {
	query := `
		SELECT id, COALESCE(cliente_id, ''), numero, status,
		       COALESCE(chave_nfce, ''), COALESCE(protocolo, ''), COALESCE(caminho_xml, ''),
		       autorizada_em, cancelada_em,
		       COALESCE(motivo_cancelamento, ''), COALESCE(caminho_xml_cancel, ''),
		       COALESCE(mensagem_erro, ''), COALESCE(codigo_erro_sefaz, ''),
		       created_at, updated_at
		FROM vendas WHERE id = $1`
	var v entity.Venda
	err := r.q.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.ClienteID, &v.Numero, &v.Status,
		&v.ChaveNFCe, &v.Protocolo, &v.CaminhoXML,
		&v.AutorizadaEm, &v.CanceladaEm,
		&v.MotivoCancelamento, &v.CaminhoXMLCancel,
		&v.MensagemErro, &v.CodigoErroSefaz,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get venda: %w", err)
	}
	return &v, nil
}

// GetItens busca os itens da venda na ordem de inserção.
func (r *VendaRepo) GetItens(ctx context.Context, vendaID string) ([]entity.ItemVenda, error) {
	query := `
		SELECT id, venda_id, codigo_produto, descricao,
		       COALESCE(ncm, ''), COALESCE(cfop, ''), COALESCE(unidade, 'UN'),
		       quantidade, preco_unitario, total_linha
		FROM venda_itens WHERE venda_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, vendaID)
	if err != nil {
		return nil, fmt.Errorf("list itens: %w", err)
	}
	defer rows.Close()
	var itens []entity.ItemVenda
	for rows.Next() {
		var it entity.ItemVenda
		if err := rows.Scan(&it.ID, &it.VendaID, &it.CodigoProduto, &it.Descricao,
			&it.NCM, &it.CFOP, &it.Unidade,
			&it.Quantidade, &it.PrecoUnitario, &it.TotalLinha); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		itens = append(itens, it)
	}
	return itens, rows.Err()
}

// MarcarSubmissao move rascunho -> autorizacao_pendente gravando a chave e o
// número consumido. O WHERE condicional no status e o índice único da chave
// barram duas submissões concorrentes da mesma venda.
func (r *VendaRepo) MarcarSubmissao(ctx context.Context, id, chave string, numero int64) error {
	query := `
		UPDATE vendas
		SET status = $2, chave_nfce = $3, numero = $4, updated_at = $5
		WHERE id = $1 AND status = $6`
	tag, err := r.q.Exec(ctx, query,
		id, entity.StatusVendaAutorizacaoPendente, chave, numero, time.Now(), entity.StatusVendaRascunho,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflito
		}
		return fmt.Errorf("marcar submissao: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var status string
		err := r.q.QueryRow(ctx, `SELECT status FROM vendas WHERE id = $1`, id).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNaoEncontrado
		}
		if err != nil {
			return fmt.Errorf("verificar status: %w", err)
		}
		return domain.ErrConflito
	}
	return nil
}

// AtualizarFiscal persiste o estado fiscal completo da venda.
func (r *VendaRepo) AtualizarFiscal(ctx context.Context, v *entity.Venda) error {
	query := `
		UPDATE vendas
		SET status              = $2,
		    numero              = $3,
		    protocolo           = COALESCE($4, protocolo),
		    caminho_xml         = COALESCE($5, caminho_xml),
		    autorizada_em       = COALESCE($6, autorizada_em),
		    cancelada_em        = COALESCE($7, cancelada_em),
		    motivo_cancelamento = COALESCE($8, motivo_cancelamento),
		    caminho_xml_cancel  = COALESCE($9, caminho_xml_cancel),
		    mensagem_erro       = $10,
		    codigo_erro_sefaz   = $11,
		    updated_at          = $12
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		v.ID, v.Status, v.Numero,
		nullIfEmpty(v.Protocolo), nullIfEmpty(v.CaminhoXML),
		v.AutorizadaEm, v.CanceladaEm,
		nullIfEmpty(v.MotivoCancelamento), nullIfEmpty(v.CaminhoXMLCancel),
		v.MensagemErro, v.CodigoErroSefaz,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("atualizar venda: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNaoEncontrado
	}
	return nil
}
