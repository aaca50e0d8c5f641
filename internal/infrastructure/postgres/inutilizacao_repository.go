package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/seu-usuario/pdv-fiscal/internal/domain"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/repository"
)

var _ repository.InutilizacaoRepository = (*InutilizacaoRepo)(nil)

// InutilizacaoRepo implementação de InutilizacaoRepository (usável com pool ou tx).
type InutilizacaoRepo struct {
	q Querier
}

// NewInutilizacaoRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewInutilizacaoRepository(q Querier) *InutilizacaoRepo {
	return &InutilizacaoRepo{q: q}
}

const colunasInutilizacao = `
	id, serie, numero_inicial, numero_final, justificativa, status,
	tentativas, COALESCE(codigo_erro, ''), COALESCE(mensagem_erro, ''),
	COALESCE(protocolo, ''), COALESCE(caminho_xml, ''), COALESCE(usuario_id, ''),
	created_at, updated_at`

// Create persiste o pedido de inutilização recém-validado.
func (r *InutilizacaoRepo) Create(ctx context.Context, i *entity.Inutilizacao) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inutilizacoes (id, serie, numero_inicial, numero_final, justificativa,
		                           status, tentativas, usuario_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		i.ID, i.Serie, i.NumeroInicial, i.NumeroFinal, i.Justificativa,
		i.Status, i.Tentativas, nullIfEmpty(i.UsuarioID), i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert inutilizacao: %w", err)
	}
	return nil
}

// GetByID busca um registro por ID, ou nil se não existir.
func (r *InutilizacaoRepo) GetByID(ctx context.Context, id string) (*entity.Inutilizacao, error) {
	query := `SELECT ` + colunasInutilizacao + ` FROM inutilizacoes WHERE id = $1`
	var i entity.Inutilizacao
	err := r.q.QueryRow(ctx, query, id).Scan(
		&i.ID, &i.Serie, &i.NumeroInicial, &i.NumeroFinal, &i.Justificativa, &i.Status,
		&i.Tentativas, &i.CodigoErro, &i.MensagemErro,
		&i.Protocolo, &i.CaminhoXML, &i.UsuarioID,
		&i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inutilizacao: %w", err)
	}
	return &i, nil
}

// List devolve todos os registros, mais recentes primeiro.
func (r *InutilizacaoRepo) List(ctx context.Context) ([]*entity.Inutilizacao, error) {
	query := `SELECT ` + colunasInutilizacao + ` FROM inutilizacoes ORDER BY created_at DESC`
	return r.listar(ctx, query)
}

// ListPorSerie devolve os registros da série que ainda contam para a checagem
// de sobreposição (todos menos os que morreram em "erro").
func (r *InutilizacaoRepo) ListPorSerie(ctx context.Context, serie int) ([]*entity.Inutilizacao, error) {
	query := `SELECT ` + colunasInutilizacao + ` FROM inutilizacoes
		WHERE serie = $1 AND status <> $2 ORDER BY numero_inicial`
	return r.listar(ctx, query, serie, entity.StatusInutErro)
}

// Update persiste o resultado de uma tentativa (status, contagem, protocolo, erro).
func (r *InutilizacaoRepo) Update(ctx context.Context, i *entity.Inutilizacao) error {
	query := `
		UPDATE inutilizacoes
		SET status = $2, tentativas = $3,
		    codigo_erro = $4, mensagem_erro = $5,
		    protocolo = COALESCE($6, protocolo),
		    caminho_xml = COALESCE($7, caminho_xml),
		    updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		i.ID, i.Status, i.Tentativas,
		i.CodigoErro, i.MensagemErro,
		nullIfEmpty(i.Protocolo), nullIfEmpty(i.CaminhoXML),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update inutilizacao: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNaoEncontrado
	}
	return nil
}

func (r *InutilizacaoRepo) listar(ctx context.Context, query string, args ...any) ([]*entity.Inutilizacao, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inutilizacoes: %w", err)
	}
	defer rows.Close()
	var list []*entity.Inutilizacao
	for rows.Next() {
		var i entity.Inutilizacao
		if err := rows.Scan(
			&i.ID, &i.Serie, &i.NumeroInicial, &i.NumeroFinal, &i.Justificativa, &i.Status,
			&i.Tentativas, &i.CodigoErro, &i.MensagemErro,
			&i.Protocolo, &i.CaminhoXML, &i.UsuarioID,
			&i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan inutilizacao: %w", err)
		}
		list = append(list, &i)
	}
	return list, rows.Err()
}
