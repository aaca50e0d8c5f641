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

var _ repository.CertificadoRepository = (*CertificadoRepo)(nil)

// CertificadoRepo implementação de CertificadoRepository (usável com pool ou tx).
type CertificadoRepo struct {
	q Querier
}

// NewCertificadoRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewCertificadoRepository(q Querier) *CertificadoRepo {
	return &CertificadoRepo{q: q}
}

const colunasCertificado = `
	id, empresa_config_id, alias, caminho_arquivo, senha_cifrada,
	titular, emissor, valido_ate, padrao, created_at, updated_at`

// Create persiste o certificado recém-carregado.
func (r *CertificadoRepo) Create(ctx context.Context, c *entity.Certificado) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	query := `
		INSERT INTO certificados (id, empresa_config_id, alias, caminho_arquivo, senha_cifrada,
		                          titular, emissor, valido_ate, padrao, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.EmpresaConfigID, c.Alias, c.CaminhoArquivo, c.SenhaCifrada,
		c.Titular, c.Emissor, c.ValidoAte, c.Padrao, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflito
		}
		return fmt.Errorf("insert certificado: %w", err)
	}
	return nil
}

// GetByID busca um certificado por ID, ou nil se não existir.
func (r *CertificadoRepo) GetByID(ctx context.Context, id string) (*entity.Certificado, error) {
	query := `SELECT ` + colunasCertificado + ` FROM certificados WHERE id = $1`
	c, err := r.scanUm(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get certificado: %w", err)
	}
	return c, nil
}

// GetPadrao busca o certificado padrão da configuração, ou nil.
func (r *CertificadoRepo) GetPadrao(ctx context.Context, empresaConfigID string) (*entity.Certificado, error) {
	query := `SELECT ` + colunasCertificado + ` FROM certificados
		WHERE empresa_config_id = $1 AND padrao = TRUE`
	c, err := r.scanUm(r.q.QueryRow(ctx, query, empresaConfigID))
	if err != nil {
		return nil, fmt.Errorf("get certificado padrao: %w", err)
	}
	return c, nil
}

// List devolve todos os certificados da configuração, padrão primeiro.
func (r *CertificadoRepo) List(ctx context.Context, empresaConfigID string) ([]*entity.Certificado, error) {
	query := `SELECT ` + colunasCertificado + ` FROM certificados
		WHERE empresa_config_id = $1 ORDER BY padrao DESC, created_at`
	rows, err := r.q.Query(ctx, query, empresaConfigID)
	if err != nil {
		return nil, fmt.Errorf("list certificados: %w", err)
	}
	defer rows.Close()
	var list []*entity.Certificado
	for rows.Next() {
		var c entity.Certificado
		if err := rows.Scan(&c.ID, &c.EmpresaConfigID, &c.Alias, &c.CaminhoArquivo, &c.SenhaCifrada,
			&c.Titular, &c.Emissor, &c.ValidoAte, &c.Padrao, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan certificado: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// Count conta os certificados da configuração.
func (r *CertificadoRepo) Count(ctx context.Context, empresaConfigID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM certificados WHERE empresa_config_id = $1`, empresaConfigID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count certificados: %w", err)
	}
	return n, nil
}

// DefinirPadrao limpa o padrão anterior e marca o novo num único statement,
// sem janela com zero ou dois padrões.
func (r *CertificadoRepo) DefinirPadrao(ctx context.Context, empresaConfigID, certificadoID string) error {
	query := `
		UPDATE certificados
		SET padrao = (id = $2), updated_at = $3
		WHERE empresa_config_id = $1`
	_, err := r.q.Exec(ctx, query, empresaConfigID, certificadoID, time.Now())
	if err != nil {
		return fmt.Errorf("definir certificado padrao: %w", err)
	}
	var padrao bool
	err = r.q.QueryRow(ctx, `SELECT padrao FROM certificados WHERE id = $1`, certificadoID).Scan(&padrao)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNaoEncontrado
	}
	if err != nil {
		return fmt.Errorf("verificar certificado padrao: %w", err)
	}
	return nil
}

// Delete remove o certificado. A guarda de último certificado fica no caso de uso.
func (r *CertificadoRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM certificados WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete certificado: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNaoEncontrado
	}
	return nil
}

func (r *CertificadoRepo) scanUm(row pgx.Row) (*entity.Certificado, error) {
	var c entity.Certificado
	err := row.Scan(&c.ID, &c.EmpresaConfigID, &c.Alias, &c.CaminhoArquivo, &c.SenhaCifrada,
		&c.Titular, &c.Emissor, &c.ValidoAte, &c.Padrao, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
