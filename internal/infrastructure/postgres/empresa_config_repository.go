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

var _ repository.EmpresaConfigRepository = (*EmpresaConfigRepo)(nil)

// EmpresaConfigRepo implementação de EmpresaConfigRepository (usável com pool ou tx).
type EmpresaConfigRepo struct {
	q Querier
}

// NewEmpresaConfigRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewEmpresaConfigRepository(q Querier) *EmpresaConfigRepo {
	return &EmpresaConfigRepo{q: q}
}

// Get busca a configuração fiscal (uma linha por implantação).
func (r *EmpresaConfigRepo) Get(ctx context.Context) (*entity.EmpresaConfig, error) {
	query := `
		SELECT id, razao_social, COALESCE(nome_fantasia, ''), cnpj,
		       inscricao_estadual, COALESCE(inscricao_municipal, ''),
		       logradouro, numero, COALESCE(complemento, ''), bairro,
		       cod_municipio, municipio, uf, cep,
		       ambiente, serie, proximo_numero,
		       COALESCE(csc_id, ''), COALESCE(csc_token, ''),
		       created_at, updated_at
		FROM empresa_config LIMIT 1`
	var c entity.EmpresaConfig
	err := r.q.QueryRow(ctx, query).Scan(
		&c.ID, &c.RazaoSocial, &c.NomeFantasia, &c.CNPJ,
		&c.InscricaoEstadual, &c.InscricaoMunicipal,
		&c.Endereco.Logradouro, &c.Endereco.Numero, &c.Endereco.Complemento, &c.Endereco.Bairro,
		&c.Endereco.CodMunicipio, &c.Endereco.Municipio, &c.Endereco.UF, &c.Endereco.CEP,
		&c.Ambiente, &c.Serie, &c.ProximoNumero,
		&c.CSCID, &c.CSCToken,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get empresa config: %w", err)
	}
	return &c, nil
}

// Update grava a configuração fiscal inteira, menos o contador de numeração
// (que só muda via ProximoNumero).
func (r *EmpresaConfigRepo) Update(ctx context.Context, c *entity.EmpresaConfig) error {
	query := `
		UPDATE empresa_config
		SET razao_social = $2, nome_fantasia = $3, cnpj = $4,
		    inscricao_estadual = $5, inscricao_municipal = $6,
		    logradouro = $7, numero = $8, complemento = $9, bairro = $10,
		    cod_municipio = $11, municipio = $12, uf = $13, cep = $14,
		    ambiente = $15, serie = $16,
		    csc_id = $17, csc_token = $18,
		    updated_at = $19
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		c.ID, c.RazaoSocial, nullIfEmpty(c.NomeFantasia), c.CNPJ,
		c.InscricaoEstadual, nullIfEmpty(c.InscricaoMunicipal),
		c.Endereco.Logradouro, c.Endereco.Numero, nullIfEmpty(c.Endereco.Complemento), c.Endereco.Bairro,
		c.Endereco.CodMunicipio, c.Endereco.Municipio, c.Endereco.UF, c.Endereco.CEP,
		c.Ambiente, c.Serie,
		nullIfEmpty(c.CSCID), nullIfEmpty(c.CSCToken),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update empresa config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNaoEncontrado
	}
	return nil
}

// ProximoNumero incrementa e devolve o contador de numeração de forma atômica.
// O RETURNING garante que duas emissões concorrentes nunca veem o mesmo número.
func (r *EmpresaConfigRepo) ProximoNumero(ctx context.Context, id string) (int64, error) {
	var numero int64
	err := r.q.QueryRow(ctx, `
		UPDATE empresa_config
		SET proximo_numero = proximo_numero + 1, updated_at = $2
		WHERE id = $1
		RETURNING proximo_numero - 1`, id, time.Now()).Scan(&numero)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNaoEncontrado
		}
		return 0, fmt.Errorf("proximo numero: %w", err)
	}
	return numero, nil
}
