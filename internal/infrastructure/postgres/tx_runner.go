package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seu-usuario/pdv-fiscal/internal/domain/repository"
)

// TxRunner executa callbacks dentro de uma transação PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner constrói o runner com o pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunFiscal abre uma transação com os repos da emissão (venda + numeração) e
// faz Commit ou Rollback. A transição de estado fiscal e o consumo do número
// sequencial precisam ser atômicos entre si.
func (r *TxRunner) RunFiscal(ctx context.Context, fn func(
	vendaRepo repository.VendaRepository,
	configRepo repository.EmpresaConfigRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	vendaRepo := NewVendaRepository(tx)
	configRepo := NewEmpresaConfigRepository(tx)

	if err := fn(vendaRepo, configRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunCertificados abre uma transação com o repo de certificados, usada na
// remoção com promoção de um novo padrão (delete + definir padrão juntos).
func (r *TxRunner) RunCertificados(ctx context.Context, fn func(
	certRepo repository.CertificadoRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewCertificadoRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
