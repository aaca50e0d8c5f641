package fiscal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-usuario/pdv-fiscal/internal/application/fiscal"
	"github.com/seu-usuario/pdv-fiscal/internal/domain"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
)

func TestObterConfig(t *testing.T) {
	uc := fiscal.NewEmpresaConfigUseCase(&fakeConfigRepo{emp: empresaTeste()}, logTeste())

	cfg, err := uc.Obter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12345678000195", cfg.CNPJ)
}

func TestObterConfig_Ausente(t *testing.T) {
	uc := fiscal.NewEmpresaConfigUseCase(&fakeConfigRepo{}, logTeste())
	_, err := uc.Obter(context.Background())
	assert.ErrorIs(t, err, domain.ErrNaoEncontrado)
}

func TestAtualizarConfig(t *testing.T) {
	repo := &fakeConfigRepo{emp: empresaTeste()}
	uc := fiscal.NewEmpresaConfigUseCase(repo, logTeste())

	novo := empresaTeste()
	novo.ID = "id-do-cliente-que-nao-vale"
	novo.ProximoNumero = 999999
	novo.RazaoSocial = "Nova Razao Social LTDA"
	novo.Ambiente = entity.AmbienteProducao

	salvo, err := uc.Atualizar(context.Background(), novo)
	require.NoError(t, err)

	assert.Equal(t, "Nova Razao Social LTDA", salvo.RazaoSocial)
	assert.Equal(t, entity.AmbienteProducao, salvo.Ambiente)
	// ID e contador de numeração vêm sempre do registro atual.
	assert.Equal(t, "cfg-1", salvo.ID)
	assert.Equal(t, int64(42), salvo.ProximoNumero)
}

func TestAtualizarConfig_Validacoes(t *testing.T) {
	uc := fiscal.NewEmpresaConfigUseCase(&fakeConfigRepo{emp: empresaTeste()}, logTeste())
	ctx := context.Background()

	casos := []struct {
		nome   string
		ajuste func(*entity.EmpresaConfig)
	}{
		{"sem razão social", func(c *entity.EmpresaConfig) { c.RazaoSocial = "" }},
		{"sem CNPJ", func(c *entity.EmpresaConfig) { c.CNPJ = "" }},
		{"sem IE", func(c *entity.EmpresaConfig) { c.InscricaoEstadual = "" }},
		{"ambiente desconhecido", func(c *entity.EmpresaConfig) { c.Ambiente = "staging" }},
		{"série negativa", func(c *entity.EmpresaConfig) { c.Serie = -1 }},
		{"série acima de 999", func(c *entity.EmpresaConfig) { c.Serie = 1000 }},
		{"UF desconhecida", func(c *entity.EmpresaConfig) { c.Endereco.UF = "XX" }},
		{"sem código de município", func(c *entity.EmpresaConfig) { c.Endereco.CodMunicipio = "" }},
	}
	for _, c := range casos {
		novo := empresaTeste()
		c.ajuste(novo)
		_, err := uc.Atualizar(ctx, novo)
		assert.ErrorIs(t, err, domain.ErrEntradaInvalida, "caso %q", c.nome)
	}
}

func TestAtualizarConfig_SemRegistroAtual(t *testing.T) {
	uc := fiscal.NewEmpresaConfigUseCase(&fakeConfigRepo{}, logTeste())
	_, err := uc.Atualizar(context.Background(), empresaTeste())
	assert.ErrorIs(t, err, domain.ErrNaoEncontrado)
}
