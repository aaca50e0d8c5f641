package fiscal_test

import (
	"context"
	"crypto/tls"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-usuario/pdv-fiscal/internal/application/fiscal"
	"github.com/seu-usuario/pdv-fiscal/internal/domain"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
)

const chaveAutorizada = "35240112345678000195650010000000421123456784"

func vendaAutorizada(autorizadaHa time.Duration) *entity.Venda {
	autorizada := time.Now().Add(-autorizadaHa)
	return &entity.Venda{
		ID:           "venda-1",
		Status:       entity.StatusVendaAutorizada,
		ChaveNFCe:    chaveAutorizada,
		Protocolo:    "135240000000001",
		Numero:       42,
		AutorizadaEm: &autorizada,
	}
}

type ambienteCancelamento struct {
	vendas    *fakeVendaRepo
	storage   *fakeXMLStorage
	assinador *fakeAssinador
	uc        *fiscal.CancelarNFCeUseCase
}

func novoAmbienteCancelamento(t *testing.T, venda *entity.Venda) *ambienteCancelamento {
	t.Helper()
	a := &ambienteCancelamento{
		vendas:    &fakeVendaRepo{venda: venda},
		storage:   newFakeXMLStorage(),
		assinador: &fakeAssinador{},
	}
	a.uc = fiscal.NewCancelarNFCeUseCase(
		a.vendas,
		&fakeConfigRepo{emp: empresaTeste()},
		&fakeCarregador{cert: tls.Certificate{}},
		a.assinador,
		a.storage,
		logTeste(),
	)
	return a
}

func TestCancelar_DentroDaJanela(t *testing.T) {
	a := novoAmbienteCancelamento(t, vendaAutorizada(10*time.Minute))

	venda, err := a.uc.Cancelar(context.Background(), "venda-1", "Venda registrada em duplicidade")
	require.NoError(t, err)

	assert.Equal(t, entity.StatusVendaCancelada, venda.Status)
	require.NotNil(t, venda.CanceladaEm)
	assert.Equal(t, "Venda registrada em duplicidade", venda.MotivoCancelamento)
	assert.Equal(t, "/xml/"+chaveAutorizada+"-canc.xml", venda.CaminhoXMLCancel)

	// O evento assinado (infEvento) foi arquivado sob a chave da nota.
	assert.Equal(t, []string{"infEvento"}, a.assinador.elementos)
	evento := string(a.storage.cancelamentos[chaveAutorizada])
	assert.Contains(t, evento, "110111")
	assert.Contains(t, evento, chaveAutorizada)

	persistida := a.vendas.ultimaAtualizacao(t)
	assert.Equal(t, entity.StatusVendaCancelada, persistida.Status)
}

func TestCancelar_JustificativaComEspacosConta(t *testing.T) {
	a := novoAmbienteCancelamento(t, vendaAutorizada(time.Minute))

	// 15 caracteres só depois do trim não passa: "curta demais   " vira 12.
	_, err := a.uc.Cancelar(context.Background(), "venda-1", "  curta demais   ")
	assert.ErrorIs(t, err, domain.ErrEntradaInvalida)
}

func TestCancelar_JustificativaCurta(t *testing.T) {
	a := novoAmbienteCancelamento(t, vendaAutorizada(time.Minute))

	_, err := a.uc.Cancelar(context.Background(), "venda-1", "muito curta")
	require.ErrorIs(t, err, domain.ErrEntradaInvalida)
	assert.Empty(t, a.storage.cancelamentos, "nada pode ser gravado")
}

func TestCancelar_JanelaExpirada(t *testing.T) {
	a := novoAmbienteCancelamento(t, vendaAutorizada(31*time.Minute))

	_, err := a.uc.Cancelar(context.Background(), "venda-1", "Venda registrada em duplicidade")
	require.ErrorIs(t, err, domain.ErrCancelamentoNaoPermitido)
	assert.Equal(t, entity.StatusVendaAutorizada, a.vendas.venda.Status,
		"a venda permanece autorizada")
}

func TestCancelar_StatusInvalido(t *testing.T) {
	venda := vendaAutorizada(time.Minute)
	venda.Status = entity.StatusVendaRascunho
	a := novoAmbienteCancelamento(t, venda)

	_, err := a.uc.Cancelar(context.Background(), "venda-1", "Venda registrada em duplicidade")
	assert.ErrorIs(t, err, domain.ErrCancelamentoNaoPermitido)
}

func TestCancelar_CancelamentoDuplicado(t *testing.T) {
	venda := vendaAutorizada(time.Minute)
	venda.Status = entity.StatusVendaCancelada
	a := novoAmbienteCancelamento(t, venda)

	_, err := a.uc.Cancelar(context.Background(), "venda-1", "Venda registrada em duplicidade")
	assert.ErrorIs(t, err, domain.ErrCancelamentoNaoPermitido)
}

func TestCancelar_VendaInexistente(t *testing.T) {
	a := novoAmbienteCancelamento(t, vendaAutorizada(time.Minute))

	_, err := a.uc.Cancelar(context.Background(), "nao-existe", "Venda registrada em duplicidade")
	assert.ErrorIs(t, err, domain.ErrNaoEncontrado)
}

func TestCancelar_SemCertificado(t *testing.T) {
	a := novoAmbienteCancelamento(t, vendaAutorizada(time.Minute))
	a.uc = fiscal.NewCancelarNFCeUseCase(
		a.vendas,
		&fakeConfigRepo{emp: empresaTeste()},
		&fakeCarregador{err: domain.ErrCertificadoAusente},
		a.assinador,
		a.storage,
		logTeste(),
	)

	_, err := a.uc.Cancelar(context.Background(), "venda-1", "Venda registrada em duplicidade")
	require.ErrorIs(t, err, domain.ErrCertificadoAusente)
	assert.Equal(t, entity.StatusVendaAutorizada, a.vendas.venda.Status)
}
