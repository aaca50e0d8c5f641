package fiscal_test

import (
	"context"
	"crypto/tls"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-usuario/pdv-fiscal/internal/application/fiscal"
	"github.com/seu-usuario/pdv-fiscal/internal/domain"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
	domnfce "github.com/seu-usuario/pdv-fiscal/internal/domain/nfce"
	infranfce "github.com/seu-usuario/pdv-fiscal/internal/infrastructure/nfce"
)

func vendaRascunho() *entity.Venda {
	return &entity.Venda{
		ID:        "venda-1",
		Status:    entity.StatusVendaRascunho,
		Itens:     nil,
		CreatedAt: time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC),
	}
}

func itensTeste() []entity.ItemVenda {
	return []entity.ItemVenda{
		{
			CodigoProduto: "P1",
			Descricao:     "Pao frances",
			Unidade:       "UN",
			Quantidade:    decimal.NewFromInt(2),
			PrecoUnitario: decimal.RequireFromString("10.50"),
		},
	}
}

type ambienteEmissao struct {
	vendas      *fakeVendaRepo
	config      *fakeConfigRepo
	transmissor *fakeTransmissor
	storage     *fakeXMLStorage
	assinador   *fakeAssinador
	uc          *fiscal.EmitirNFCeUseCase
}

func novoAmbienteEmissao(t *testing.T) *ambienteEmissao {
	t.Helper()
	a := &ambienteEmissao{
		vendas:      &fakeVendaRepo{venda: vendaRascunho(), itens: itensTeste()},
		config:      &fakeConfigRepo{emp: empresaTeste(), proximo: 42},
		transmissor: &fakeTransmissor{},
		storage:     newFakeXMLStorage(),
		assinador:   &fakeAssinador{},
	}
	a.uc = fiscal.NewEmitirNFCeUseCase(
		a.vendas,
		&fakeClienteRepo{},
		a.config,
		&fakeCarregador{cert: tls.Certificate{}},
		infranfce.NewXMLBuilderService(infranfce.NewQRCodeBuilder()),
		a.assinador,
		a.transmissor,
		a.storage,
		&fakeTx{vendas: a.vendas, config: a.config},
		logTeste(),
	)
	return a
}

func protocoloAutorizado(chave string) *infranfce.Protocolo {
	return &infranfce.Protocolo{
		Chave:       chave,
		Numero:      "135240000000001",
		Recebimento: "2024-01-15T10:01:00-03:00",
		CStat:       "100",
		XMotivo:     "Autorizado o uso da NF-e",
	}
}

func TestEmitir_SincronoAutorizado(t *testing.T) {
	a := novoAmbienteEmissao(t)
	a.transmissor.enviarRet = &infranfce.RetornoLote{
		CStat:   "104",
		XMotivo: "Lote processado",
		Prot:    protocoloAutorizado(""),
	}

	venda, err := a.uc.Emitir(context.Background(), "venda-1")
	require.NoError(t, err)

	assert.Equal(t, entity.StatusVendaAutorizada, venda.Status)
	assert.Equal(t, "135240000000001", venda.Protocolo)
	assert.Equal(t, int64(42), venda.Numero, "consome o próximo número da configuração")
	assert.Len(t, venda.ChaveNFCe, 44)
	assert.NoError(t, domnfce.ValidarChave(venda.ChaveNFCe))
	require.NotNil(t, venda.AutorizadaEm)
	assert.Empty(t, venda.MensagemErro)
	assert.Empty(t, venda.CodigoErroSefaz)

	// nfeProc persistido sob a chave da nota.
	assert.Equal(t, "/xml/"+venda.ChaveNFCe+".xml", venda.CaminhoXML)
	assert.Contains(t, string(a.storage.autorizados[venda.ChaveNFCe]), "nfeProc")

	// Documento assinado foi o que seguiu no lote.
	assert.Contains(t, string(a.transmissor.loteXML), "assinado:")

	persistida := a.vendas.ultimaAtualizacao(t)
	assert.Equal(t, entity.StatusVendaAutorizada, persistida.Status)
	assert.Equal(t, 1, a.vendas.submissoes)
}

func TestEmitir_AssincronoComConsultaDeRecibo(t *testing.T) {
	a := novoAmbienteEmissao(t)
	a.transmissor.enviarRet = &infranfce.RetornoLote{
		CStat:   "103",
		XMotivo: "Lote recebido com sucesso",
		Recibo:  "431000012345678",
	}
	a.transmissor.reciboRets = []*infranfce.RetornoLote{
		{CStat: "104", XMotivo: "Lote processado", Prot: protocoloAutorizado("")},
	}

	venda, err := a.uc.Emitir(context.Background(), "venda-1")
	require.NoError(t, err)

	assert.Equal(t, entity.StatusVendaAutorizada, venda.Status)
	require.Len(t, a.transmissor.consultados, 1)
	assert.Equal(t, "431000012345678", a.transmissor.consultados[0],
		"a consulta usa o recibo devolvido no 103")
}

func TestEmitir_RejeicaoDefinitiva(t *testing.T) {
	a := novoAmbienteEmissao(t)
	a.transmissor.enviarRet = &infranfce.RetornoLote{
		CStat:   "104",
		XMotivo: "Lote processado",
		Prot: &infranfce.Protocolo{
			CStat:   "204",
			XMotivo: "Duplicidade de NF-e",
		},
	}

	_, err := a.uc.Emitir(context.Background(), "venda-1")
	require.Error(t, err)

	var rejeicao *domain.RejeicaoSefaz
	require.ErrorAs(t, err, &rejeicao)
	assert.Equal(t, "204", rejeicao.Codigo)

	// A venda fica pendente com o erro anotado; nada de XML autorizado.
	persistida := a.vendas.ultimaAtualizacao(t)
	assert.Equal(t, entity.StatusVendaAutorizacaoPendente, persistida.Status)
	assert.Equal(t, "204", persistida.CodigoErroSefaz)
	assert.Equal(t, "Duplicidade de NF-e", persistida.MensagemErro)
	assert.Empty(t, a.storage.autorizados)
}

func TestEmitir_CodigoTemporarioFicaRetryable(t *testing.T) {
	a := novoAmbienteEmissao(t)
	a.transmissor.enviarRet = &infranfce.RetornoLote{
		CStat:   "108",
		XMotivo: "Servico Paralisado Momentaneamente",
	}

	_, err := a.uc.Emitir(context.Background(), "venda-1")
	require.Error(t, err)

	var rejeicao *domain.RejeicaoSefaz
	require.ErrorAs(t, err, &rejeicao)
	assert.Equal(t, "108", rejeicao.Codigo)

	persistida := a.vendas.ultimaAtualizacao(t)
	assert.Equal(t, entity.StatusVendaAutorizacaoPendente, persistida.Status)
	assert.Equal(t, "108", persistida.CodigoErroSefaz)
}

// Venda pendente após código temporário é reenviada pelo operador; o reenvio
// reutiliza a chave e o número da primeira tentativa, sem consumir numeração.
func TestEmitir_ReenvioAposCodigoTemporario(t *testing.T) {
	a := novoAmbienteEmissao(t)
	a.transmissor.enviarRet = &infranfce.RetornoLote{
		CStat:   "108",
		XMotivo: "Servico Paralisado Momentaneamente",
	}

	_, err := a.uc.Emitir(context.Background(), "venda-1")
	require.Error(t, err)
	require.Equal(t, entity.StatusVendaAutorizacaoPendente, a.vendas.venda.Status)
	chave := a.vendas.venda.ChaveNFCe
	require.NotEmpty(t, chave)

	a.transmissor.enviarRet = &infranfce.RetornoLote{
		CStat:   "104",
		XMotivo: "Lote processado",
		Prot:    protocoloAutorizado(""),
	}
	venda, err := a.uc.Emitir(context.Background(), "venda-1")
	require.NoError(t, err)

	assert.Equal(t, entity.StatusVendaAutorizada, venda.Status)
	assert.Equal(t, chave, venda.ChaveNFCe, "o reenvio mantém a chave original")
	assert.Equal(t, 1, a.config.numerosDados, "nenhum número novo consumido")
	assert.Equal(t, 1, a.vendas.submissoes, "a guarda de submissão roda só na primeira tentativa")
	assert.Empty(t, venda.CodigoErroSefaz, "a anotação de erro da tentativa anterior é limpa")
}

// Pendente sem chave atribuída é estado corrompido, não um reenvio válido.
func TestEmitir_PendenteSemChave(t *testing.T) {
	a := novoAmbienteEmissao(t)
	a.vendas.venda.Status = entity.StatusVendaAutorizacaoPendente

	_, err := a.uc.Emitir(context.Background(), "venda-1")
	require.ErrorIs(t, err, domain.ErrEstadoInvalido)
	assert.Zero(t, a.config.numerosDados)
}

func TestEmitir_FalhaDeTransporte(t *testing.T) {
	a := novoAmbienteEmissao(t)
	a.transmissor.enviarErr = &domain.ErroTransporte{
		Operacao: "nfeAutorizacaoLote",
		Causa:    errors.New("connection refused"),
	}

	_, err := a.uc.Emitir(context.Background(), "venda-1")
	var et *domain.ErroTransporte
	require.ErrorAs(t, err, &et)

	persistida := a.vendas.ultimaAtualizacao(t)
	assert.Equal(t, entity.StatusVendaAutorizacaoPendente, persistida.Status)
	assert.NotEmpty(t, persistida.MensagemErro)
}

func TestEmitir_StatusInvalido(t *testing.T) {
	a := novoAmbienteEmissao(t)
	a.vendas.venda.Status = entity.StatusVendaAutorizada

	_, err := a.uc.Emitir(context.Background(), "venda-1")
	require.ErrorIs(t, err, domain.ErrEstadoInvalido)
	assert.Zero(t, a.config.numerosDados, "número não pode ser consumido")
}

func TestEmitir_VendaInexistente(t *testing.T) {
	a := novoAmbienteEmissao(t)
	_, err := a.uc.Emitir(context.Background(), "nao-existe")
	assert.ErrorIs(t, err, domain.ErrNaoEncontrado)
}

func TestEmitir_VendaSemItens(t *testing.T) {
	a := novoAmbienteEmissao(t)
	a.vendas.itens = nil

	_, err := a.uc.Emitir(context.Background(), "venda-1")
	require.ErrorIs(t, err, domain.ErrEntradaInvalida)
	assert.Zero(t, a.config.numerosDados)
}

func TestEmitir_SemConfiguracao(t *testing.T) {
	a := novoAmbienteEmissao(t)
	a.config.emp = nil

	_, err := a.uc.Emitir(context.Background(), "venda-1")
	assert.ErrorIs(t, err, domain.ErrEntradaInvalida)
}

// Sem certificado a emissão falha antes de consumir número: nenhuma lacuna de
// numeração é criada por uma falha local.
func TestEmitir_SemCertificadoNaoConsomeNumero(t *testing.T) {
	a := novoAmbienteEmissao(t)
	a.uc = fiscal.NewEmitirNFCeUseCase(
		a.vendas,
		&fakeClienteRepo{},
		a.config,
		&fakeCarregador{err: domain.ErrCertificadoAusente},
		infranfce.NewXMLBuilderService(infranfce.NewQRCodeBuilder()),
		a.assinador,
		a.transmissor,
		a.storage,
		&fakeTx{vendas: a.vendas, config: a.config},
		logTeste(),
	)

	_, err := a.uc.Emitir(context.Background(), "venda-1")
	require.ErrorIs(t, err, domain.ErrCertificadoAusente)
	assert.Zero(t, a.config.numerosDados)
	assert.Zero(t, a.vendas.submissoes)
}

func TestEmitir_SubmissaoConcorrentePerde(t *testing.T) {
	a := novoAmbienteEmissao(t)
	a.vendas.submissaoErr = domain.ErrConflito

	_, err := a.uc.Emitir(context.Background(), "venda-1")
	assert.ErrorIs(t, err, domain.ErrConflito)
}

func TestConsultarStatusServico(t *testing.T) {
	a := novoAmbienteEmissao(t)
	a.transmissor.statusRet = &infranfce.RetornoStatus{CStat: "107", XMotivo: "Servico em Operacao", Online: true}

	ret, err := a.uc.ConsultarStatusServico(context.Background())
	require.NoError(t, err)
	assert.True(t, ret.Online)
}
