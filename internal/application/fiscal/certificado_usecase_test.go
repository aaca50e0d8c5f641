package fiscal_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-usuario/pdv-fiscal/internal/application/fiscal"
	"github.com/seu-usuario/pdv-fiscal/internal/domain"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
	"github.com/seu-usuario/pdv-fiscal/pkg/cofre"
)

type ambienteCertificado struct {
	repo     *fakeCertRepo
	arquivos *fakeCertStorage
	parser   *fakeParserP12
	cofre    *cofre.Cofre
	uc       *fiscal.CertificadoUseCase
}

func novoAmbienteCertificado(t *testing.T) *ambienteCertificado {
	t.Helper()
	c, err := cofre.New(strings.Repeat("ab", 32))
	require.NoError(t, err)

	a := &ambienteCertificado{
		repo:     newFakeCertRepo(),
		arquivos: newFakeCertStorage(),
		parser: &fakeParserP12{
			cert:       certificadoAutoassinado(t, time.Now().Add(365*24*time.Hour)),
			senhaCerta: "senha123",
		},
		cofre: c,
	}
	a.uc = fiscal.NewCertificadoUseCase(
		a.repo,
		&fakeConfigRepo{emp: empresaTeste()},
		&fakeTx{certs: a.repo},
		a.cofre,
		a.arquivos,
		a.parser,
		logTeste(),
	)
	return a
}

var pfxFicticio = []byte("conteudo-pfx-de-teste")

func TestEnviarCertificado_PrimeiroViraPadrao(t *testing.T) {
	a := novoAmbienteCertificado(t)

	cert, err := a.uc.Enviar(context.Background(), "matriz.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)

	assert.True(t, cert.Padrao, "o primeiro certificado da configuração vira padrão")
	assert.NotEmpty(t, cert.ID)
	assert.Contains(t, cert.Titular, "EMPRESA TESTE")
	assert.False(t, cert.ValidoAte.IsZero())

	// O que foi para o disco está cifrado: não pode ser o .pfx em claro.
	gravado := a.arquivos.arquivos[cert.CaminhoArquivo]
	require.NotEmpty(t, gravado)
	assert.NotEqual(t, pfxFicticio, gravado)
	aberto, err := a.cofre.Abrir(gravado)
	require.NoError(t, err)
	assert.Equal(t, pfxFicticio, aberto)

	// A senha também vai cifrada ao banco.
	senha, err := a.cofre.Abrir(cert.SenhaCifrada)
	require.NoError(t, err)
	assert.Equal(t, "senha123", string(senha))
}

func TestEnviarCertificado_SegundoNaoEPadrao(t *testing.T) {
	a := novoAmbienteCertificado(t)

	_, err := a.uc.Enviar(context.Background(), "a.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)
	segundo, err := a.uc.Enviar(context.Background(), "b.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)

	assert.False(t, segundo.Padrao)
}

func TestEnviarCertificado_SenhaErrada(t *testing.T) {
	a := novoAmbienteCertificado(t)

	_, err := a.uc.Enviar(context.Background(), "a.pfx", pfxFicticio, "errada")
	require.ErrorIs(t, err, domain.ErrSenhaCertificado)
	assert.Empty(t, a.repo.certs, "senha errada nunca chega ao banco")
	assert.Empty(t, a.arquivos.arquivos)
}

func TestEnviarCertificado_Vencido(t *testing.T) {
	a := novoAmbienteCertificado(t)
	a.parser.cert = certificadoAutoassinado(t, time.Now().Add(-time.Hour))

	_, err := a.uc.Enviar(context.Background(), "vencido.pfx", pfxFicticio, "senha123")
	assert.ErrorIs(t, err, domain.ErrCertificadoVencido)
}

func TestEnviarCertificado_ArquivoVazio(t *testing.T) {
	a := novoAmbienteCertificado(t)
	_, err := a.uc.Enviar(context.Background(), "a.pfx", nil, "senha123")
	assert.ErrorIs(t, err, domain.ErrEntradaInvalida)
}

// Falha no insert não pode deixar .pfx órfão no disco.
func TestEnviarCertificado_InsertFalhouRemoveArquivo(t *testing.T) {
	a := novoAmbienteCertificado(t)
	a.repo.createErr = domain.ErrConflito

	_, err := a.uc.Enviar(context.Background(), "a.pfx", pfxFicticio, "senha123")
	require.Error(t, err)
	assert.Empty(t, a.arquivos.arquivos)
	assert.Len(t, a.arquivos.removidos, 1)
}

func TestCarregarPadrao(t *testing.T) {
	a := novoAmbienteCertificado(t)
	enviado, err := a.uc.Enviar(context.Background(), "a.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)
	_ = enviado

	cert, err := a.uc.CarregarPadrao(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cert.PrivateKey)
	require.NotEmpty(t, cert.Certificate)
}

func TestCarregarPadrao_SemCertificado(t *testing.T) {
	a := novoAmbienteCertificado(t)
	_, err := a.uc.CarregarPadrao(context.Background())
	assert.ErrorIs(t, err, domain.ErrCertificadoAusente)
}

func TestCarregarPadrao_Vencido(t *testing.T) {
	a := novoAmbienteCertificado(t)
	_, err := a.uc.Enviar(context.Background(), "a.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)

	// Vencimento posterior ao cadastro.
	for _, c := range a.repo.certs {
		c.ValidoAte = time.Now().Add(-time.Minute)
	}

	_, err = a.uc.CarregarPadrao(context.Background())
	assert.ErrorIs(t, err, domain.ErrCertificadoVencido)
}

func TestDefinirPadrao(t *testing.T) {
	a := novoAmbienteCertificado(t)
	primeiro, err := a.uc.Enviar(context.Background(), "a.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)
	segundo, err := a.uc.Enviar(context.Background(), "b.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)

	require.NoError(t, a.uc.DefinirPadrao(context.Background(), segundo.ID))

	atual, err := a.repo.GetPadrao(context.Background(), "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, segundo.ID, atual.ID)

	antigo, _ := a.repo.GetByID(context.Background(), primeiro.ID)
	assert.False(t, antigo.Padrao, "nunca dois padrões ao mesmo tempo")
}

func TestDefinirPadrao_Inexistente(t *testing.T) {
	a := novoAmbienteCertificado(t)
	err := a.uc.DefinirPadrao(context.Background(), "nao-existe")
	assert.ErrorIs(t, err, domain.ErrNaoEncontrado)
}

func TestDefinirPadrao_Vencido(t *testing.T) {
	a := novoAmbienteCertificado(t)
	cert, err := a.uc.Enviar(context.Background(), "a.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)
	a.repo.certs[cert.ID].ValidoAte = time.Now().Add(-time.Minute)

	err = a.uc.DefinirPadrao(context.Background(), cert.ID)
	assert.ErrorIs(t, err, domain.ErrCertificadoVencido)
}

func TestExcluir_UltimoProtegido(t *testing.T) {
	a := novoAmbienteCertificado(t)
	cert, err := a.uc.Enviar(context.Background(), "a.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)

	err = a.uc.Excluir(context.Background(), cert.ID)
	require.ErrorIs(t, err, domain.ErrUltimoCertificado)
	assert.Len(t, a.repo.certs, 1, "nada foi excluído")
}

func TestExcluir_PadraoPromoveOutro(t *testing.T) {
	a := novoAmbienteCertificado(t)
	padrao, err := a.uc.Enviar(context.Background(), "a.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)
	reserva, err := a.uc.Enviar(context.Background(), "b.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)

	require.NoError(t, a.uc.Excluir(context.Background(), padrao.ID))

	novoPadrao, err := a.repo.GetPadrao(context.Background(), "cfg-1")
	require.NoError(t, err)
	require.NotNil(t, novoPadrao, "sempre sobra um padrão")
	assert.Equal(t, reserva.ID, novoPadrao.ID)

	// O arquivo cifrado do excluído sai do disco.
	assert.Contains(t, a.arquivos.removidos, padrao.CaminhoArquivo)
}

func TestExcluir_NaoPadraoNaoMexeNoPadrao(t *testing.T) {
	a := novoAmbienteCertificado(t)
	padrao, err := a.uc.Enviar(context.Background(), "a.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)
	extra, err := a.uc.Enviar(context.Background(), "b.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)

	require.NoError(t, a.uc.Excluir(context.Background(), extra.ID))

	atual, err := a.repo.GetPadrao(context.Background(), "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, padrao.ID, atual.ID)
	assert.Empty(t, a.repo.padraoDefinido, "sem promoção desnecessária")
}

func TestListarCertificados(t *testing.T) {
	a := novoAmbienteCertificado(t)
	_, err := a.uc.Enviar(context.Background(), "a.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)
	_, err = a.uc.Enviar(context.Background(), "b.pfx", pfxFicticio, "senha123")
	require.NoError(t, err)

	certs, err := a.uc.Listar(context.Background())
	require.NoError(t, err)
	require.Len(t, certs, 2)
	assert.True(t, certs[0].Padrao, "o padrão vem primeiro na listagem")
}

func TestExcluir_Inexistente(t *testing.T) {
	a := novoAmbienteCertificado(t)
	err := a.uc.Excluir(context.Background(), "nao-existe")
	assert.ErrorIs(t, err, domain.ErrNaoEncontrado)
}

// Venda sem padrão cadastrado ao carregar: a entidade Certificado.Vencido
// cobre o corte exato da validade.
func TestCertificado_Vencido(t *testing.T) {
	agora := time.Now()
	c := &entity.Certificado{ValidoAte: agora.Add(time.Second)}
	assert.False(t, c.Vencido(agora))
	assert.True(t, c.Vencido(agora.Add(2*time.Second)))
	assert.False(t, (&entity.Certificado{}).Vencido(agora), "sem validade registrada não bloqueia")
}
