package fiscal_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"strconv"
	"testing"
	"time"

	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/repository"
	infranfce "github.com/seu-usuario/pdv-fiscal/internal/infrastructure/nfce"
	"github.com/seu-usuario/pdv-fiscal/pkg/logger"
)

// Fakes de porto escritos à mão. Cada um guarda o que recebeu para os testes
// inspecionarem e devolve respostas enlatadas configuráveis.

func logTeste() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// ── Repositórios ──────────────────────────────────────────────────────────────

type fakeVendaRepo struct {
	venda  *entity.Venda
	itens  []entity.ItemVenda
	getErr error

	submissoes   int
	submissaoErr error
	atualizacoes []entity.Venda // snapshots de cada AtualizarFiscal
	atualizarErr error
}

var _ repository.VendaRepository = (*fakeVendaRepo)(nil)

func (f *fakeVendaRepo) GetByID(_ context.Context, id string) (*entity.Venda, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.venda == nil || f.venda.ID != id {
		return nil, nil
	}
	return f.venda, nil
}

func (f *fakeVendaRepo) GetItens(_ context.Context, _ string) ([]entity.ItemVenda, error) {
	return f.itens, nil
}

func (f *fakeVendaRepo) MarcarSubmissao(_ context.Context, _, chave string, numero int64) error {
	if f.submissaoErr != nil {
		return f.submissaoErr
	}
	f.submissoes++
	f.venda.Status = entity.StatusVendaAutorizacaoPendente
	f.venda.ChaveNFCe = chave
	f.venda.Numero = numero
	return nil
}

func (f *fakeVendaRepo) AtualizarFiscal(_ context.Context, v *entity.Venda) error {
	if f.atualizarErr != nil {
		return f.atualizarErr
	}
	f.atualizacoes = append(f.atualizacoes, *v)
	return nil
}

func (f *fakeVendaRepo) ultimaAtualizacao(t *testing.T) entity.Venda {
	t.Helper()
	if len(f.atualizacoes) == 0 {
		t.Fatal("nenhum AtualizarFiscal registrado")
	}
	return f.atualizacoes[len(f.atualizacoes)-1]
}

type fakeClienteRepo struct {
	cliente *entity.Cliente
}

func (f *fakeClienteRepo) GetByID(_ context.Context, _ string) (*entity.Cliente, error) {
	return f.cliente, nil
}

type fakeConfigRepo struct {
	emp          *entity.EmpresaConfig
	getErr       error
	proximo      int64
	numerosDados int
	atualizacoes []entity.EmpresaConfig
}

var _ repository.EmpresaConfigRepository = (*fakeConfigRepo)(nil)

func (f *fakeConfigRepo) Get(_ context.Context) (*entity.EmpresaConfig, error) {
	return f.emp, f.getErr
}

func (f *fakeConfigRepo) Update(_ context.Context, c *entity.EmpresaConfig) error {
	f.atualizacoes = append(f.atualizacoes, *c)
	f.emp = c
	return nil
}

func (f *fakeConfigRepo) ProximoNumero(_ context.Context, _ string) (int64, error) {
	f.numerosDados++
	n := f.proximo
	f.proximo++
	return n, nil
}

type fakeInutRepo struct {
	registros map[string]*entity.Inutilizacao
	seq       int
	createErr error
	updateErr error
}

var _ repository.InutilizacaoRepository = (*fakeInutRepo)(nil)

func newFakeInutRepo() *fakeInutRepo {
	return &fakeInutRepo{registros: map[string]*entity.Inutilizacao{}}
}

func (f *fakeInutRepo) Create(_ context.Context, i *entity.Inutilizacao) error {
	if f.createErr != nil {
		return f.createErr
	}
	if i.ID == "" {
		f.seq++
		i.ID = "inut-" + strconv.Itoa(f.seq)
	}
	copia := *i
	f.registros[i.ID] = &copia
	return nil
}

func (f *fakeInutRepo) GetByID(_ context.Context, id string) (*entity.Inutilizacao, error) {
	reg, ok := f.registros[id]
	if !ok {
		return nil, nil
	}
	copia := *reg
	return &copia, nil
}

func (f *fakeInutRepo) List(_ context.Context) ([]*entity.Inutilizacao, error) {
	out := make([]*entity.Inutilizacao, 0, len(f.registros))
	for _, reg := range f.registros {
		copia := *reg
		out = append(out, &copia)
	}
	return out, nil
}

func (f *fakeInutRepo) ListPorSerie(_ context.Context, serie int) ([]*entity.Inutilizacao, error) {
	var out []*entity.Inutilizacao
	for _, reg := range f.registros {
		if reg.Serie == serie && reg.Status != entity.StatusInutErro {
			copia := *reg
			out = append(out, &copia)
		}
	}
	return out, nil
}

func (f *fakeInutRepo) Update(_ context.Context, i *entity.Inutilizacao) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	copia := *i
	f.registros[i.ID] = &copia
	return nil
}

type fakeCertRepo struct {
	certs          map[string]*entity.Certificado
	criados        []*entity.Certificado
	createErr      error
	padraoDefinido string
}

var _ repository.CertificadoRepository = (*fakeCertRepo)(nil)

func newFakeCertRepo() *fakeCertRepo {
	return &fakeCertRepo{certs: map[string]*entity.Certificado{}}
}

func (f *fakeCertRepo) Create(_ context.Context, c *entity.Certificado) error {
	if f.createErr != nil {
		return f.createErr
	}
	copia := *c
	f.certs[c.ID] = &copia
	f.criados = append(f.criados, &copia)
	return nil
}

func (f *fakeCertRepo) GetByID(_ context.Context, id string) (*entity.Certificado, error) {
	c, ok := f.certs[id]
	if !ok {
		return nil, nil
	}
	copia := *c
	return &copia, nil
}

func (f *fakeCertRepo) GetPadrao(_ context.Context, _ string) (*entity.Certificado, error) {
	for _, c := range f.certs {
		if c.Padrao {
			copia := *c
			return &copia, nil
		}
	}
	return nil, nil
}

func (f *fakeCertRepo) List(_ context.Context, _ string) ([]*entity.Certificado, error) {
	// Padrão primeiro, como no SQL; a ordem dos demais segue CreatedAt.
	var out []*entity.Certificado
	for _, c := range f.certs {
		copia := *c
		out = append(out, &copia)
	}
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			a, b := out[i], out[j]
			if (!a.Padrao && b.Padrao) || (a.Padrao == b.Padrao && a.CreatedAt.After(b.CreatedAt)) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeCertRepo) Count(_ context.Context, _ string) (int, error) {
	return len(f.certs), nil
}

func (f *fakeCertRepo) DefinirPadrao(_ context.Context, _, certificadoID string) error {
	if _, ok := f.certs[certificadoID]; !ok {
		return fmt.Errorf("certificado %s inexistente", certificadoID)
	}
	for id, c := range f.certs {
		c.Padrao = id == certificadoID
	}
	f.padraoDefinido = certificadoID
	return nil
}

func (f *fakeCertRepo) Delete(_ context.Context, id string) error {
	delete(f.certs, id)
	return nil
}

// ── Runners de transação ──────────────────────────────────────────────────────

type fakeTx struct {
	vendas *fakeVendaRepo
	config *fakeConfigRepo
	certs  *fakeCertRepo
}

func (f *fakeTx) RunFiscal(_ context.Context, fn func(repository.VendaRepository, repository.EmpresaConfigRepository) error) error {
	return fn(f.vendas, f.config)
}

func (f *fakeTx) RunCertificados(_ context.Context, fn func(repository.CertificadoRepository) error) error {
	return fn(f.certs)
}

// ── Portos de infraestrutura ──────────────────────────────────────────────────

type fakeCarregador struct {
	cert tls.Certificate
	err  error
}

func (f *fakeCarregador) CarregarPadrao(_ context.Context) (tls.Certificate, error) {
	return f.cert, f.err
}

type fakeAssinador struct {
	err       error
	elementos []string // elementos pedidos em SignElemento
}

func (f *fakeAssinador) Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error) {
	return f.SignElemento(xmlBytes, "infNFe", cert)
}

func (f *fakeAssinador) SignElemento(xmlBytes []byte, elemento string, _ tls.Certificate) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.elementos = append(f.elementos, elemento)
	return append([]byte("assinado:"), xmlBytes...), nil
}

type fakeTransmissor struct {
	enviarRet *infranfce.RetornoLote
	enviarErr error
	loteXML   []byte

	reciboRets  []*infranfce.RetornoLote // fila, um por consulta
	reciboErr   error
	consultados []string

	statusRet *infranfce.RetornoStatus

	inutRet *infranfce.RetornoInutilizacao
	inutErr error
	inutXML []byte
}

func (f *fakeTransmissor) EnviarLote(_ context.Context, _ string, nfeAssinado []byte) (*infranfce.RetornoLote, error) {
	f.loteXML = nfeAssinado
	return f.enviarRet, f.enviarErr
}

func (f *fakeTransmissor) ConsultarRecibo(_ context.Context, recibo string) (*infranfce.RetornoLote, error) {
	f.consultados = append(f.consultados, recibo)
	if f.reciboErr != nil {
		return nil, f.reciboErr
	}
	if len(f.reciboRets) == 0 {
		return &infranfce.RetornoLote{CStat: "105", XMotivo: "Lote em processamento"}, nil
	}
	ret := f.reciboRets[0]
	f.reciboRets = f.reciboRets[1:]
	return ret, nil
}

func (f *fakeTransmissor) ConsultarStatus(_ context.Context) (*infranfce.RetornoStatus, error) {
	return f.statusRet, nil
}

func (f *fakeTransmissor) Inutilizar(_ context.Context, inutAssinado []byte) (*infranfce.RetornoInutilizacao, error) {
	f.inutXML = inutAssinado
	return f.inutRet, f.inutErr
}

type fakeXMLStorage struct {
	autorizados   map[string][]byte
	cancelamentos map[string][]byte
	inutilizacoes map[string][]byte
	err           error
}

func newFakeXMLStorage() *fakeXMLStorage {
	return &fakeXMLStorage{
		autorizados:   map[string][]byte{},
		cancelamentos: map[string][]byte{},
		inutilizacoes: map[string][]byte{},
	}
}

func (f *fakeXMLStorage) GravarAutorizado(chave string, xml []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.autorizados[chave] = xml
	return "/xml/" + chave + ".xml", nil
}

func (f *fakeXMLStorage) GravarCancelamento(chave string, xml []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.cancelamentos[chave] = xml
	return "/xml/" + chave + "-canc.xml", nil
}

func (f *fakeXMLStorage) GravarInutilizacao(id string, xml []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.inutilizacoes[id] = xml
	return "/xml/inut-" + id + ".xml", nil
}

type fakeCertStorage struct {
	arquivos  map[string][]byte
	removidos []string
	gravarErr error
}

func newFakeCertStorage() *fakeCertStorage {
	return &fakeCertStorage{arquivos: map[string][]byte{}}
}

func (f *fakeCertStorage) Gravar(certificadoID string, cifrado []byte) (string, error) {
	if f.gravarErr != nil {
		return "", f.gravarErr
	}
	caminho := "/certs/" + certificadoID + ".pfx.enc"
	f.arquivos[caminho] = cifrado
	return caminho, nil
}

func (f *fakeCertStorage) Ler(caminho string) ([]byte, error) {
	dados, ok := f.arquivos[caminho]
	if !ok {
		return nil, fmt.Errorf("arquivo %s inexistente", caminho)
	}
	return dados, nil
}

func (f *fakeCertStorage) Remover(caminho string) error {
	f.removidos = append(f.removidos, caminho)
	delete(f.arquivos, caminho)
	return nil
}

type fakeParserP12 struct {
	cert       tls.Certificate
	err        error
	senhaCerta string // se preenchida, qualquer outra senha falha
}

func (f *fakeParserP12) Decode(_ []byte, senha string) (tls.Certificate, error) {
	if f.err != nil {
		return tls.Certificate{}, f.err
	}
	if f.senhaCerta != "" && senha != f.senhaCerta {
		return tls.Certificate{}, fmt.Errorf("pkcs12: decryption password incorrect")
	}
	return f.cert, nil
}

// ── Fixtures ──────────────────────────────────────────────────────────────────

func certificadoAutoassinado(t *testing.T, validade time.Time) tls.Certificate {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "EMPRESA TESTE:12345678000195"},
		Issuer:       pkix.Name{CommonName: "AC TESTE"},
		NotBefore:    time.Now().Add(-24 * time.Hour),
		NotAfter:     validade,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatal(err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}
}

func empresaTeste() *entity.EmpresaConfig {
	return &entity.EmpresaConfig{
		ID:                "cfg-1",
		RazaoSocial:       "Padaria São João LTDA",
		CNPJ:              "12345678000195",
		InscricaoEstadual: "123456789012",
		Endereco: entity.Endereco{
			Logradouro:   "Rua das Flores",
			Numero:       "100",
			Bairro:       "Centro",
			CodMunicipio: "3550308",
			Municipio:    "Sao Paulo",
			UF:           "SP",
			CEP:          "01001000",
		},
		Ambiente:      entity.AmbienteHomologacao,
		Serie:         1,
		ProximoNumero: 42,
		CSCID:         "000001",
		CSCToken:      "ABCDEF1234567890",
	}
}
