package fiscal

import (
	"context"
	"crypto/tls"

	"github.com/seu-usuario/pdv-fiscal/internal/domain/repository"
	infranfce "github.com/seu-usuario/pdv-fiscal/internal/infrastructure/nfce"
)

// Assinador aplica a assinatura XML-DSig sobre o elemento identificado
// (infNFe, infEvento ou infInut). O material de chave fica só em memória.
type Assinador interface {
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
	SignElemento(xmlBytes []byte, elemento string, cert tls.Certificate) ([]byte, error)
}

// Transmissor fala com o web service da SEFAZ. Implementado pelo cliente SOAP;
// nos testes, por um fake com respostas enlatadas.
type Transmissor interface {
	EnviarLote(ctx context.Context, loteID string, nfeAssinado []byte) (*infranfce.RetornoLote, error)
	ConsultarRecibo(ctx context.Context, recibo string) (*infranfce.RetornoLote, error)
	ConsultarStatus(ctx context.Context) (*infranfce.RetornoStatus, error)
	Inutilizar(ctx context.Context, inutAssinado []byte) (*infranfce.RetornoInutilizacao, error)
}

// ArmazenamentoXML persiste os artefatos fiscais em disco.
type ArmazenamentoXML interface {
	GravarAutorizado(chave string, xml []byte) (string, error)
	GravarCancelamento(chave string, xml []byte) (string, error)
	GravarInutilizacao(id string, xml []byte) (string, error)
}

// ArmazenamentoCertificado persiste os .pfx já cifrados pelo cofre.
type ArmazenamentoCertificado interface {
	Gravar(certificadoID string, cifrado []byte) (string, error)
	Ler(caminho string) ([]byte, error)
	Remover(caminho string) error
}

// CarregadorCertificado entrega o certificado padrão pronto para assinar.
// Implementado pelo CertificadoUseCase.
type CarregadorCertificado interface {
	CarregarPadrao(ctx context.Context) (tls.Certificate, error)
}

// ParserP12 decodifica um .pfx/.p12 em memória. Porto para os testes poderem
// injetar um fake (não há como gerar PKCS#12 de fixture em Go puro).
type ParserP12 interface {
	Decode(dados []byte, senha string) (tls.Certificate, error)
}

// FiscalTxRunner executa a reserva de numeração e a marcação de submissão na
// mesma transação.
type FiscalTxRunner interface {
	RunFiscal(ctx context.Context, fn func(
		vendaRepo repository.VendaRepository,
		configRepo repository.EmpresaConfigRepository,
	) error) error
}

// CertTxRunner executa a exclusão com promoção de novo padrão numa transação.
type CertTxRunner interface {
	RunCertificados(ctx context.Context, fn func(
		certRepo repository.CertificadoRepository,
	) error) error
}
