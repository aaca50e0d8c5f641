// Carga de certificado A1 a partir do conteúdo .pfx/.p12 (PKCS#12), sempre
// em memória: nenhum material de chave privada toca o disco durante a
// assinatura.

package signer

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"golang.org/x/crypto/pkcs12"
)

// DecodeP12 decodifica o conteúdo de um arquivo .p12/.pfx já carregado em
// memória. A senha pode ser vazia se o arquivo não for protegido.
func DecodeP12(data []byte, senha string) (tls.Certificate, error) {
	if len(data) == 0 {
		return tls.Certificate{}, fmt.Errorf("p12 vazio")
	}
	priv, cert, err := pkcs12.Decode(data, senha)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	// pkcs12.Decode devolve um único certificado; para o A1 da SEFAZ basta a folha.
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// P12Parser adapta DecodeP12 ao porto de parser da camada de aplicação.
type P12Parser struct{}

// Decode implementa o porto.
func (P12Parser) Decode(dados []byte, senha string) (tls.Certificate, error) {
	return DecodeP12(dados, senha)
}

// DadosCertificado extrai titular, emissor e validade do certificado folha,
// para exibição e para o flag de validade persistido.
func DadosCertificado(cert tls.Certificate) (titular, emissor string, validade *x509.Certificate, err error) {
	if len(cert.Certificate) == 0 {
		return "", "", nil, fmt.Errorf("certificado vazio")
	}
	leaf := cert.Leaf
	if leaf == nil {
		leaf, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return "", "", nil, fmt.Errorf("parsear certificado: %w", err)
		}
	}
	return leaf.Subject.String(), leaf.Issuer.String(), leaf, nil
}
