// Serviço de assinatura digital XML-DSig do layout NF-e 4.00.
// Assina o subtree infNFe e anexa <Signature> como irmão dele dentro de <NFe>.

package signer

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/seu-usuario/pdv-fiscal/internal/domain"
)

// DigitalSignatureService implementa a assinatura enveloped exigida pela SEFAZ.
type DigitalSignatureService struct{}

// NewDigitalSignatureService cria o serviço.
func NewDigitalSignatureService() *DigitalSignatureService {
	return &DigitalSignatureService{}
}

// Sign assina o documento NFe: canonicaliza o infNFe, calcula o digest SHA-1,
// monta SignedInfo, canonicaliza e assina com RSA-SHA1, e injeta o bloco
// Signature completo (com o certificado em Base64 no KeyInfo) no XML.
// O material de chave vive só na tls.Certificate recebida; nada é gravado em
// arquivo temporário.
func (s *DigitalSignatureService) Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error) {
	return s.SignElemento(xmlBytes, "infNFe", cert)
}

// SignElemento assina o subtree identificado por `elemento` (infNFe, infInut
// ou infEvento, todos com atributo Id) e anexa o Signature como irmão dele.
func (s *DigitalSignatureService) SignElemento(xmlBytes []byte, elemento string, cert tls.Certificate) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, &domain.ErroAssinatura{Etapa: "entrada", Causa: fmt.Errorf("XML vazio")}
	}
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, &domain.ErroAssinatura{Etapa: "chave-privada", Causa: fmt.Errorf("o certificado deve conter chave privada RSA")}
	}
	if len(cert.Certificate) == 0 {
		return nil, &domain.ErroAssinatura{Etapa: "certificado", Causa: fmt.Errorf("certificado ausente")}
	}
	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, &domain.ErroAssinatura{Etapa: "certificado", Causa: err}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, &domain.ErroAssinatura{Etapa: "parse", Causa: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &domain.ErroAssinatura{Etapa: "parse", Causa: fmt.Errorf("documento sem raiz")}
	}
	alvo := root.SelectElement(elemento)
	if alvo == nil {
		return nil, &domain.ErroAssinatura{Etapa: "parse", Causa: fmt.Errorf("%s não encontrado", elemento)}
	}
	id := alvo.SelectAttrValue("Id", "")
	if id == "" {
		return nil, &domain.ErroAssinatura{Etapa: "parse", Causa: fmt.Errorf("%s sem atributo Id", elemento)}
	}

	// 1) Digest do elemento canonicalizado (C14N inclusiva, sem comentários).
	canonInf, err := canonicalizarElemento(root, alvo)
	if err != nil {
		return nil, &domain.ErroAssinatura{Etapa: "canonicalizacao", Causa: err}
	}
	digest := sha1.Sum(canonInf)
	digestB64 := base64.StdEncoding.EncodeToString(digest[:])

	// 2) SignedInfo com Reference #Id, transforms enveloped + C14N, SHA-1.
	signedInfoXML := buildSignedInfo(id, digestB64)
	canonSignedInfo, err := canonicalizarBytes([]byte(signedInfoXML))
	if err != nil {
		return nil, &domain.ErroAssinatura{Etapa: "canonicalizacao", Causa: err}
	}
	signHash := sha1.Sum(canonSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA1, signHash[:])
	if err != nil {
		return nil, &domain.ErroAssinatura{Etapa: "assinatura", Causa: err}
	}

	// 3) Certificado em Base64 puro (sem cabeçalhos PEM) no KeyInfo.
	sigXML := buildSignatureXML(
		signedInfoXML,
		base64.StdEncoding.EncodeToString(signatureValue),
		base64.StdEncoding.EncodeToString(x509Cert.Raw),
	)

	// 4) Signature como último filho de <NFe>, irmão de infNFe.
	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(sigXML); err != nil {
		return nil, &domain.ErroAssinatura{Etapa: "montagem", Causa: err}
	}
	if sigRoot := sigDoc.Root(); sigRoot != nil {
		root.AddChild(sigRoot)
	}

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, &domain.ErroAssinatura{Etapa: "serializacao", Causa: err}
	}
	return out.Bytes(), nil
}

// canonicalizarElemento serializa o elemento com o namespace default herdado
// da raiz e aplica C14N. O infNFe destacado perderia o xmlns sem isso.
func canonicalizarElemento(root, el *etree.Element) ([]byte, error) {
	copia := el.Copy()
	if copia.SelectAttr("xmlns") == nil {
		if ns := root.SelectAttrValue("xmlns", ""); ns != "" {
			copia.CreateAttr("xmlns", ns)
		}
	}
	tmp := etree.NewDocument()
	tmp.SetRoot(copia)
	raw, err := tmp.WriteToBytes()
	if err != nil {
		return nil, err
	}
	return canonicalizarBytes(raw)
}

func canonicalizarBytes(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func buildSignedInfo(id, digestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<SignedInfo xmlns="` + NamespaceDS + `">`)
	sb.WriteString(`<CanonicalizationMethod Algorithm="` + AlgC14N + `"/>`)
	sb.WriteString(`<SignatureMethod Algorithm="` + AlgRSASHA1 + `"/>`)
	sb.WriteString(`<Reference URI="#` + id + `">`)
	sb.WriteString(`<Transforms><Transform Algorithm="` + TransformEnveloped + `"/>`)
	sb.WriteString(`<Transform Algorithm="` + AlgC14N + `"/></Transforms>`)
	sb.WriteString(`<DigestMethod Algorithm="` + AlgSHA1 + `"/>`)
	sb.WriteString(`<DigestValue>` + digestB64 + `</DigestValue>`)
	sb.WriteString(`</Reference>`)
	sb.WriteString(`</SignedInfo>`)
	return sb.String()
}

func buildSignatureXML(signedInfoXML, signatureValueB64, certB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<Signature xmlns="` + NamespaceDS + `">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<SignatureValue>` + signatureValueB64 + `</SignatureValue>`)
	sb.WriteString(`<KeyInfo><X509Data><X509Certificate>` + certB64 + `</X509Certificate></X509Data></KeyInfo>`)
	sb.WriteString(`</Signature>`)
	return sb.String()
}
