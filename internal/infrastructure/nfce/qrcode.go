package nfce

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
)

// URLs de consulta pública do QR Code (padrão SVRS; configuráveis por deploy).
const (
	urlQRHomologacao = "https://www.homologacao.nfce.fazenda.rs.gov.br/NFCE/NFCE-COM.aspx"
	urlQRProducao    = "https://www.sefaz.rs.gov.br/NFCE/NFCE-COM.aspx"

	urlChaveHomologacao = "https://www.sefaz.rs.gov.br/nfce/consulta"
	urlChaveProducao    = "https://www.sefaz.rs.gov.br/nfce/consulta"

	versaoQRCode = "2"
)

// QRCodeResult são os dois campos do bloco infNFeSupl.
type QRCodeResult struct {
	QRCode   string
	URLChave string
}

// QRCodeBuilder monta o conteúdo do QR Code da NFC-e (versão 2): os
// parâmetros públicos concatenados com "|" mais o hash SHA-1 dos parâmetros
// com o token do CSC, que permite validar a nota offline no celular.
type QRCodeBuilder struct {
	urlQR    map[string]string // ambiente -> URL de consulta do QR
	urlChave map[string]string // ambiente -> URL de consulta por chave
}

// NewQRCodeBuilder cria o builder com as URLs padrão por ambiente.
func NewQRCodeBuilder() *QRCodeBuilder {
	return &QRCodeBuilder{
		urlQR: map[string]string{
			entity.AmbienteHomologacao: urlQRHomologacao,
			entity.AmbienteProducao:    urlQRProducao,
		},
		urlChave: map[string]string{
			entity.AmbienteHomologacao: urlChaveHomologacao,
			entity.AmbienteProducao:    urlChaveProducao,
		},
	}
}

// Montar gera o par qrCode/urlChave para a chave informada.
// Formato: URL?p=chave|versao|tpAmb|idCSC|SHA1(params+token) em hex maiúsculo.
func (b *QRCodeBuilder) Montar(chave string, emp *entity.EmpresaConfig) (*QRCodeResult, error) {
	if len(chave) != 44 {
		return nil, fmt.Errorf("nfce: chave inválida para QR Code: %q", chave)
	}
	if emp.CSCID == "" || emp.CSCToken == "" {
		return nil, fmt.Errorf("nfce: CSC não configurado (id e token são obrigatórios para o QR Code)")
	}
	idCSC := strings.TrimLeft(emp.CSCID, "0")
	if idCSC == "" {
		idCSC = "0"
	}
	params := strings.Join([]string{chave, versaoQRCode, emp.TpAmb(), idCSC}, "|")
	sum := sha1.Sum([]byte(params + emp.CSCToken))
	hash := strings.ToUpper(hex.EncodeToString(sum[:]))

	return &QRCodeResult{
		QRCode:   b.urlQR[emp.Ambiente] + "?p=" + params + "|" + hash,
		URLChave: b.urlChave[emp.Ambiente],
	}, nil
}
