// Package nfce implementa a geração, assinatura e transporte do XML da
// NFC-e (modelo 65, layout 4.00) junto à SEFAZ.
package nfce

import (
	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
)

// Namespace oficial do layout NF-e/NFC-e.
const (
	NsNFe       = "http://www.portalfiscal.inf.br/nfe"
	VersaoLayout = "4.00"
)

// VendaBuildContext reúne tudo que o builder precisa para montar o documento.
// Venda e Empresa são obrigatórios; Cliente é opcional (sem ele o bloco dest
// é omitido por inteiro).
type VendaBuildContext struct {
	Venda   *entity.Venda
	Empresa *entity.EmpresaConfig
	Cliente *entity.Cliente
	Chave   string // chave de acesso de 44 dígitos já gerada
}

// Protocolo é o resultado de autorização usado para envelopar o nfeProc.
type Protocolo struct {
	Chave       string
	Numero      string // nProt
	Recebimento string // dhRecbto como devolvido pela SEFAZ
	CStat       string
	XMotivo     string
	DigestValue string
}
