package nfce

import (
	"fmt"
	"strings"
	"time"

	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
)

// Builders dos XMLs de evento de cancelamento e de inutilização de faixa.
// Ambos saem prontos para assinatura (infEvento/infInut com atributo Id).

const (
	versaoEvento       = "1.00"
	tpEventoCancelamento = "110111"
)

// CancelamentoParams reúne os dados do evento de cancelamento.
type CancelamentoParams struct {
	Chave         string // chave de acesso da NFC-e autorizada
	Protocolo     string // nProt da autorização
	Justificativa string
	Empresa       *entity.EmpresaConfig
	Emissao       time.Time
	Sequencia     int // nSeqEvento, 1 para o primeiro cancelamento
}

// MontarEventoCancelamento monta o XML do evento 110111 (cancelamento).
// Id = "ID" + tpEvento + chave + nSeqEvento com dois dígitos.
func MontarEventoCancelamento(p CancelamentoParams) ([]byte, error) {
	if len(p.Chave) != 44 {
		return nil, fmt.Errorf("nfce: chave inválida para cancelamento: %q", p.Chave)
	}
	if p.Protocolo == "" {
		return nil, fmt.Errorf("nfce: protocolo de autorização obrigatório no cancelamento")
	}
	if p.Empresa == nil {
		return nil, fmt.Errorf("nfce: configuração da empresa obrigatória")
	}
	seq := p.Sequencia
	if seq <= 0 {
		seq = 1
	}
	id := fmt.Sprintf("ID%s%s%02d", tpEventoCancelamento, p.Chave, seq)

	var sb strings.Builder
	sb.WriteString(`<evento xmlns="` + NsNFe + `" versao="` + versaoEvento + `">`)
	sb.WriteString(`<infEvento Id="` + id + `">`)
	sb.WriteString(`<cOrgao>` + p.Empresa.CodigoUF() + `</cOrgao>`)
	sb.WriteString(`<tpAmb>` + p.Empresa.TpAmb() + `</tpAmb>`)
	sb.WriteString(`<CNPJ>` + somenteDigitos(p.Empresa.CNPJ) + `</CNPJ>`)
	sb.WriteString(`<chNFe>` + p.Chave + `</chNFe>`)
	sb.WriteString(`<dhEvento>` + p.Emissao.Format("2006-01-02T15:04:05-07:00") + `</dhEvento>`)
	sb.WriteString(`<tpEvento>` + tpEventoCancelamento + `</tpEvento>`)
	sb.WriteString(fmt.Sprintf(`<nSeqEvento>%d</nSeqEvento>`, seq))
	sb.WriteString(`<verEvento>` + versaoEvento + `</verEvento>`)
	sb.WriteString(`<detEvento versao="` + versaoEvento + `">`)
	sb.WriteString(`<descEvento>Cancelamento</descEvento>`)
	sb.WriteString(`<nProt>` + escapeXML(p.Protocolo) + `</nProt>`)
	sb.WriteString(`<xJust>` + escapeXML(p.Justificativa) + `</xJust>`)
	sb.WriteString(`</detEvento>`)
	sb.WriteString(`</infEvento>`)
	sb.WriteString(`</evento>`)
	return []byte(sb.String()), nil
}

// InutilizacaoParams reúne os dados do pedido de inutilização de faixa.
type InutilizacaoParams struct {
	Empresa       *entity.EmpresaConfig
	Serie         int
	NumeroInicial int64
	NumeroFinal   int64
	Justificativa string
	Ano           time.Time // usado para o campo ano (dois dígitos)
}

// MontarInutilizacao monta o XML inutNFe do layout 4.00.
// Id = "ID" + cUF + ano(2) + CNPJ(14) + mod(2) + serie(3) + nNFIni(9) + nNFFin(9).
func MontarInutilizacao(p InutilizacaoParams) ([]byte, error) {
	if p.Empresa == nil {
		return nil, fmt.Errorf("nfce: configuração da empresa obrigatória")
	}
	cUF := p.Empresa.CodigoUF()
	if cUF == "" {
		return nil, fmt.Errorf("nfce: UF do emitente desconhecida: %q", p.Empresa.Endereco.UF)
	}
	cnpj := somenteDigitos(p.Empresa.CNPJ)
	ano := p.Ano.Format("06")
	id := fmt.Sprintf("ID%s%s%014s65%03d%09d%09d",
		cUF, ano, cnpj, p.Serie, p.NumeroInicial, p.NumeroFinal)

	var sb strings.Builder
	sb.WriteString(`<inutNFe xmlns="` + NsNFe + `" versao="` + VersaoLayout + `">`)
	sb.WriteString(`<infInut Id="` + id + `">`)
	sb.WriteString(`<tpAmb>` + p.Empresa.TpAmb() + `</tpAmb>`)
	sb.WriteString(`<xServ>INUTILIZAR</xServ>`)
	sb.WriteString(`<cUF>` + cUF + `</cUF>`)
	sb.WriteString(`<ano>` + ano + `</ano>`)
	sb.WriteString(`<CNPJ>` + cnpj + `</CNPJ>`)
	sb.WriteString(`<mod>65</mod>`)
	sb.WriteString(fmt.Sprintf(`<serie>%d</serie>`, p.Serie))
	sb.WriteString(fmt.Sprintf(`<nNFIni>%d</nNFIni>`, p.NumeroInicial))
	sb.WriteString(fmt.Sprintf(`<nNFFin>%d</nNFFin>`, p.NumeroFinal))
	sb.WriteString(`<xJust>` + escapeXML(p.Justificativa) + `</xJust>`)
	sb.WriteString(`</infInut>`)
	sb.WriteString(`</inutNFe>`)
	return []byte(sb.String()), nil
}
