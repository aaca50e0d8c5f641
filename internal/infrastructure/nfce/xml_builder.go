package nfce

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
)

// Natureza da operação e mensagem fixa de homologação (layout 4.00).
const (
	naturezaOperacao  = "VENDA AO CONSUMIDOR"
	infCplHomologacao = "EMITIDA EM AMBIENTE DE HOMOLOGACAO - SEM VALOR FISCAL"

	// Nome do destinatário exigido pela SEFAZ em homologação.
	destNomeHomologacao = "NF-E EMITIDA EM AMBIENTE DE HOMOLOGACAO - SEM VALOR FISCAL"
)

// XMLBuilderService monta o documento NFC-e (sem assinatura) a partir da
// venda, da configuração da empresa e do cliente opcional. A formatação
// numérica aqui é contrato, não cosmética: valor monetário com 2 casas,
// quantidade com 4; erro de formato vira rejeição da SEFAZ.
type XMLBuilderService struct {
	qr *QRCodeBuilder
}

// NewXMLBuilderService cria o builder. qr pode ser nil (documento sem infNFeSupl,
// útil nos testes do miolo fiscal).
func NewXMLBuilderService(qr *QRCodeBuilder) *XMLBuilderService {
	return &XMLBuilderService{qr: qr}
}

// Build gera os bytes do <NFe> não assinado, com infNFe identificado por
// Id="NFe"+chave para a Reference da assinatura.
func (s *XMLBuilderService) Build(ctx *VendaBuildContext) ([]byte, error) {
	if err := s.validar(ctx); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	root := xml.StartElement{
		Name: xml.Name{Local: "NFe"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: NsNFe}},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	infNFe := xml.StartElement{
		Name: xml.Name{Local: "infNFe"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "Id"}, Value: "NFe" + ctx.Chave},
			{Name: xml.Name{Local: "versao"}, Value: VersaoLayout},
		},
	}
	if err := enc.EncodeToken(infNFe); err != nil {
		return nil, err
	}

	s.writeIde(enc, ctx)
	s.writeEmit(enc, ctx.Empresa)
	s.writeDest(enc, ctx)
	for i, item := range ctx.Venda.Itens {
		s.writeDet(enc, i+1, item)
	}
	s.writeTotal(enc, ctx.Venda)
	s.writeTransp(enc)
	s.writePag(enc, ctx.Venda)
	s.writeInfAdic(enc, ctx.Empresa)

	if err := enc.EncodeToken(infNFe.End()); err != nil {
		return nil, err
	}

	// infNFeSupl (QR Code) vem depois de infNFe e antes da Signature.
	if s.qr != nil {
		qr, err := s.qr.Montar(ctx.Chave, ctx.Empresa)
		if err != nil {
			return nil, err
		}
		writeStart(enc, "infNFeSupl")
		writeEl(enc, "qrCode", qr.QRCode)
		writeEl(enc, "urlChave", qr.URLChave)
		writeEnd(enc, "infNFeSupl")
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *XMLBuilderService) validar(ctx *VendaBuildContext) error {
	if ctx == nil || ctx.Venda == nil || ctx.Empresa == nil {
		return fmt.Errorf("nfce: faltam venda ou configuração da empresa no contexto")
	}
	if len(ctx.Chave) != 44 {
		return fmt.Errorf("nfce: chave de acesso inválida no contexto: %q", ctx.Chave)
	}
	if len(ctx.Venda.Itens) == 0 {
		return fmt.Errorf("nfce: venda sem itens")
	}
	emp := ctx.Empresa
	switch {
	case emp.CNPJ == "":
		return fmt.Errorf("nfce: CNPJ do emitente não configurado")
	case emp.RazaoSocial == "":
		return fmt.Errorf("nfce: razão social do emitente não configurada")
	case emp.InscricaoEstadual == "":
		return fmt.Errorf("nfce: inscrição estadual não configurada")
	case emp.Endereco.CodMunicipio == "":
		return fmt.Errorf("nfce: código de município do emitente não configurado")
	case emp.CodigoUF() == "":
		return fmt.Errorf("nfce: UF do emitente inválida: %q", emp.Endereco.UF)
	}
	return nil
}

// writeIde escreve o bloco de identificação. cNF e cDV saem da própria chave
// já calculada, garantindo coerência entre chave e documento.
func (s *XMLBuilderService) writeIde(enc *xml.Encoder, ctx *VendaBuildContext) {
	v := ctx.Venda
	emp := ctx.Empresa
	writeStart(enc, "ide")
	writeEl(enc, "cUF", emp.CodigoUF())
	writeEl(enc, "cNF", ctx.Chave[35:43])
	writeEl(enc, "natOp", naturezaOperacao)
	writeEl(enc, "mod", "65")
	writeEl(enc, "serie", strconv.Itoa(emp.Serie))
	writeEl(enc, "nNF", strconv.FormatInt(v.Numero, 10))
	writeEl(enc, "dhEmi", v.CreatedAt.Format("2006-01-02T15:04:05-07:00"))
	writeEl(enc, "tpNF", "1")    // saída
	writeEl(enc, "idDest", "1")  // operação interna
	writeEl(enc, "cMunFG", emp.Endereco.CodMunicipio)
	writeEl(enc, "tpImp", "4")   // DANFE NFC-e
	writeEl(enc, "tpEmis", "1")  // emissão normal
	writeEl(enc, "cDV", ctx.Chave[43:])
	writeEl(enc, "tpAmb", emp.TpAmb())
	writeEl(enc, "finNFe", "1")  // NF-e normal
	writeEl(enc, "indFinal", "1") // consumidor final
	writeEl(enc, "indPres", "1")  // operação presencial
	writeEl(enc, "procEmi", "0")
	writeEl(enc, "verProc", "pdv-fiscal 1.0")
	writeEnd(enc, "ide")
}

func (s *XMLBuilderService) writeEmit(enc *xml.Encoder, emp *entity.EmpresaConfig) {
	writeStart(enc, "emit")
	writeEl(enc, "CNPJ", somenteDigitos(emp.CNPJ))
	writeEl(enc, "xNome", SanitizarTexto(emp.RazaoSocial, 60))
	if emp.NomeFantasia != "" {
		writeEl(enc, "xFant", SanitizarTexto(emp.NomeFantasia, 60))
	}
	end := emp.Endereco
	writeStart(enc, "enderEmit")
	writeEl(enc, "xLgr", SanitizarTexto(end.Logradouro, 60))
	writeEl(enc, "nro", SanitizarTexto(end.Numero, 60))
	if end.Complemento != "" {
		writeEl(enc, "xCpl", SanitizarTexto(end.Complemento, 60))
	}
	writeEl(enc, "xBairro", SanitizarTexto(end.Bairro, 60))
	writeEl(enc, "cMun", end.CodMunicipio)
	writeEl(enc, "xMun", SanitizarTexto(end.Municipio, 60))
	writeEl(enc, "UF", end.UF)
	writeEl(enc, "CEP", somenteDigitos(end.CEP))
	writeEl(enc, "cPais", "1058")
	writeEl(enc, "xPais", "BRASIL")
	writeEnd(enc, "enderEmit")
	writeEl(enc, "IE", somenteDigitos(emp.InscricaoEstadual))
	if emp.InscricaoMunicipal != "" {
		writeEl(enc, "IM", somenteDigitos(emp.InscricaoMunicipal))
	}
	writeEl(enc, "CRT", "1") // Simples Nacional
	writeEnd(enc, "emit")
}

// writeDest escreve o destinatário; sem cliente identificado o bloco inteiro
// é omitido (NFC-e ao consumidor anônimo).
func (s *XMLBuilderService) writeDest(enc *xml.Encoder, ctx *VendaBuildContext) {
	cli := ctx.Cliente
	if cli == nil || (cli.CPF == "" && cli.CNPJ == "") {
		return
	}
	writeStart(enc, "dest")
	if cli.CNPJ != "" {
		writeEl(enc, "CNPJ", somenteDigitos(cli.CNPJ))
	} else {
		writeEl(enc, "CPF", somenteDigitos(cli.CPF))
	}
	nome := SanitizarTexto(cli.Nome, 60)
	if ctx.Empresa.Ambiente == entity.AmbienteHomologacao {
		nome = destNomeHomologacao
	}
	if nome != "" {
		writeEl(enc, "xNome", nome)
	}
	writeEl(enc, "indIEDest", "9") // não contribuinte
	writeEnd(enc, "dest")
}

// writeDet escreve um item da venda com os grupos de tributação do Simples
// Nacional: ICMSSN102 (isento), PIS e COFINS não tributados (CST 07).
func (s *XMLBuilderService) writeDet(enc *xml.Encoder, nItem int, item entity.ItemVenda) {
	det := xml.StartElement{
		Name: xml.Name{Local: "det"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "nItem"}, Value: strconv.Itoa(nItem)}},
	}
	_ = enc.EncodeToken(det)

	writeStart(enc, "prod")
	writeEl(enc, "cProd", SanitizarTexto(item.CodigoProduto, 60))
	writeEl(enc, "cEAN", "SEM GTIN")
	writeEl(enc, "xProd", SanitizarTexto(item.Descricao, 120))
	writeEl(enc, "NCM", defaultStr(somenteDigitos(item.NCM), "00000000"))
	writeEl(enc, "CFOP", defaultStr(somenteDigitos(item.CFOP), "5102"))
	writeEl(enc, "uCom", defaultStr(item.Unidade, "UN"))
	writeEl(enc, "qCom", formatQtd(item.Quantidade))
	writeEl(enc, "vUnCom", formatValor(item.PrecoUnitario))
	writeEl(enc, "vProd", formatValor(item.Quantidade.Mul(item.PrecoUnitario)))
	writeEl(enc, "cEANTrib", "SEM GTIN")
	writeEl(enc, "uTrib", defaultStr(item.Unidade, "UN"))
	writeEl(enc, "qTrib", formatQtd(item.Quantidade))
	writeEl(enc, "vUnTrib", formatValor(item.PrecoUnitario))
	writeEl(enc, "indTot", "1")
	writeEnd(enc, "prod")

	writeStart(enc, "imposto")
	writeStart(enc, "ICMS")
	writeStart(enc, "ICMSSN102")
	writeEl(enc, "orig", "0")
	writeEl(enc, "CSOSN", "102")
	writeEnd(enc, "ICMSSN102")
	writeEnd(enc, "ICMS")
	writeStart(enc, "PIS")
	writeStart(enc, "PISNT")
	writeEl(enc, "CST", "07")
	writeEnd(enc, "PISNT")
	writeEnd(enc, "PIS")
	writeStart(enc, "COFINS")
	writeStart(enc, "COFINSNT")
	writeEl(enc, "CST", "07")
	writeEnd(enc, "COFINSNT")
	writeEnd(enc, "COFINS")
	writeEnd(enc, "imposto")

	_ = enc.EncodeToken(det.End())
}

// writeTotal escreve o ICMSTot. vProd = Σ(qtd × preço); vNF = vProd − vDesc +
// componentes que são zero no regime simplificado modelado aqui.
func (s *XMLBuilderService) writeTotal(enc *xml.Encoder, v *entity.Venda) {
	vProd := v.SubtotalProdutos()
	zero := formatValor(decimal.Zero)
	writeStart(enc, "total")
	writeStart(enc, "ICMSTot")
	writeEl(enc, "vBC", zero)
	writeEl(enc, "vICMS", zero)
	writeEl(enc, "vICMSDeson", zero)
	writeEl(enc, "vFCP", zero)
	writeEl(enc, "vBCST", zero)
	writeEl(enc, "vST", zero)
	writeEl(enc, "vFCPST", zero)
	writeEl(enc, "vFCPSTRet", zero)
	writeEl(enc, "vProd", formatValor(vProd))
	writeEl(enc, "vFrete", zero)
	writeEl(enc, "vSeg", zero)
	writeEl(enc, "vDesc", zero)
	writeEl(enc, "vII", zero)
	writeEl(enc, "vIPI", zero)
	writeEl(enc, "vIPIDevol", zero)
	writeEl(enc, "vPIS", zero)
	writeEl(enc, "vCOFINS", zero)
	writeEl(enc, "vOutro", zero)
	writeEl(enc, "vNF", formatValor(vProd))
	writeEnd(enc, "ICMSTot")
	writeEnd(enc, "total")
}

func (s *XMLBuilderService) writeTransp(enc *xml.Encoder) {
	writeStart(enc, "transp")
	writeEl(enc, "modFrete", "9") // sem frete
	writeEnd(enc, "transp")
}

// writePag escreve um único detalhamento de pagamento à vista pelo total.
func (s *XMLBuilderService) writePag(enc *xml.Encoder, v *entity.Venda) {
	writeStart(enc, "pag")
	writeStart(enc, "detPag")
	writeEl(enc, "tPag", "01") // dinheiro
	writeEl(enc, "vPag", formatValor(v.SubtotalProdutos()))
	writeEnd(enc, "detPag")
	writeEnd(enc, "pag")
}

func (s *XMLBuilderService) writeInfAdic(enc *xml.Encoder, emp *entity.EmpresaConfig) {
	if emp.Ambiente != entity.AmbienteHomologacao {
		return
	}
	writeStart(enc, "infAdic")
	writeEl(enc, "infCpl", infCplHomologacao)
	writeEnd(enc, "infAdic")
}

// MontarProcNFe envolve o NFe assinado e o protocolo de autorização no
// envelope nfeProc, que é o artefato persistido após a autorização.
func MontarProcNFe(nfeAssinado []byte, prot *Protocolo) ([]byte, error) {
	if len(nfeAssinado) == 0 || prot == nil {
		return nil, fmt.Errorf("nfce: NFe assinado e protocolo são obrigatórios")
	}
	var buf bytes.Buffer
	buf.WriteString(`<nfeProc xmlns="` + NsNFe + `" versao="` + VersaoLayout + `">`)
	buf.Write(nfeAssinado)
	buf.WriteString(`<protNFe versao="` + VersaoLayout + `"><infProt>`)
	buf.WriteString(`<chNFe>` + prot.Chave + `</chNFe>`)
	buf.WriteString(`<dhRecbto>` + prot.Recebimento + `</dhRecbto>`)
	buf.WriteString(`<nProt>` + prot.Numero + `</nProt>`)
	if prot.DigestValue != "" {
		buf.WriteString(`<digVal>` + prot.DigestValue + `</digVal>`)
	}
	buf.WriteString(`<cStat>` + prot.CStat + `</cStat>`)
	buf.WriteString(`<xMotivo>` + escapeXML(prot.XMotivo) + `</xMotivo>`)
	buf.WriteString(`</infProt></protNFe></nfeProc>`)
	return buf.Bytes(), nil
}

// ── helpers de escrita ────────────────────────────────────────────────────────

func writeStart(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
}

func writeEnd(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

func writeEl(enc *xml.Encoder, local, value string) {
	writeStart(enc, local)
	_ = enc.EncodeToken(xml.CharData(value))
	writeEnd(enc, local)
}

// formatValor formata valores monetários com exatamente 2 casas decimais.
func formatValor(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// formatQtd formata quantidades com exatamente 4 casas decimais.
func formatQtd(d decimal.Decimal) string {
	return d.Round(4).StringFixed(4)
}

func defaultStr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func somenteDigitos(s string) string {
	var out []byte
	for _, b := range []byte(s) {
		if b >= '0' && b <= '9' {
			out = append(out, b)
		}
	}
	return string(out)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
