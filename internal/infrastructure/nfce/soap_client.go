package nfce

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"

	"github.com/seu-usuario/pdv-fiscal/internal/domain"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
)

// ── Endpoints por ambiente ────────────────────────────────────────────────────

// Operações expostas pelo web service da SEFAZ usadas pelo motor.
const (
	OperacaoAutorizacao   = "nfeAutorizacaoLote"
	OperacaoRetAutorizacao = "nfeRetAutorizacaoLote"
	OperacaoStatusServico  = "nfeStatusServicoNF"
	OperacaoInutilizacao   = "nfeInutilizacaoNF"
)

// Tabelas de endpoint (SVRS). Chaveadas por ambiente e operação; podem ser
// sobrescritas por configuração para UFs com autorizador próprio.
var endpointsPadrao = map[string]map[string]string{
	entity.AmbienteHomologacao: {
		OperacaoAutorizacao:    "https://nfce-homologacao.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
		OperacaoRetAutorizacao: "https://nfce-homologacao.svrs.rs.gov.br/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
		OperacaoStatusServico:  "https://nfce-homologacao.svrs.rs.gov.br/ws/NfeStatusServico/NfeStatusServico4.asmx",
		OperacaoInutilizacao:   "https://nfce-homologacao.svrs.rs.gov.br/ws/nfeInutilizacao/nfeInutilizacao4.asmx",
	},
	entity.AmbienteProducao: {
		OperacaoAutorizacao:    "https://nfce.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
		OperacaoRetAutorizacao: "https://nfce.svrs.rs.gov.br/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
		OperacaoStatusServico:  "https://nfce.svrs.rs.gov.br/ws/NfeStatusServico/NfeStatusServico4.asmx",
		OperacaoInutilizacao:   "https://nfce.svrs.rs.gov.br/ws/nfeInutilizacao/nfeInutilizacao4.asmx",
	},
}

// Namespaces WSDL por operação (o envelope é qualificado por operação).
var namespacesWSDL = map[string]string{
	OperacaoAutorizacao:    "http://www.portalfiscal.inf.br/nfe/wsdl/NFeAutorizacao4",
	OperacaoRetAutorizacao: "http://www.portalfiscal.inf.br/nfe/wsdl/NFeRetAutorizacao4",
	OperacaoStatusServico:  "http://www.portalfiscal.inf.br/nfe/wsdl/NFeStatusServico4",
	OperacaoInutilizacao:   "http://www.portalfiscal.inf.br/nfe/wsdl/NFeInutilizacao4",
}

const (
	soapNS12       = "http://www.w3.org/2003/05/soap-envelope"
	timeoutPadrao  = 30 * time.Second
	limiteResposta = 1 << 20 // 1 MB
)

// ── Resultados ────────────────────────────────────────────────────────────────

// RetornoLote é o resultado do envio ou da consulta de lote.
type RetornoLote struct {
	CStat   string
	XMotivo string
	Recibo  string     // nRec (presente quando cStat 103)
	Prot    *Protocolo // protocolo individual (presente quando cStat 104)
}

// RetornoStatus é o resultado do probe de status do serviço.
type RetornoStatus struct {
	CStat   string
	XMotivo string
	Online  bool // cStat 107
}

// RetornoInutilizacao é o resultado do pedido de inutilização.
type RetornoInutilizacao struct {
	CStat     string
	XMotivo   string
	Protocolo string
}

// ── Cliente SOAP ──────────────────────────────────────────────────────────────

// ClientConfig parametriza o cliente SOAP da SEFAZ.
type ClientConfig struct {
	Ambiente  string            // producao | homologacao
	CodigoUF  string            // código IBGE da UF (cUF do cabeçalho)
	Timeout   time.Duration     // 0 = 30 s
	Endpoints map[string]string // override por operação; vazio = tabela padrão
}

// SOAPClient fala com o web service da SEFAZ usando net/http e envelopes
// SOAP 1.2 serializados com encoding/xml. As respostas são percorridas com
// etree porque cada operação aninha o retorno num namespace WSDL próprio.
type SOAPClient struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewSOAPClient constrói o cliente com o timeout configurado (padrão 30 s).
func NewSOAPClient(cfg ClientConfig) *SOAPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = timeoutPadrao
	}
	return &SOAPClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ── Envelope ──────────────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name `xml:"soap12:Envelope"`
	XmlnsS  string   `xml:"xmlns:soap12,attr"`
	Body    soapBody `xml:"soap12:Body"`
}

type soapBody struct {
	Content nfeDadosMsg `xml:"nfeDadosMsg"`
}

type nfeDadosMsg struct {
	XMLName xml.Name `xml:"nfeDadosMsg"`
	Xmlns   string   `xml:"xmlns,attr"`
	Payload string   `xml:",innerxml"` // XML da mensagem, incluído verbatim
}

// ── Operações ─────────────────────────────────────────────────────────────────

// EnviarLote envia um lote síncrono (indSinc=1) com um único documento assinado.
func (c *SOAPClient) EnviarLote(ctx context.Context, loteID string, nfeAssinado []byte) (*RetornoLote, error) {
	var msg bytes.Buffer
	msg.WriteString(`<enviNFe xmlns="` + NsNFe + `" versao="` + VersaoLayout + `">`)
	msg.WriteString(`<idLote>` + loteID + `</idLote>`)
	msg.WriteString(`<indSinc>1</indSinc>`)
	msg.Write(nfeAssinado)
	msg.WriteString(`</enviNFe>`)

	doc, err := c.post(ctx, OperacaoAutorizacao, msg.Bytes())
	if err != nil {
		return nil, err
	}
	return c.parseRetornoLote(doc, OperacaoAutorizacao)
}

// ConsultarRecibo consulta o resultado de processamento de um lote pelo nRec.
func (c *SOAPClient) ConsultarRecibo(ctx context.Context, recibo string) (*RetornoLote, error) {
	var msg bytes.Buffer
	msg.WriteString(`<consReciNFe xmlns="` + NsNFe + `" versao="` + VersaoLayout + `">`)
	msg.WriteString(`<tpAmb>` + c.tpAmb() + `</tpAmb>`)
	msg.WriteString(`<nRec>` + recibo + `</nRec>`)
	msg.WriteString(`</consReciNFe>`)

	doc, err := c.post(ctx, OperacaoRetAutorizacao, msg.Bytes())
	if err != nil {
		return nil, err
	}
	return c.parseRetornoLote(doc, OperacaoRetAutorizacao)
}

// ConsultarStatus verifica a disponibilidade do serviço de autorização.
// cStat 107 significa em operação; qualquer outro código, indisponível.
func (c *SOAPClient) ConsultarStatus(ctx context.Context) (*RetornoStatus, error) {
	var msg bytes.Buffer
	msg.WriteString(`<consStatServ xmlns="` + NsNFe + `" versao="` + VersaoLayout + `">`)
	msg.WriteString(`<tpAmb>` + c.tpAmb() + `</tpAmb>`)
	msg.WriteString(`<cUF>` + c.cfg.CodigoUF + `</cUF>`)
	msg.WriteString(`<xServ>STATUS</xServ>`)
	msg.WriteString(`</consStatServ>`)

	doc, err := c.post(ctx, OperacaoStatusServico, msg.Bytes())
	if err != nil {
		return nil, err
	}
	cStat, xMotivo, err := extrairStatus(doc, OperacaoStatusServico)
	if err != nil {
		return nil, err
	}
	return &RetornoStatus{CStat: cStat, XMotivo: xMotivo, Online: cStat == "107"}, nil
}

// Inutilizar envia o pedido de inutilização já assinado (inutNFe).
func (c *SOAPClient) Inutilizar(ctx context.Context, inutAssinado []byte) (*RetornoInutilizacao, error) {
	doc, err := c.post(ctx, OperacaoInutilizacao, inutAssinado)
	if err != nil {
		return nil, err
	}
	cStat, xMotivo, err := extrairStatus(doc, OperacaoInutilizacao)
	if err != nil {
		return nil, err
	}
	ret := &RetornoInutilizacao{CStat: cStat, XMotivo: xMotivo}
	if el := doc.FindElement("//nProt"); el != nil {
		ret.Protocolo = el.Text()
	}
	return ret, nil
}

// ── HTTP + parse ──────────────────────────────────────────────────────────────

func (c *SOAPClient) post(ctx context.Context, operacao string, payload []byte) (*etree.Document, error) {
	url, ok := c.endpoint(operacao)
	if !ok {
		return nil, &domain.ErroTransporte{Operacao: operacao, Causa: fmt.Errorf("endpoint não configurado para o ambiente %q", c.cfg.Ambiente)}
	}

	envelope := soapEnvelope{
		XmlnsS: soapNS12,
		Body: soapBody{Content: nfeDadosMsg{
			Xmlns:   namespacesWSDL[operacao],
			Payload: string(payload),
		}},
	}
	body, err := xml.Marshal(envelope)
	if err != nil {
		return nil, &domain.ErroTransporte{Operacao: operacao, Causa: fmt.Errorf("serializar envelope: %w", err)}
	}
	body = append([]byte(xml.Header), body...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.ErroTransporte{Operacao: operacao, Causa: err}
	}
	req.Header.Set("Content-Type", `application/soap+xml; charset=utf-8`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &domain.ErroTransporte{Operacao: operacao, Causa: fmt.Errorf("timeout ou cancelamento: %w", ctx.Err())}
		}
		return nil, &domain.ErroTransporte{Operacao: operacao, Causa: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, limiteResposta))
	if err != nil {
		return nil, &domain.ErroTransporte{Operacao: operacao, Causa: fmt.Errorf("ler resposta: %w", err)}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &domain.ErroTransporte{Operacao: operacao, Causa: fmt.Errorf("resposta vazia da SEFAZ (HTTP %d)", resp.StatusCode)}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, &domain.ErroTransporte{Operacao: operacao, Causa: fmt.Errorf("resposta ilegível: %w", err)}
	}

	// SOAP Fault curto-circuita com o motivo do fault.
	if fault := doc.FindElement("//Fault"); fault != nil {
		motivo := ""
		if reason := fault.FindElement(".//Text"); reason != nil {
			motivo = reason.Text()
		} else if fs := fault.FindElement(".//faultstring"); fs != nil {
			motivo = fs.Text()
		}
		return nil, &domain.ErroTransporte{Operacao: operacao, Causa: fmt.Errorf("SOAP Fault: %s", motivo)}
	}
	return doc, nil
}

func (c *SOAPClient) parseRetornoLote(doc *etree.Document, operacao string) (*RetornoLote, error) {
	retorno := doc.FindElement("//retEnviNFe")
	if retorno == nil {
		retorno = doc.FindElement("//retConsReciNFe")
	}
	if retorno == nil {
		return nil, &domain.ErroTransporte{Operacao: operacao, Causa: fmt.Errorf("resposta sem retEnviNFe/retConsReciNFe")}
	}
	ret := &RetornoLote{
		CStat:   textoFilho(retorno, "cStat"),
		XMotivo: textoFilho(retorno, "xMotivo"),
	}
	if ret.CStat == "" {
		return nil, &domain.ErroTransporte{Operacao: operacao, Causa: fmt.Errorf("resposta sem cStat")}
	}
	if infRec := retorno.FindElement("infRec"); infRec != nil {
		ret.Recibo = textoFilho(infRec, "nRec")
	}
	if infProt := retorno.FindElement("protNFe/infProt"); infProt != nil {
		ret.Prot = &Protocolo{
			Chave:       textoFilho(infProt, "chNFe"),
			Numero:      textoFilho(infProt, "nProt"),
			Recebimento: textoFilho(infProt, "dhRecbto"),
			CStat:       textoFilho(infProt, "cStat"),
			XMotivo:     textoFilho(infProt, "xMotivo"),
			DigestValue: textoFilho(infProt, "digVal"),
		}
	}
	return ret, nil
}

// extrairStatus pega o cStat/xMotivo do elemento de retorno da operação.
func extrairStatus(doc *etree.Document, operacao string) (string, string, error) {
	el := doc.FindElement("//cStat")
	if el == nil {
		return "", "", &domain.ErroTransporte{Operacao: operacao, Causa: fmt.Errorf("resposta sem cStat")}
	}
	motivo := ""
	if m := doc.FindElement("//xMotivo"); m != nil {
		motivo = m.Text()
	}
	return el.Text(), motivo, nil
}

func textoFilho(el *etree.Element, nome string) string {
	if filho := el.FindElement(nome); filho != nil {
		return filho.Text()
	}
	return ""
}

func (c *SOAPClient) endpoint(operacao string) (string, bool) {
	if c.cfg.Endpoints != nil {
		if url, ok := c.cfg.Endpoints[operacao]; ok && url != "" {
			return url, true
		}
	}
	tabela, ok := endpointsPadrao[c.cfg.Ambiente]
	if !ok {
		return "", false
	}
	url, ok := tabela[operacao]
	return url, ok && url != ""
}

func (c *SOAPClient) tpAmb() string {
	if c.cfg.Ambiente == entity.AmbienteProducao {
		return "1"
	}
	return "2"
}
