package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status fiscais da venda.
const (
	StatusVendaRascunho            = "rascunho"
	StatusVendaAutorizacaoPendente = "autorizacao_pendente"
	StatusVendaAutorizada          = "autorizada"
	StatusVendaCancelada           = "cancelada"
)

// JanelaCancelamento é o prazo máximo após a autorização para cancelar a NFC-e.
const JanelaCancelamento = 30 * time.Minute

// TamanhoMinimoJustificativa vale tanto para cancelamento quanto para inutilização.
const TamanhoMinimoJustificativa = 15

// Venda carrega os campos fiscais de uma venda. O carrinho, o caixa e o
// cadastro em si são colaboradores externos; aqui só o que a emissão usa.
type Venda struct {
	ID                 string
	ClienteID          string // vazio = consumidor não identificado (sem dest)
	Numero             int64  // número sequencial da NFC-e (nNF)
	Status             string
	ChaveNFCe          string // chave de acesso de 44 dígitos (única depois de atribuída)
	Protocolo          string
	CaminhoXML         string
	AutorizadaEm       *time.Time
	CanceladaEm        *time.Time
	MotivoCancelamento string
	CaminhoXMLCancel   string
	MensagemErro       string
	CodigoErroSefaz    string
	Itens              []ItemVenda
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ItemVenda é o snapshot do produto no momento da venda. Imutável depois que
// a venda é autorizada; usado verbatim nos blocos det/imposto do XML.
type ItemVenda struct {
	ID            string
	VendaID       string
	CodigoProduto string
	Descricao     string
	NCM           string
	CFOP          string
	Unidade       string
	Quantidade    decimal.Decimal
	PrecoUnitario decimal.Decimal
	TotalLinha    decimal.Decimal
}

// SubtotalProdutos soma quantidade × preço unitário de todos os itens (vProd).
func (v *Venda) SubtotalProdutos() decimal.Decimal {
	total := decimal.Zero
	for _, it := range v.Itens {
		total = total.Add(it.Quantidade.Mul(it.PrecoUnitario))
	}
	return total.Round(2)
}

// PodeCancelar verifica a transição de cancelamento: só a partir de
// "autorizada" e dentro da janela de 30 minutos contada de AutorizadaEm.
func (v *Venda) PodeCancelar(agora time.Time) bool {
	if v.Status != StatusVendaAutorizada || v.AutorizadaEm == nil {
		return false
	}
	return agora.Sub(*v.AutorizadaEm) <= JanelaCancelamento
}
