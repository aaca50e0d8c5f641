package entity

import "time"

// Ambientes de emissão SEFAZ (tpAmb).
const (
	AmbienteProducao    = "producao"    // tpAmb = 1
	AmbienteHomologacao = "homologacao" // tpAmb = 2
)

// Endereco é o endereço estruturado do emitente. Decodificado uma vez na
// borda; o builder de XML nunca manipula blobs de endereço inline.
type Endereco struct {
	Logradouro  string
	Numero      string
	Complemento string
	Bairro      string
	CodMunicipio string // código IBGE do município (7 dígitos)
	Municipio   string
	UF          string // sigla (SP, RS, ...)
	CEP         string
}

// EmpresaConfig é a configuração fiscal da empresa (singleton por implantação).
// Somente leitura durante a emissão; alterada apenas pela rota administrativa.
type EmpresaConfig struct {
	ID                string
	RazaoSocial       string
	NomeFantasia      string
	CNPJ              string
	InscricaoEstadual string
	InscricaoMunicipal string
	Endereco          Endereco
	Ambiente          string // producao | homologacao
	Serie             int
	ProximoNumero     int64
	CSCID             string // identificador do CSC (Código de Segurança do Contribuinte)
	CSCToken          string // token do CSC, usado no hash do QR Code
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TpAmb devolve o flag de ambiente no formato do layout 4.00 (1=produção, 2=homologação).
func (c *EmpresaConfig) TpAmb() string {
	if c.Ambiente == AmbienteProducao {
		return "1"
	}
	return "2"
}

// CodigoUF devolve o código IBGE da UF do emitente (usado na chave e no cabeçalho SOAP).
func (c *EmpresaConfig) CodigoUF() string {
	return CodigoUF(c.Endereco.UF)
}

// Tabela IBGE de códigos de UF.
var codigosUF = map[string]string{
	"RO": "11", "AC": "12", "AM": "13", "RR": "14", "PA": "15", "AP": "16", "TO": "17",
	"MA": "21", "PI": "22", "CE": "23", "RN": "24", "PB": "25", "PE": "26", "AL": "27", "SE": "28", "BA": "29",
	"MG": "31", "ES": "32", "RJ": "33", "SP": "35",
	"PR": "41", "SC": "42", "RS": "43",
	"MS": "50", "MT": "51", "GO": "52", "DF": "53",
}

// CodigoUF devolve o código IBGE de uma sigla de UF, ou "" se desconhecida.
func CodigoUF(sigla string) string {
	return codigosUF[sigla]
}
