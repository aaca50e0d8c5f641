package dto

import (
	"time"

	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
)

// VendaFiscalResponse é a visão fiscal da venda exposta pela API.
type VendaFiscalResponse struct {
	ID                 string     `json:"id"`
	Status             string     `json:"status"`
	Numero             int64      `json:"numero,omitempty"`
	ChaveNFCe          string     `json:"chave_nfce,omitempty"`
	Protocolo          string     `json:"protocolo,omitempty"`
	CaminhoXML         string     `json:"caminho_xml,omitempty"`
	AutorizadaEm       *time.Time `json:"autorizada_em,omitempty"`
	CanceladaEm        *time.Time `json:"cancelada_em,omitempty"`
	MotivoCancelamento string     `json:"motivo_cancelamento,omitempty"`
	CodigoErroSefaz    string     `json:"codigo_erro_sefaz,omitempty"`
	MensagemErro       string     `json:"mensagem_erro,omitempty"`
}

// NovaVendaFiscalResponse converte a entidade para o DTO de resposta.
func NovaVendaFiscalResponse(v *entity.Venda) VendaFiscalResponse {
	return VendaFiscalResponse{
		ID:                 v.ID,
		Status:             v.Status,
		Numero:             v.Numero,
		ChaveNFCe:          v.ChaveNFCe,
		Protocolo:          v.Protocolo,
		CaminhoXML:         v.CaminhoXML,
		AutorizadaEm:       v.AutorizadaEm,
		CanceladaEm:        v.CanceladaEm,
		MotivoCancelamento: v.MotivoCancelamento,
		CodigoErroSefaz:    v.CodigoErroSefaz,
		MensagemErro:       v.MensagemErro,
	}
}

// CancelarVendaRequest corpo do cancelamento.
type CancelarVendaRequest struct {
	Justificativa string `json:"justificativa"`
}

// StatusServicoResponse resultado do probe de status da SEFAZ.
type StatusServicoResponse struct {
	Online  bool   `json:"online"`
	CStat   string `json:"cstat"`
	XMotivo string `json:"xmotivo"`
}

// CriarInutilizacaoRequest corpo da criação de inutilização.
type CriarInutilizacaoRequest struct {
	Serie         int    `json:"serie"`
	NumeroInicial int64  `json:"numero_inicial"`
	NumeroFinal   int64  `json:"numero_final"`
	Justificativa string `json:"justificativa"`
}

// InutilizacaoResponse visão da inutilização exposta pela API.
type InutilizacaoResponse struct {
	ID            string    `json:"id"`
	Serie         int       `json:"serie"`
	NumeroInicial int64     `json:"numero_inicial"`
	NumeroFinal   int64     `json:"numero_final"`
	Justificativa string    `json:"justificativa"`
	Status        string    `json:"status"`
	Tentativas    int       `json:"tentativas"`
	Protocolo     string    `json:"protocolo,omitempty"`
	CodigoErro    string    `json:"codigo_erro,omitempty"`
	MensagemErro  string    `json:"mensagem_erro,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NovaInutilizacaoResponse converte a entidade para o DTO de resposta.
func NovaInutilizacaoResponse(i *entity.Inutilizacao) InutilizacaoResponse {
	return InutilizacaoResponse{
		ID:            i.ID,
		Serie:         i.Serie,
		NumeroInicial: i.NumeroInicial,
		NumeroFinal:   i.NumeroFinal,
		Justificativa: i.Justificativa,
		Status:        i.Status,
		Tentativas:    i.Tentativas,
		Protocolo:     i.Protocolo,
		CodigoErro:    i.CodigoErro,
		MensagemErro:  i.MensagemErro,
		CreatedAt:     i.CreatedAt,
	}
}

// CertificadoResponse visão do certificado sem material sensível: nem o
// arquivo nem a senha cifrada saem pela API.
type CertificadoResponse struct {
	ID        string    `json:"id"`
	Alias     string    `json:"alias"`
	Titular   string    `json:"titular"`
	Emissor   string    `json:"emissor"`
	ValidoAte time.Time `json:"valido_ate"`
	Padrao    bool      `json:"padrao"`
	Vencido   bool      `json:"vencido"`
}

// NovoCertificadoResponse converte a entidade para o DTO de resposta.
func NovoCertificadoResponse(c *entity.Certificado, agora time.Time) CertificadoResponse {
	return CertificadoResponse{
		ID:        c.ID,
		Alias:     c.Alias,
		Titular:   c.Titular,
		Emissor:   c.Emissor,
		ValidoAte: c.ValidoAte,
		Padrao:    c.Padrao,
		Vencido:   c.Vencido(agora),
	}
}

// EmpresaConfigRequest corpo da atualização administrativa da configuração.
type EmpresaConfigRequest struct {
	RazaoSocial        string `json:"razao_social"`
	NomeFantasia       string `json:"nome_fantasia"`
	CNPJ               string `json:"cnpj"`
	InscricaoEstadual  string `json:"inscricao_estadual"`
	InscricaoMunicipal string `json:"inscricao_municipal"`
	Logradouro         string `json:"logradouro"`
	Numero             string `json:"numero"`
	Complemento        string `json:"complemento"`
	Bairro             string `json:"bairro"`
	CodMunicipio       string `json:"cod_municipio"`
	Municipio          string `json:"municipio"`
	UF                 string `json:"uf"`
	CEP                string `json:"cep"`
	Ambiente           string `json:"ambiente"`
	Serie              int    `json:"serie"`
	CSCID              string `json:"csc_id"`
	CSCToken           string `json:"csc_token"`
}

// ParaEntidade converte o request num EmpresaConfig para validação no caso de uso.
func (r EmpresaConfigRequest) ParaEntidade() *entity.EmpresaConfig {
	return &entity.EmpresaConfig{
		RazaoSocial:        r.RazaoSocial,
		NomeFantasia:       r.NomeFantasia,
		CNPJ:               r.CNPJ,
		InscricaoEstadual:  r.InscricaoEstadual,
		InscricaoMunicipal: r.InscricaoMunicipal,
		Endereco: entity.Endereco{
			Logradouro:   r.Logradouro,
			Numero:       r.Numero,
			Complemento:  r.Complemento,
			Bairro:       r.Bairro,
			CodMunicipio: r.CodMunicipio,
			Municipio:    r.Municipio,
			UF:           r.UF,
			CEP:          r.CEP,
		},
		Ambiente: r.Ambiente,
		Serie:    r.Serie,
		CSCID:    r.CSCID,
		CSCToken: r.CSCToken,
	}
}

// EmpresaConfigResponse visão da configuração fiscal. O token do CSC não sai
// pela API; só a indicação de que está configurado.
type EmpresaConfigResponse struct {
	RazaoSocial        string `json:"razao_social"`
	NomeFantasia       string `json:"nome_fantasia,omitempty"`
	CNPJ               string `json:"cnpj"`
	InscricaoEstadual  string `json:"inscricao_estadual"`
	InscricaoMunicipal string `json:"inscricao_municipal,omitempty"`
	Logradouro         string `json:"logradouro"`
	Numero             string `json:"numero"`
	Complemento        string `json:"complemento,omitempty"`
	Bairro             string `json:"bairro"`
	CodMunicipio       string `json:"cod_municipio"`
	Municipio          string `json:"municipio"`
	UF                 string `json:"uf"`
	CEP                string `json:"cep"`
	Ambiente           string `json:"ambiente"`
	Serie              int    `json:"serie"`
	ProximoNumero      int64  `json:"proximo_numero"`
	CSCID              string `json:"csc_id,omitempty"`
	CSCConfigurado     bool   `json:"csc_configurado"`
}

// NovaEmpresaConfigResponse converte a entidade para o DTO de resposta.
func NovaEmpresaConfigResponse(c *entity.EmpresaConfig) EmpresaConfigResponse {
	return EmpresaConfigResponse{
		RazaoSocial:        c.RazaoSocial,
		NomeFantasia:       c.NomeFantasia,
		CNPJ:               c.CNPJ,
		InscricaoEstadual:  c.InscricaoEstadual,
		InscricaoMunicipal: c.InscricaoMunicipal,
		Logradouro:         c.Endereco.Logradouro,
		Numero:             c.Endereco.Numero,
		Complemento:        c.Endereco.Complemento,
		Bairro:             c.Endereco.Bairro,
		CodMunicipio:       c.Endereco.CodMunicipio,
		Municipio:          c.Endereco.Municipio,
		UF:                 c.Endereco.UF,
		CEP:                c.Endereco.CEP,
		Ambiente:           c.Ambiente,
		Serie:              c.Serie,
		ProximoNumero:      c.ProximoNumero,
		CSCID:              c.CSCID,
		CSCConfigurado:     c.CSCID != "" && c.CSCToken != "",
	}
}
