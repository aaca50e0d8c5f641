package entity

import "time"

// Certificado representa um certificado digital PKCS#12 da empresa.
// O arquivo .pfx e a senha ficam cifrados em repouso; aqui só a referência.
// Invariante: no máximo um certificado com Padrao = true por configuração.
type Certificado struct {
	ID              string
	EmpresaConfigID string
	Alias           string
	CaminhoArquivo  string // caminho do .pfx cifrado em disco
	SenhaCifrada    []byte // senha cifrada (secretbox)
	Titular         string // subject extraído do X.509
	Emissor         string // issuer extraído do X.509
	ValidoAte       time.Time
	Padrao          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Vencido informa se o certificado já passou da validade.
func (c *Certificado) Vencido(agora time.Time) bool {
	return !c.ValidoAte.IsZero() && agora.After(c.ValidoAte)
}
