// Package nfce: regras de domínio da NFC-e (modelo 65, layout 4.00).
// Chave de acesso, dígito verificador e tabela de códigos de status SEFAZ.
package nfce

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Constantes fixas da chave para este tipo de documento.
const (
	ModeloNFCe       = "65"
	TipoEmissaoNormal = "1"
)

// ChaveParams contém os dados para montar a chave de acesso de 44 dígitos.
type ChaveParams struct {
	CodigoUF string    // código IBGE da UF (2 dígitos)
	Emissao  time.Time // data de emissão (AAMM entra na chave)
	CNPJ     string    // CNPJ do emitente (14 dígitos, com ou sem máscara)
	Serie    int       // série do documento (0–999)
	Numero   int64     // número sequencial (nNF, 1–999999999)
	CNF      string    // código numérico de 8 dígitos; vazio = sorteia
}

// GerarChave monta a chave de acesso: cUF + AAMM + CNPJ + mod(65) + serie +
// nNF + tpEmis(1) + cNF + DV. Qualquer campo da empresa ausente vira erro de
// montagem, nunca uma chave inválida.
func GerarChave(p ChaveParams) (string, error) {
	if len(p.CodigoUF) != 2 {
		return "", fmt.Errorf("nfce: código UF inválido %q", p.CodigoUF)
	}
	cnpj := somenteDigitos(p.CNPJ)
	if cnpj == "" {
		return "", fmt.Errorf("nfce: CNPJ do emitente é obrigatório")
	}
	if len(cnpj) > 14 {
		return "", fmt.Errorf("nfce: CNPJ com mais de 14 dígitos: %q", p.CNPJ)
	}
	if p.Emissao.IsZero() {
		return "", fmt.Errorf("nfce: data de emissão é obrigatória")
	}
	if p.Serie < 0 || p.Serie > 999 {
		return "", fmt.Errorf("nfce: série fora da faixa: %d", p.Serie)
	}
	if p.Numero <= 0 || p.Numero > 999999999 {
		return "", fmt.Errorf("nfce: número do documento fora da faixa: %d", p.Numero)
	}

	cnf := p.CNF
	if cnf == "" {
		var err error
		cnf, err = sortearCNF()
		if err != nil {
			return "", fmt.Errorf("nfce: sortear cNF: %w", err)
		}
	}
	if len(somenteDigitos(cnf)) != 8 {
		return "", fmt.Errorf("nfce: cNF deve ter 8 dígitos: %q", cnf)
	}

	base := p.CodigoUF +
		p.Emissao.Format("0601") + // AAMM
		fmt.Sprintf("%014s", cnpj) +
		ModeloNFCe +
		fmt.Sprintf("%03d", p.Serie) +
		fmt.Sprintf("%09d", p.Numero) +
		TipoEmissaoNormal +
		cnf

	if len(base) != 43 {
		return "", fmt.Errorf("nfce: base da chave com %d dígitos (esperado 43)", len(base))
	}
	dv, err := CalcularDV(base)
	if err != nil {
		return "", err
	}
	return base + dv, nil
}

// CalcularDV calcula o dígito verificador módulo 11 dos 43 dígitos da chave.
// Pesos 2..9 aplicados da direita para a esquerda; resto < 2 resulta em 0,
// senão 11 − resto.
func CalcularDV(base43 string) (string, error) {
	if len(base43) != 43 {
		return "", fmt.Errorf("nfce: DV exige 43 dígitos, recebeu %d", len(base43))
	}
	soma := 0
	peso := 2
	for i := len(base43) - 1; i >= 0; i-- {
		d := base43[i]
		if d < '0' || d > '9' {
			return "", fmt.Errorf("nfce: caractere não numérico na chave: %q", d)
		}
		soma += int(d-'0') * peso
		peso++
		if peso > 9 {
			peso = 2
		}
	}
	resto := soma % 11
	if resto < 2 {
		return "0", nil
	}
	return fmt.Sprintf("%d", 11-resto), nil
}

// ValidarChave confere comprimento, dígitos e DV de uma chave de 44 posições.
func ValidarChave(chave string) error {
	if len(chave) != 44 {
		return fmt.Errorf("nfce: chave deve ter 44 dígitos, tem %d", len(chave))
	}
	dv, err := CalcularDV(chave[:43])
	if err != nil {
		return err
	}
	if dv != chave[43:] {
		return fmt.Errorf("nfce: dígito verificador inválido (esperado %s)", dv)
	}
	return nil
}

// sortearCNF gera o código numérico aleatório de 8 dígitos (crypto/rand).
func sortearCNF() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%08d", n.Int64()), nil
}

func somenteDigitos(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
