package entity

import "time"

// Cliente é o destinatário opcional da NFC-e (bloco dest).
// Venda sem cliente identificado omite o bloco por completo.
type Cliente struct {
	ID        string
	Nome      string
	CPF       string // vazio quando CNPJ preenchido
	CNPJ      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
