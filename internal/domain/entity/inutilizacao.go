package entity

import "time"

// Status da inutilização de faixa de numeração.
const (
	StatusInutPendente   = "pendente"
	StatusInutAutorizada = "autorizada" // terminal
	StatusInutRejeitada  = "rejeitada"  // terminal
	StatusInutErro       = "erro"
)

// MaxTentativasInutilizacao limita o retry explícito do operador.
const MaxTentativasInutilizacao = 5

// Inutilizacao é o pedido irreversível de invalidação de uma faixa contígua
// de números não usados. Independente de vendas; tem sua própria máquina de
// estados com retry limitado.
type Inutilizacao struct {
	ID            string
	Serie         int
	NumeroInicial int64
	NumeroFinal   int64
	Justificativa string
	Status        string
	Tentativas    int // retry_count, 0–5
	CodigoErro    string
	MensagemErro  string
	Protocolo     string
	CaminhoXML    string
	UsuarioID     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Terminal informa se o registro chegou a um estado final.
func (i *Inutilizacao) Terminal() bool {
	return i.Status == StatusInutAutorizada || i.Status == StatusInutRejeitada
}

// PodeTentar verifica se um retry é permitido: só em pendente/erro e com
// menos de 5 tentativas acumuladas.
func (i *Inutilizacao) PodeTentar() bool {
	if i.Status != StatusInutPendente && i.Status != StatusInutErro {
		return false
	}
	return i.Tentativas < MaxTentativasInutilizacao
}

// Sobrepoe verifica interseção de faixas na mesma série: uma ponta dentro da
// outra faixa, ou uma faixa contendo a outra por completo.
func (i *Inutilizacao) Sobrepoe(serie int, inicio, fim int64) bool {
	if i.Serie != serie {
		return false
	}
	return inicio <= i.NumeroFinal && fim >= i.NumeroInicial
}
