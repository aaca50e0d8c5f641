package domain

import (
	"errors"
	"fmt"
)

// Erros de domínio (sem dependências externas).
var (
	ErrNaoEncontrado          = errors.New("recurso não encontrado")
	ErrEntradaInvalida        = errors.New("entrada inválida")
	ErrConflito               = errors.New("conflito com o estado atual")
	ErrCertificadoAusente     = errors.New("nenhum certificado padrão configurado")
	ErrSenhaCertificado       = errors.New("senha do certificado inválida")
	ErrUltimoCertificado      = errors.New("o último certificado não pode ser excluído")
	ErrCertificadoVencido     = errors.New("certificado digital vencido")
	ErrFaixaSobreposta        = errors.New("faixa de numeração sobrepõe inutilização existente")
	ErrCancelamentoNaoPermitido = errors.New("cancelamento não permitido")
	ErrLimiteTentativas       = errors.New("limite de tentativas de inutilização atingido")
	ErrEstadoInvalido         = errors.New("operação não permitida no estado atual")
)

// ErroAssinatura indica falha na canonicalização ou assinatura do XML.
// Fatal para a tentativa de emissão; nunca é repetido automaticamente.
type ErroAssinatura struct {
	Etapa string // canonicalizacao, digest, assinatura, chave-privada
	Causa error
}

func (e *ErroAssinatura) Error() string {
	return fmt.Sprintf("assinatura (%s): %v", e.Etapa, e.Causa)
}

func (e *ErroAssinatura) Unwrap() error { return e.Causa }

// ErroTransporte indica falha de rede, SOAP Fault ou resposta vazia/ilegível
// do web service da SEFAZ. Elegível para retry manual.
type ErroTransporte struct {
	Operacao string
	Causa    error
}

func (e *ErroTransporte) Error() string {
	return fmt.Sprintf("transporte SEFAZ (%s): %v", e.Operacao, e.Causa)
}

func (e *ErroTransporte) Unwrap() error { return e.Causa }

// RejeicaoSefaz carrega o cStat e xMotivo devolvidos pela autoridade quando o
// documento não foi autorizado. Persistida na venda; não retryable, exceto se
// o código estiver no conjunto temporário.
type RejeicaoSefaz struct {
	Codigo string // cStat
	Motivo string // xMotivo
}

func (e *RejeicaoSefaz) Error() string {
	return fmt.Sprintf("rejeição SEFAZ %s: %s", e.Codigo, e.Motivo)
}
