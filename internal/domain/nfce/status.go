package nfce

// Códigos cStat da SEFAZ usados pelo motor. A semântica é definida
// externamente pela autoridade; esta tabela é a fonte única no sistema e os
// valores nunca podem ser renumerados.
const (
	CStatAutorizado            = "100" // Autorizado o uso da NF-e
	CStatCancelamento          = "101" // Cancelamento homologado
	CStatInutilizado           = "102" // Inutilização de número homologada
	CStatLoteRecebido          = "103" // Lote recebido com sucesso
	CStatLoteProcessado        = "104" // Lote processado
	CStatLoteEmProcesso        = "105" // Lote em processamento
	CStatServicoEmOperacao     = "107" // Serviço em operação
	CStatServicoParalisadoProg = "108" // Serviço paralisado momentaneamente
	CStatServicoParalisado     = "109" // Serviço paralisado sem previsão
	CStatErroNaoCatalogado     = "999" // Erro não catalogado
)

// Resultado é a classificação fechada de uma resposta da SEFAZ.
type Resultado int

const (
	ResultadoDesconhecido Resultado = iota
	ResultadoAutorizado             // cStat 100 no protocolo do documento
	ResultadoProcessando            // lote recebido/em processamento (103, 105)
	ResultadoRejeitado              // qualquer outro código definitivo
	ResultadoTemporario             // 108, 109, 999: falha transitória, retryable
)

// String implementa fmt.Stringer para logs.
func (r Resultado) String() string {
	switch r {
	case ResultadoAutorizado:
		return "autorizado"
	case ResultadoProcessando:
		return "processando"
	case ResultadoRejeitado:
		return "rejeitado"
	case ResultadoTemporario:
		return "temporario"
	default:
		return "desconhecido"
	}
}

// codigosTemporarios são rejeições transitórias: o registro permanece
// retryable e o erro fica visível ao operador sem bloquear novas tentativas.
var codigosTemporarios = map[string]bool{
	CStatServicoParalisadoProg: true,
	CStatServicoParalisado:     true,
	CStatErroNaoCatalogado:     true,
}

// CodigoTemporario informa se o cStat pertence ao conjunto temporário {108, 109, 999}.
func CodigoTemporario(cStat string) bool {
	return codigosTemporarios[cStat]
}

// ClassificarProtocolo traduz o cStat do protocolo individual do documento.
func ClassificarProtocolo(cStat string) Resultado {
	switch {
	case cStat == CStatAutorizado:
		return ResultadoAutorizado
	case CodigoTemporario(cStat):
		return ResultadoTemporario
	default:
		return ResultadoRejeitado
	}
}

// ClassificarLote traduz o cStat da resposta de envio/consulta de lote.
func ClassificarLote(cStat string) Resultado {
	switch {
	case cStat == CStatLoteRecebido, cStat == CStatLoteEmProcesso:
		return ResultadoProcessando
	case cStat == CStatLoteProcessado:
		// O chamador desce para o cStat do protocolo individual.
		return ResultadoProcessando
	case CodigoTemporario(cStat):
		return ResultadoTemporario
	default:
		return ResultadoRejeitado
	}
}

// ClassificarInutilizacao traduz o cStat da resposta de inutilização.
func ClassificarInutilizacao(cStat string) Resultado {
	switch {
	case cStat == CStatInutilizado:
		return ResultadoAutorizado
	case CodigoTemporario(cStat):
		return ResultadoTemporario
	default:
		return ResultadoRejeitado
	}
}

// ServicoOnline informa se o probe de status indica serviço em operação.
func ServicoOnline(cStat string) bool {
	return cStat == CStatServicoEmOperacao
}
