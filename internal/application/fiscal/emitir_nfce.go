package fiscal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seu-usuario/pdv-fiscal/internal/domain"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
	domnfce "github.com/seu-usuario/pdv-fiscal/internal/domain/nfce"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/repository"
	infranfce "github.com/seu-usuario/pdv-fiscal/internal/infrastructure/nfce"
	"github.com/seu-usuario/pdv-fiscal/pkg/logger"
)

// Parâmetros do polling de consulta de recibo quando a SEFAZ responde 103.
const (
	maxConsultasRecibo      = 5
	intervaloConsultaRecibo = 2 * time.Second
)

// EmitirNFCeUseCase coordena o ciclo de autorização:
//
//	rascunho → (número + chave + guarda de submissão) → XML → assinatura →
//	envio síncrono → classificação do cStat → autorizada / anotação de erro
//
// Rejeição definitiva e código temporário deixam a venda em
// autorizacao_pendente com o código e o motivo persistidos; só o cStat 100 do
// protocolo individual promove para autorizada. Uma venda pendente pode ser
// reenviada pelo operador: o reenvio reaproveita o número e a chave já
// atribuídos, sem consumir numeração nova.
type EmitirNFCeUseCase struct {
	vendaRepo    repository.VendaRepository
	clienteRepo  repository.ClienteRepository
	configRepo   repository.EmpresaConfigRepository
	certificados CarregadorCertificado
	builder      *infranfce.XMLBuilderService
	assinador    Assinador
	transmissor  Transmissor
	storage      ArmazenamentoXML
	tx           FiscalTxRunner
	log          *logger.Logger

	agora          func() time.Time
	esperaConsulta time.Duration
}

// NewEmitirNFCeUseCase constrói o caso de uso com todas as dependências.
func NewEmitirNFCeUseCase(
	vendaRepo repository.VendaRepository,
	clienteRepo repository.ClienteRepository,
	configRepo repository.EmpresaConfigRepository,
	certificados CarregadorCertificado,
	builder *infranfce.XMLBuilderService,
	assinador Assinador,
	transmissor Transmissor,
	storage ArmazenamentoXML,
	tx FiscalTxRunner,
	log *logger.Logger,
) *EmitirNFCeUseCase {
	return &EmitirNFCeUseCase{
		vendaRepo:      vendaRepo,
		clienteRepo:    clienteRepo,
		configRepo:     configRepo,
		certificados:   certificados,
		builder:        builder,
		assinador:      assinador,
		transmissor:    transmissor,
		storage:        storage,
		tx:             tx,
		log:            log,
		agora:          time.Now,
		esperaConsulta: intervaloConsultaRecibo,
	}
}

// Emitir autoriza a venda junto à SEFAZ e devolve a venda atualizada.
func (uc *EmitirNFCeUseCase) Emitir(ctx context.Context, vendaID string) (*entity.Venda, error) {
	venda, err := uc.vendaRepo.GetByID(ctx, vendaID)
	if err != nil {
		return nil, err
	}
	if venda == nil {
		return nil, domain.ErrNaoEncontrado
	}
	if venda.Status != entity.StatusVendaRascunho && venda.Status != entity.StatusVendaAutorizacaoPendente {
		return nil, fmt.Errorf("%w: venda em %q, esperado rascunho ou autorizacao_pendente",
			domain.ErrEstadoInvalido, venda.Status)
	}
	venda.Itens, err = uc.vendaRepo.GetItens(ctx, vendaID)
	if err != nil {
		return nil, err
	}
	if len(venda.Itens) == 0 {
		return nil, fmt.Errorf("%w: venda sem itens", domain.ErrEntradaInvalida)
	}

	emp, err := uc.configRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, fmt.Errorf("%w: configuração fiscal da empresa ausente", domain.ErrEntradaInvalida)
	}

	var cliente *entity.Cliente
	if venda.ClienteID != "" {
		cliente, err = uc.clienteRepo.GetByID(ctx, venda.ClienteID)
		if err != nil {
			return nil, err
		}
	}

	// Certificado antes de consumir número: sem certificado não há emissão.
	cert, err := uc.certificados.CarregarPadrao(ctx)
	if err != nil {
		return nil, err
	}

	// Reenvio de venda pendente reaproveita o número e a chave atribuídos na
	// primeira tentativa; consumir outro número abriria uma lacuna na série.
	chave := venda.ChaveNFCe
	if venda.Status == entity.StatusVendaRascunho {
		// Número, chave e guarda de submissão na mesma transação: o perdedor de
		// uma corrida recebe ErrConflito e nenhuma segunda chave é emitida.
		err = uc.tx.RunFiscal(ctx, func(vendaRepo repository.VendaRepository, configRepo repository.EmpresaConfigRepository) error {
			numero, err := configRepo.ProximoNumero(ctx, emp.ID)
			if err != nil {
				return err
			}
			chave, err = domnfce.GerarChave(domnfce.ChaveParams{
				CodigoUF: emp.CodigoUF(),
				Emissao:  venda.CreatedAt,
				CNPJ:     emp.CNPJ,
				Serie:    emp.Serie,
				Numero:   numero,
				CNF:      "",
			})
			if err != nil {
				return err
			}
			if err := vendaRepo.MarcarSubmissao(ctx, venda.ID, chave, numero); err != nil {
				return err
			}
			venda.Numero = numero
			return nil
		})
		if err != nil {
			return nil, err
		}
		venda.Status = entity.StatusVendaAutorizacaoPendente
		venda.ChaveNFCe = chave
	} else if chave == "" {
		return nil, fmt.Errorf("%w: venda pendente sem chave atribuída", domain.ErrEstadoInvalido)
	}

	uc.log.Info().Str("venda_id", venda.ID).Str("chave", chave).
		Int64("numero", venda.Numero).Msg("emissão iniciada")

	xmlNFe, err := uc.builder.Build(&infranfce.VendaBuildContext{
		Venda:   venda,
		Empresa: emp,
		Cliente: cliente,
		Chave:   chave,
	})
	if err != nil {
		return nil, uc.marcarErro(ctx, venda, "", err.Error(), err)
	}

	assinado, err := uc.assinador.Sign(xmlNFe, cert)
	if err != nil {
		return nil, uc.marcarErro(ctx, venda, "", err.Error(), err)
	}

	ret, err := uc.transmissor.EnviarLote(ctx, uuid.New().String(), assinado)
	if err != nil {
		return nil, uc.marcarErro(ctx, venda, "", err.Error(), err)
	}

	prot, err := uc.resolverLote(ctx, venda, ret)
	if err != nil {
		return nil, err
	}
	return uc.concluirAutorizacao(ctx, venda, assinado, prot)
}

// resolverLote acompanha a resposta de lote até obter o protocolo individual.
// 103 dispara a consulta de recibo; 104 desce direto para o protNFe.
func (uc *EmitirNFCeUseCase) resolverLote(ctx context.Context, venda *entity.Venda, ret *infranfce.RetornoLote) (*infranfce.Protocolo, error) {
	recibo := ""
	for consulta := 0; ; consulta++ {
		if ret.Recibo != "" {
			recibo = ret.Recibo
		}
		switch {
		case ret.CStat == domnfce.CStatLoteProcessado && ret.Prot != nil:
			return ret.Prot, nil

		case ret.CStat == domnfce.CStatLoteRecebido || ret.CStat == domnfce.CStatLoteEmProcesso:
			if recibo == "" {
				err := &domain.RejeicaoSefaz{Codigo: ret.CStat, Motivo: "resposta sem número de recibo"}
				return nil, uc.marcarErro(ctx, venda, ret.CStat, err.Motivo, err)
			}
			if consulta >= maxConsultasRecibo {
				err := &domain.RejeicaoSefaz{Codigo: ret.CStat, Motivo: "lote ainda em processamento após consultas"}
				return nil, uc.marcarErro(ctx, venda, ret.CStat, err.Motivo, err)
			}
			select {
			case <-ctx.Done():
				return nil, uc.marcarErro(ctx, venda, ret.CStat, "consulta de recibo cancelada", ctx.Err())
			case <-time.After(uc.esperaConsulta):
			}
			var err error
			ret, err = uc.transmissor.ConsultarRecibo(ctx, recibo)
			if err != nil {
				return nil, uc.marcarErro(ctx, venda, "", err.Error(), err)
			}

		case domnfce.CodigoTemporario(ret.CStat):
			// Falha transitória: a venda fica pendente e retryable.
			err := &domain.RejeicaoSefaz{Codigo: ret.CStat, Motivo: ret.XMotivo}
			return nil, uc.marcarErro(ctx, venda, ret.CStat, ret.XMotivo, err)

		default:
			err := &domain.RejeicaoSefaz{Codigo: ret.CStat, Motivo: ret.XMotivo}
			return nil, uc.marcarErro(ctx, venda, ret.CStat, ret.XMotivo, err)
		}
	}
}

// concluirAutorizacao aplica o cStat do protocolo individual: 100 promove a
// venda para autorizada e grava o nfeProc; o resto vira anotação de erro.
func (uc *EmitirNFCeUseCase) concluirAutorizacao(ctx context.Context, venda *entity.Venda, assinado []byte, prot *infranfce.Protocolo) (*entity.Venda, error) {
	if domnfce.ClassificarProtocolo(prot.CStat) != domnfce.ResultadoAutorizado {
		err := &domain.RejeicaoSefaz{Codigo: prot.CStat, Motivo: prot.XMotivo}
		return nil, uc.marcarErro(ctx, venda, prot.CStat, prot.XMotivo, err)
	}

	proc, err := infranfce.MontarProcNFe(assinado, prot)
	if err != nil {
		return nil, uc.marcarErro(ctx, venda, "", err.Error(), err)
	}
	caminho, err := uc.storage.GravarAutorizado(venda.ChaveNFCe, proc)
	if err != nil {
		return nil, uc.marcarErro(ctx, venda, "", err.Error(), err)
	}

	agora := uc.agora()
	venda.Status = entity.StatusVendaAutorizada
	venda.Protocolo = prot.Numero
	venda.CaminhoXML = caminho
	venda.AutorizadaEm = &agora
	venda.MensagemErro = ""
	venda.CodigoErroSefaz = ""
	if err := uc.vendaRepo.AtualizarFiscal(ctx, venda); err != nil {
		return nil, err
	}

	uc.log.Info().Str("venda_id", venda.ID).Str("chave", venda.ChaveNFCe).
		Str("protocolo", prot.Numero).Msg("NFC-e autorizada")
	return venda, nil
}

// marcarErro persiste a anotação de falha na venda (que permanece em
// autorizacao_pendente) e devolve o erro original para o chamador.
func (uc *EmitirNFCeUseCase) marcarErro(ctx context.Context, venda *entity.Venda, codigo, motivo string, causa error) error {
	venda.CodigoErroSefaz = codigo
	venda.MensagemErro = motivo
	if err := uc.vendaRepo.AtualizarFiscal(ctx, venda); err != nil && !errors.Is(err, domain.ErrNaoEncontrado) {
		uc.log.Error().Err(err).Str("venda_id", venda.ID).Msg("falha ao persistir anotação de erro")
	}
	uc.log.Warn().Str("venda_id", venda.ID).Str("cstat", codigo).Str("motivo", motivo).
		Msg("emissão não autorizada")
	return causa
}

// ConsultarStatusServico verifica a disponibilidade do autorizador (cStat 107).
func (uc *EmitirNFCeUseCase) ConsultarStatusServico(ctx context.Context) (*infranfce.RetornoStatus, error) {
	return uc.transmissor.ConsultarStatus(ctx)
}
