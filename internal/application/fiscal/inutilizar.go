package fiscal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seu-usuario/pdv-fiscal/internal/domain"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
	domnfce "github.com/seu-usuario/pdv-fiscal/internal/domain/nfce"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/repository"
	infranfce "github.com/seu-usuario/pdv-fiscal/internal/infrastructure/nfce"
	"github.com/seu-usuario/pdv-fiscal/pkg/logger"
)

// CriarInutilizacaoInput são os dados do pedido de inutilização.
type CriarInutilizacaoInput struct {
	Serie         int
	NumeroInicial int64
	NumeroFinal   int64
	Justificativa string
	UsuarioID     string
}

// InutilizarUseCase gerencia as inutilizações de faixa: validação (faixa,
// justificativa, sobreposição) antes de persistir, e processamento com retry
// explícito limitado a 5 tentativas. A inutilização homologada (cStat 102) é
// irreversível.
type InutilizarUseCase struct {
	inutRepo     repository.InutilizacaoRepository
	configRepo   repository.EmpresaConfigRepository
	certificados CarregadorCertificado
	assinador    Assinador
	transmissor  Transmissor
	storage      ArmazenamentoXML
	log          *logger.Logger

	agora func() time.Time
}

// NewInutilizarUseCase constrói o caso de uso.
func NewInutilizarUseCase(
	inutRepo repository.InutilizacaoRepository,
	configRepo repository.EmpresaConfigRepository,
	certificados CarregadorCertificado,
	assinador Assinador,
	transmissor Transmissor,
	storage ArmazenamentoXML,
	log *logger.Logger,
) *InutilizarUseCase {
	return &InutilizarUseCase{
		inutRepo:     inutRepo,
		configRepo:   configRepo,
		certificados: certificados,
		assinador:    assinador,
		transmissor:  transmissor,
		storage:      storage,
		log:          log,
		agora:        time.Now,
	}
}

// Criar valida e persiste o pedido em "pendente", sem transmitir.
func (uc *InutilizarUseCase) Criar(ctx context.Context, in CriarInutilizacaoInput) (*entity.Inutilizacao, error) {
	if in.Serie < 0 || in.Serie > 999 {
		return nil, fmt.Errorf("%w: série fora da faixa: %d", domain.ErrEntradaInvalida, in.Serie)
	}
	if in.NumeroInicial <= 0 || in.NumeroFinal > 999999999 || in.NumeroInicial > in.NumeroFinal {
		return nil, fmt.Errorf("%w: faixa inválida [%d, %d]",
			domain.ErrEntradaInvalida, in.NumeroInicial, in.NumeroFinal)
	}
	in.Justificativa = strings.TrimSpace(in.Justificativa)
	if len([]rune(in.Justificativa)) < entity.TamanhoMinimoJustificativa {
		return nil, fmt.Errorf("%w: justificativa deve ter no mínimo %d caracteres",
			domain.ErrEntradaInvalida, entity.TamanhoMinimoJustificativa)
	}

	existentes, err := uc.inutRepo.ListPorSerie(ctx, in.Serie)
	if err != nil {
		return nil, err
	}
	for _, e := range existentes {
		if e.Sobrepoe(in.Serie, in.NumeroInicial, in.NumeroFinal) {
			return nil, fmt.Errorf("%w: conflito com a faixa [%d, %d]",
				domain.ErrFaixaSobreposta, e.NumeroInicial, e.NumeroFinal)
		}
	}

	agora := uc.agora()
	inut := &entity.Inutilizacao{
		Serie:         in.Serie,
		NumeroInicial: in.NumeroInicial,
		NumeroFinal:   in.NumeroFinal,
		Justificativa: in.Justificativa,
		Status:        entity.StatusInutPendente,
		UsuarioID:     in.UsuarioID,
		CreatedAt:     agora,
		UpdatedAt:     agora,
	}
	if err := uc.inutRepo.Create(ctx, inut); err != nil {
		return nil, err
	}
	uc.log.Info().Str("inutilizacao_id", inut.ID).Int("serie", inut.Serie).
		Int64("inicio", inut.NumeroInicial).Int64("fim", inut.NumeroFinal).
		Msg("inutilização criada")
	return inut, nil
}

// Processar transmite (ou retransmite) o pedido à SEFAZ. Cada chamada consome
// uma tentativa; estados terminais e o limite de 5 tentativas bloqueiam.
func (uc *InutilizarUseCase) Processar(ctx context.Context, id string) (*entity.Inutilizacao, error) {
	inut, err := uc.inutRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inut == nil {
		return nil, domain.ErrNaoEncontrado
	}
	if inut.Terminal() {
		return nil, fmt.Errorf("%w: inutilização em %q", domain.ErrEstadoInvalido, inut.Status)
	}
	if !inut.PodeTentar() {
		return nil, domain.ErrLimiteTentativas
	}

	emp, err := uc.configRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, fmt.Errorf("%w: configuração fiscal da empresa ausente", domain.ErrEntradaInvalida)
	}
	cert, err := uc.certificados.CarregarPadrao(ctx)
	if err != nil {
		return nil, err
	}

	pedido, err := infranfce.MontarInutilizacao(infranfce.InutilizacaoParams{
		Empresa:       emp,
		Serie:         inut.Serie,
		NumeroInicial: inut.NumeroInicial,
		NumeroFinal:   inut.NumeroFinal,
		Justificativa: inut.Justificativa,
		Ano:           inut.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	assinado, err := uc.assinador.SignElemento(pedido, "infInut", cert)
	if err != nil {
		return nil, err
	}

	inut.Tentativas++
	ret, err := uc.transmissor.Inutilizar(ctx, assinado)
	if err != nil {
		inut.Status = entity.StatusInutErro
		inut.MensagemErro = err.Error()
		inut.CodigoErro = ""
		if upErr := uc.inutRepo.Update(ctx, inut); upErr != nil {
			uc.log.Error().Err(upErr).Str("inutilizacao_id", inut.ID).
				Msg("falha ao persistir erro de transporte")
		}
		return nil, err
	}

	switch domnfce.ClassificarInutilizacao(ret.CStat) {
	case domnfce.ResultadoAutorizado:
		// A homologação é irrevogável na SEFAZ; o status tem que refletir isso
		// mesmo que a gravação do artefato em disco falhe, senão um retry
		// retransmitiria uma faixa já inutilizada.
		inut.Status = entity.StatusInutAutorizada
		inut.Protocolo = ret.Protocolo
		inut.CodigoErro = ""
		inut.MensagemErro = ""
		if caminho, err := uc.storage.GravarInutilizacao(inut.ID, assinado); err != nil {
			uc.log.Error().Err(err).Str("inutilizacao_id", inut.ID).
				Msg("inutilização homologada mas o XML não foi gravado")
		} else {
			inut.CaminhoXML = caminho
		}
		uc.log.Info().Str("inutilizacao_id", inut.ID).Str("protocolo", ret.Protocolo).
			Msg("inutilização homologada")

	case domnfce.ResultadoTemporario:
		// Transitório: permanece pendente e retryable, com o código visível.
		inut.Status = entity.StatusInutPendente
		inut.CodigoErro = ret.CStat
		inut.MensagemErro = ret.XMotivo
		uc.log.Warn().Str("inutilizacao_id", inut.ID).Str("cstat", ret.CStat).
			Msg("inutilização adiada por falha transitória")

	default:
		inut.Status = entity.StatusInutRejeitada
		inut.CodigoErro = ret.CStat
		inut.MensagemErro = ret.XMotivo
		uc.log.Warn().Str("inutilizacao_id", inut.ID).Str("cstat", ret.CStat).
			Str("motivo", ret.XMotivo).Msg("inutilização rejeitada")
	}

	if err := uc.inutRepo.Update(ctx, inut); err != nil {
		return nil, err
	}
	return inut, nil
}

// Listar devolve todas as inutilizações registradas.
func (uc *InutilizarUseCase) Listar(ctx context.Context) ([]*entity.Inutilizacao, error) {
	return uc.inutRepo.List(ctx)
}

// GetByID devolve um registro pelo ID.
func (uc *InutilizarUseCase) GetByID(ctx context.Context, id string) (*entity.Inutilizacao, error) {
	inut, err := uc.inutRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inut == nil {
		return nil, domain.ErrNaoEncontrado
	}
	return inut, nil
}
