package fiscal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seu-usuario/pdv-fiscal/internal/domain"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/repository"
	infranfce "github.com/seu-usuario/pdv-fiscal/internal/infrastructure/nfce"
	"github.com/seu-usuario/pdv-fiscal/pkg/logger"
)

// CancelarNFCeUseCase executa o cancelamento: só de venda autorizada, dentro
// da janela de 30 minutos, com justificativa de no mínimo 15 caracteres. O
// evento é montado, assinado e arquivado como <chave>-canc.xml.
type CancelarNFCeUseCase struct {
	vendaRepo    repository.VendaRepository
	configRepo   repository.EmpresaConfigRepository
	certificados CarregadorCertificado
	assinador    Assinador
	storage      ArmazenamentoXML
	log          *logger.Logger

	agora func() time.Time
}

// NewCancelarNFCeUseCase constrói o caso de uso.
func NewCancelarNFCeUseCase(
	vendaRepo repository.VendaRepository,
	configRepo repository.EmpresaConfigRepository,
	certificados CarregadorCertificado,
	assinador Assinador,
	storage ArmazenamentoXML,
	log *logger.Logger,
) *CancelarNFCeUseCase {
	return &CancelarNFCeUseCase{
		vendaRepo:    vendaRepo,
		configRepo:   configRepo,
		certificados: certificados,
		assinador:    assinador,
		storage:      storage,
		log:          log,
		agora:        time.Now,
	}
}

// Cancelar aplica o cancelamento na venda e devolve a venda atualizada.
func (uc *CancelarNFCeUseCase) Cancelar(ctx context.Context, vendaID, justificativa string) (*entity.Venda, error) {
	justificativa = strings.TrimSpace(justificativa)
	if len([]rune(justificativa)) < entity.TamanhoMinimoJustificativa {
		return nil, fmt.Errorf("%w: justificativa deve ter no mínimo %d caracteres",
			domain.ErrEntradaInvalida, entity.TamanhoMinimoJustificativa)
	}

	venda, err := uc.vendaRepo.GetByID(ctx, vendaID)
	if err != nil {
		return nil, err
	}
	if venda == nil {
		return nil, domain.ErrNaoEncontrado
	}
	agora := uc.agora()
	if !venda.PodeCancelar(agora) {
		if venda.Status != entity.StatusVendaAutorizada {
			return nil, fmt.Errorf("%w: venda em %q", domain.ErrCancelamentoNaoPermitido, venda.Status)
		}
		return nil, fmt.Errorf("%w: janela de %s expirada",
			domain.ErrCancelamentoNaoPermitido, entity.JanelaCancelamento)
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

	evento, err := infranfce.MontarEventoCancelamento(infranfce.CancelamentoParams{
		Chave:         venda.ChaveNFCe,
		Protocolo:     venda.Protocolo,
		Justificativa: justificativa,
		Empresa:       emp,
		Emissao:       agora,
		Sequencia:     1,
	})
	if err != nil {
		return nil, err
	}
	assinado, err := uc.assinador.SignElemento(evento, "infEvento", cert)
	if err != nil {
		return nil, err
	}
	caminho, err := uc.storage.GravarCancelamento(venda.ChaveNFCe, assinado)
	if err != nil {
		return nil, err
	}

	venda.Status = entity.StatusVendaCancelada
	venda.CanceladaEm = &agora
	venda.MotivoCancelamento = justificativa
	venda.CaminhoXMLCancel = caminho
	if err := uc.vendaRepo.AtualizarFiscal(ctx, venda); err != nil {
		return nil, err
	}

	uc.log.Info().Str("venda_id", venda.ID).Str("chave", venda.ChaveNFCe).
		Msg("NFC-e cancelada")
	return venda, nil
}
