package fiscal

import (
	"context"
	"fmt"

	"github.com/seu-usuario/pdv-fiscal/internal/domain"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/repository"
	"github.com/seu-usuario/pdv-fiscal/pkg/logger"
)

// EmpresaConfigUseCase expõe a leitura e a atualização administrativa da
// configuração fiscal. O contador de numeração nunca é alterado por aqui.
type EmpresaConfigUseCase struct {
	configRepo repository.EmpresaConfigRepository
	log        *logger.Logger
}

// NewEmpresaConfigUseCase constrói o caso de uso.
func NewEmpresaConfigUseCase(configRepo repository.EmpresaConfigRepository, log *logger.Logger) *EmpresaConfigUseCase {
	return &EmpresaConfigUseCase{configRepo: configRepo, log: log}
}

// Obter devolve a configuração atual.
func (uc *EmpresaConfigUseCase) Obter(ctx context.Context) (*entity.EmpresaConfig, error) {
	cfg, err := uc.configRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrNaoEncontrado
	}
	return cfg, nil
}

// Atualizar valida e grava a configuração. Campos obrigatórios ausentes viram
// erro aqui, não rejeição da SEFAZ na próxima emissão.
func (uc *EmpresaConfigUseCase) Atualizar(ctx context.Context, novo *entity.EmpresaConfig) (*entity.EmpresaConfig, error) {
	atual, err := uc.configRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if atual == nil {
		return nil, domain.ErrNaoEncontrado
	}

	switch {
	case novo.RazaoSocial == "":
		return nil, fmt.Errorf("%w: razão social é obrigatória", domain.ErrEntradaInvalida)
	case novo.CNPJ == "":
		return nil, fmt.Errorf("%w: CNPJ é obrigatório", domain.ErrEntradaInvalida)
	case novo.InscricaoEstadual == "":
		return nil, fmt.Errorf("%w: inscrição estadual é obrigatória", domain.ErrEntradaInvalida)
	case novo.Ambiente != entity.AmbienteProducao && novo.Ambiente != entity.AmbienteHomologacao:
		return nil, fmt.Errorf("%w: ambiente %q desconhecido", domain.ErrEntradaInvalida, novo.Ambiente)
	case novo.Serie < 0 || novo.Serie > 999:
		return nil, fmt.Errorf("%w: série fora da faixa: %d", domain.ErrEntradaInvalida, novo.Serie)
	case entity.CodigoUF(novo.Endereco.UF) == "":
		return nil, fmt.Errorf("%w: UF %q desconhecida", domain.ErrEntradaInvalida, novo.Endereco.UF)
	case novo.Endereco.CodMunicipio == "":
		return nil, fmt.Errorf("%w: código de município é obrigatório", domain.ErrEntradaInvalida)
	}

	novo.ID = atual.ID
	novo.ProximoNumero = atual.ProximoNumero
	if err := uc.configRepo.Update(ctx, novo); err != nil {
		return nil, err
	}
	uc.log.Info().Str("cnpj", novo.CNPJ).Str("ambiente", novo.Ambiente).
		Msg("configuração fiscal atualizada")
	return novo, nil
}
