package fiscal

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seu-usuario/pdv-fiscal/internal/domain"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/repository"
	"github.com/seu-usuario/pdv-fiscal/internal/infrastructure/nfce/signer"
	"github.com/seu-usuario/pdv-fiscal/pkg/cofre"
	"github.com/seu-usuario/pdv-fiscal/pkg/logger"
)

// CertificadoUseCase administra os certificados A1 da empresa: upload com
// validação, certificado padrão, exclusão com guarda de último certificado e
// a carga em memória para assinatura. Arquivo e senha ficam cifrados em
// repouso pelo cofre.
type CertificadoUseCase struct {
	certRepo   repository.CertificadoRepository
	configRepo repository.EmpresaConfigRepository
	tx         CertTxRunner
	cofre      *cofre.Cofre
	arquivos   ArmazenamentoCertificado
	parser     ParserP12
	log        *logger.Logger

	agora func() time.Time
}

var _ CarregadorCertificado = (*CertificadoUseCase)(nil)

// NewCertificadoUseCase constrói o caso de uso.
func NewCertificadoUseCase(
	certRepo repository.CertificadoRepository,
	configRepo repository.EmpresaConfigRepository,
	tx CertTxRunner,
	c *cofre.Cofre,
	arquivos ArmazenamentoCertificado,
	parser ParserP12,
	log *logger.Logger,
) *CertificadoUseCase {
	return &CertificadoUseCase{
		certRepo:   certRepo,
		configRepo: configRepo,
		tx:         tx,
		cofre:      c,
		arquivos:   arquivos,
		parser:     parser,
		log:        log,
		agora:      time.Now,
	}
}

// Enviar valida e persiste um novo certificado. A senha é conferida abrindo o
// PKCS#12 de verdade; senha errada nunca chega ao banco. O primeiro
// certificado da configuração vira padrão automaticamente.
func (uc *CertificadoUseCase) Enviar(ctx context.Context, alias string, dados []byte, senha string) (*entity.Certificado, error) {
	if len(dados) == 0 {
		return nil, fmt.Errorf("%w: arquivo .pfx vazio", domain.ErrEntradaInvalida)
	}
	emp, err := uc.configRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, fmt.Errorf("%w: configuração fiscal da empresa ausente", domain.ErrEntradaInvalida)
	}

	cert, err := uc.parser.Decode(dados, senha)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSenhaCertificado, err)
	}
	titular, emissor, leaf, err := signer.DadosCertificado(cert)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEntradaInvalida, err)
	}
	agora := uc.agora()
	if agora.After(leaf.NotAfter) {
		return nil, domain.ErrCertificadoVencido
	}

	arquivoCifrado, err := uc.cofre.Selar(dados)
	if err != nil {
		return nil, err
	}
	senhaCifrada, err := uc.cofre.Selar([]byte(senha))
	if err != nil {
		return nil, err
	}

	novo := &entity.Certificado{
		ID:              uuid.New().String(),
		EmpresaConfigID: emp.ID,
		Alias:           alias,
		SenhaCifrada:    senhaCifrada,
		Titular:         titular,
		Emissor:         emissor,
		ValidoAte:       leaf.NotAfter,
		CreatedAt:       agora,
		UpdatedAt:       agora,
	}
	caminho, err := uc.arquivos.Gravar(novo.ID, arquivoCifrado)
	if err != nil {
		return nil, err
	}
	novo.CaminhoArquivo = caminho

	total, err := uc.certRepo.Count(ctx, emp.ID)
	if err != nil {
		return nil, err
	}
	novo.Padrao = total == 0

	if err := uc.certRepo.Create(ctx, novo); err != nil {
		// Não deixar o .pfx órfão em disco se o insert falhou.
		_ = uc.arquivos.Remover(caminho)
		return nil, err
	}

	uc.log.Info().Str("certificado_id", novo.ID).Str("titular", titular).
		Bool("padrao", novo.Padrao).Msg("certificado cadastrado")
	return novo, nil
}

// CarregarPadrao decifra e decodifica o certificado padrão, pronto para
// assinar. Tudo em memória; o .pfx em claro nunca toca o disco.
func (uc *CertificadoUseCase) CarregarPadrao(ctx context.Context) (tls.Certificate, error) {
	emp, err := uc.configRepo.Get(ctx)
	if err != nil {
		return tls.Certificate{}, err
	}
	if emp == nil {
		return tls.Certificate{}, domain.ErrCertificadoAusente
	}
	padrao, err := uc.certRepo.GetPadrao(ctx, emp.ID)
	if err != nil {
		return tls.Certificate{}, err
	}
	if padrao == nil {
		return tls.Certificate{}, domain.ErrCertificadoAusente
	}
	if padrao.Vencido(uc.agora()) {
		return tls.Certificate{}, domain.ErrCertificadoVencido
	}

	cifrado, err := uc.arquivos.Ler(padrao.CaminhoArquivo)
	if err != nil {
		return tls.Certificate{}, err
	}
	dados, err := uc.cofre.Abrir(cifrado)
	if err != nil {
		return tls.Certificate{}, err
	}
	senha, err := uc.cofre.Abrir(padrao.SenhaCifrada)
	if err != nil {
		return tls.Certificate{}, err
	}
	cert, err := uc.parser.Decode(dados, string(senha))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: %v", domain.ErrSenhaCertificado, err)
	}
	return cert, nil
}

// DefinirPadrao troca o certificado padrão da configuração.
func (uc *CertificadoUseCase) DefinirPadrao(ctx context.Context, certificadoID string) error {
	emp, err := uc.configRepo.Get(ctx)
	if err != nil {
		return err
	}
	if emp == nil {
		return domain.ErrNaoEncontrado
	}
	cert, err := uc.certRepo.GetByID(ctx, certificadoID)
	if err != nil {
		return err
	}
	if cert == nil {
		return domain.ErrNaoEncontrado
	}
	if cert.Vencido(uc.agora()) {
		return domain.ErrCertificadoVencido
	}
	return uc.certRepo.DefinirPadrao(ctx, emp.ID, certificadoID)
}

// Excluir remove um certificado. O último certificado é protegido; se o
// excluído era o padrão, o mais recente dos restantes é promovido na mesma
// transação.
func (uc *CertificadoUseCase) Excluir(ctx context.Context, certificadoID string) error {
	emp, err := uc.configRepo.Get(ctx)
	if err != nil {
		return err
	}
	if emp == nil {
		return domain.ErrNaoEncontrado
	}
	alvo, err := uc.certRepo.GetByID(ctx, certificadoID)
	if err != nil {
		return err
	}
	if alvo == nil {
		return domain.ErrNaoEncontrado
	}
	total, err := uc.certRepo.Count(ctx, emp.ID)
	if err != nil {
		return err
	}
	if total <= 1 {
		return domain.ErrUltimoCertificado
	}

	err = uc.tx.RunCertificados(ctx, func(certRepo repository.CertificadoRepository) error {
		if err := certRepo.Delete(ctx, certificadoID); err != nil {
			return err
		}
		if !alvo.Padrao {
			return nil
		}
		restantes, err := certRepo.List(ctx, emp.ID)
		if err != nil {
			return err
		}
		if len(restantes) == 0 {
			return domain.ErrUltimoCertificado
		}
		// List ordena padrão primeiro e depois por criação; promover o mais novo.
		promovido := restantes[len(restantes)-1]
		return certRepo.DefinirPadrao(ctx, emp.ID, promovido.ID)
	})
	if err != nil {
		return err
	}

	if err := uc.arquivos.Remover(alvo.CaminhoArquivo); err != nil {
		uc.log.Warn().Err(err).Str("certificado_id", certificadoID).
			Msg("arquivo cifrado não removido")
	}
	uc.log.Info().Str("certificado_id", certificadoID).Msg("certificado excluído")
	return nil
}

// Listar devolve os certificados da configuração.
func (uc *CertificadoUseCase) Listar(ctx context.Context) ([]*entity.Certificado, error) {
	emp, err := uc.configRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, domain.ErrNaoEncontrado
	}
	return uc.certRepo.List(ctx, emp.ID)
}
