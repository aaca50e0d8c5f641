package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/seu-usuario/pdv-fiscal/internal/application/fiscal"
	"github.com/seu-usuario/pdv-fiscal/internal/domain/entity"
	infranfce "github.com/seu-usuario/pdv-fiscal/internal/infrastructure/nfce"
	"github.com/seu-usuario/pdv-fiscal/internal/infrastructure/nfce/signer"
	"github.com/seu-usuario/pdv-fiscal/internal/infrastructure/postgres"
	"github.com/seu-usuario/pdv-fiscal/internal/infrastructure/storage"
	httpRouter "github.com/seu-usuario/pdv-fiscal/internal/interfaces/http"
	"github.com/seu-usuario/pdv-fiscal/pkg/cofre"
	"github.com/seu-usuario/pdv-fiscal/pkg/config"
	"github.com/seu-usuario/pdv-fiscal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicação")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão com PostgreSQL")
	}
	defer pool.Close()

	vendaRepo := postgres.NewVendaRepository(pool)
	clienteRepo := postgres.NewClienteRepository(pool)
	configRepo := postgres.NewEmpresaConfigRepository(pool)
	certRepo := postgres.NewCertificadoRepository(pool)
	inutRepo := postgres.NewInutilizacaoRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	xmlStorage, err := storage.NewXMLStorage(cfg.Storage.XMLDir)
	if err != nil {
		log.Fatal().Err(err).Msg("storage de XML")
	}
	certStorage, err := storage.NewCertStorage(cfg.Storage.CertDir)
	if err != nil {
		log.Fatal().Err(err).Msg("storage de certificados")
	}
	cofreSvc, err := cofre.New(cfg.Storage.MasterKey)
	if err != nil {
		log.Fatal().Err(err).Msg("chave mestra do cofre")
	}

	// O ambiente de transmissão vem da configuração fiscal persistida; a UF
	// idem. Sem configuração ainda, o cliente nasce em homologação e a
	// primeira emissão exige a configuração cadastrada.
	ambiente := entity.AmbienteHomologacao
	codigoUF := ""
	if emp, err := configRepo.Get(ctx); err != nil {
		log.Fatal().Err(err).Msg("ler configuração fiscal")
	} else if emp != nil {
		ambiente = emp.Ambiente
		codigoUF = emp.CodigoUF()
	}

	soapClient := infranfce.NewSOAPClient(infranfce.ClientConfig{
		Ambiente: ambiente,
		CodigoUF: codigoUF,
		Timeout:  cfg.Sefaz.Timeout,
		Endpoints: map[string]string{
			infranfce.OperacaoAutorizacao:    cfg.Sefaz.EndpointAutorizacao,
			infranfce.OperacaoRetAutorizacao: cfg.Sefaz.EndpointRetAutorizacao,
			infranfce.OperacaoStatusServico:  cfg.Sefaz.EndpointStatus,
			infranfce.OperacaoInutilizacao:   cfg.Sefaz.EndpointInutilizacao,
		},
	})

	xmlBuilder := infranfce.NewXMLBuilderService(infranfce.NewQRCodeBuilder())
	signerSvc := signer.NewDigitalSignatureService()

	certificadoUC := fiscal.NewCertificadoUseCase(
		certRepo, configRepo, txRunner, cofreSvc, certStorage, signer.P12Parser{}, log,
	)
	emitirUC := fiscal.NewEmitirNFCeUseCase(
		vendaRepo, clienteRepo, configRepo, certificadoUC,
		xmlBuilder, signerSvc, soapClient, xmlStorage, txRunner, log,
	)
	cancelarUC := fiscal.NewCancelarNFCeUseCase(
		vendaRepo, configRepo, certificadoUC, signerSvc, xmlStorage, log,
	)
	inutilizarUC := fiscal.NewInutilizarUseCase(
		inutRepo, configRepo, certificadoUC, signerSvc, soapClient, xmlStorage, log,
	)
	configUC := fiscal.NewEmpresaConfigUseCase(configRepo, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // a emissão espera o polling de recibo
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "PDV Fiscal API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		EmitirUC:      emitirUC,
		CancelarUC:    cancelarUC,
		InutilizarUC:  inutilizarUC,
		CertificadoUC: certificadoUC,
		ConfigUC:      configUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("sinal de desligamento recebido, encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("encerramento do servidor")
	}

	log.Info().Msg("aplicação parada")
}
