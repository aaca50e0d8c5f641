package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seu-usuario/pdv-fiscal/internal/application/fiscal"
)

// RouterDeps dependências do router.
type RouterDeps struct {
	EmitirUC      *fiscal.EmitirNFCeUseCase
	CancelarUC    *fiscal.CancelarNFCeUseCase
	InutilizarUC  *fiscal.InutilizarUseCase
	CertificadoUC *fiscal.CertificadoUseCase
	ConfigUC      *fiscal.EmpresaConfigUseCase
}

// Router registra as rotas da API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Emissão e cancelamento
	vendas := api.Group("/vendas")
	fiscalHandler := NewFiscalHandler(deps.EmitirUC, deps.CancelarUC)
	vendas.Post("/:id/emitir", fiscalHandler.Emitir)
	vendas.Post("/:id/cancelar", fiscalHandler.Cancelar)

	// Probe de disponibilidade do autorizador
	api.Get("/sefaz/status", fiscalHandler.StatusServico)

	// Inutilização de faixas
	inut := api.Group("/inutilizacoes")
	inutHandler := NewInutilizacaoHandler(deps.InutilizarUC)
	inut.Post("/", inutHandler.Criar)
	inut.Get("/", inutHandler.Listar)
	inut.Get("/:id", inutHandler.GetByID)
	inut.Post("/:id/processar", inutHandler.Processar)

	// Certificados digitais
	certs := api.Group("/certificados")
	certHandler := NewCertificadoHandler(deps.CertificadoUC)
	certs.Post("/", certHandler.Enviar)
	certs.Get("/", certHandler.Listar)
	certs.Put("/:id/padrao", certHandler.DefinirPadrao)
	certs.Delete("/:id", certHandler.Excluir)

	// Configuração fiscal da empresa
	config := api.Group("/config")
	configHandler := NewConfigHandler(deps.ConfigUC)
	config.Get("/", configHandler.Obter)
	config.Put("/", configHandler.Atualizar)
}
