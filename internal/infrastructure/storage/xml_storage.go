// Package storage guarda em disco os artefatos fiscais: XMLs autorizados,
// eventos de cancelamento, inutilizações e os .pfx cifrados dos certificados.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Permissões restritas: os XMLs carregam dados fiscais e os .pfx, mesmo
// cifrados, não devem ser legíveis por outros usuários da máquina.
const (
	permDir     = 0o700
	permArquivo = 0o600
)

// XMLStorage grava e lê os XMLs fiscais por chave de acesso.
type XMLStorage struct {
	dir string
}

// NewXMLStorage cria o storage, garantindo o diretório base.
func NewXMLStorage(dir string) (*XMLStorage, error) {
	if err := os.MkdirAll(dir, permDir); err != nil {
		return nil, fmt.Errorf("storage: criar diretório %s: %w", dir, err)
	}
	return &XMLStorage{dir: dir}, nil
}

// GravarAutorizado grava o nfeProc autorizado como <chave>.xml e devolve o caminho.
func (s *XMLStorage) GravarAutorizado(chave string, xml []byte) (string, error) {
	return s.gravar(chave+".xml", xml)
}

// GravarCancelamento grava o evento de cancelamento como <chave>-canc.xml.
func (s *XMLStorage) GravarCancelamento(chave string, xml []byte) (string, error) {
	return s.gravar(chave+"-canc.xml", xml)
}

// GravarInutilizacao grava o pedido de inutilização como inut-<id>.xml.
func (s *XMLStorage) GravarInutilizacao(id string, xml []byte) (string, error) {
	return s.gravar("inut-"+id+".xml", xml)
}

// Ler devolve o conteúdo de um artefato gravado anteriormente.
func (s *XMLStorage) Ler(caminho string) ([]byte, error) {
	dados, err := os.ReadFile(caminho)
	if err != nil {
		return nil, fmt.Errorf("storage: ler %s: %w", caminho, err)
	}
	return dados, nil
}

func (s *XMLStorage) gravar(nome string, dados []byte) (string, error) {
	caminho := filepath.Join(s.dir, nome)
	if err := os.WriteFile(caminho, dados, permArquivo); err != nil {
		return "", fmt.Errorf("storage: gravar %s: %w", caminho, err)
	}
	return caminho, nil
}
