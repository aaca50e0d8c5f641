package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// CertStorage grava e lê os arquivos .pfx já cifrados pelo cofre.
// O conteúdo em claro nunca passa por aqui.
type CertStorage struct {
	dir string
}

// NewCertStorage cria o storage, garantindo o diretório base.
func NewCertStorage(dir string) (*CertStorage, error) {
	if err := os.MkdirAll(dir, permDir); err != nil {
		return nil, fmt.Errorf("storage: criar diretório %s: %w", dir, err)
	}
	return &CertStorage{dir: dir}, nil
}

// Gravar persiste o .pfx cifrado sob o ID do certificado e devolve o caminho.
func (s *CertStorage) Gravar(certificadoID string, cifrado []byte) (string, error) {
	caminho := filepath.Join(s.dir, certificadoID+".pfx.enc")
	if err := os.WriteFile(caminho, cifrado, permArquivo); err != nil {
		return "", fmt.Errorf("storage: gravar certificado %s: %w", caminho, err)
	}
	return caminho, nil
}

// Ler devolve o .pfx cifrado gravado em caminho.
func (s *CertStorage) Ler(caminho string) ([]byte, error) {
	dados, err := os.ReadFile(caminho)
	if err != nil {
		return nil, fmt.Errorf("storage: ler certificado %s: %w", caminho, err)
	}
	return dados, nil
}

// Remover apaga o arquivo cifrado do certificado. Ignora se já não existir.
func (s *CertStorage) Remover(caminho string) error {
	if err := os.Remove(caminho); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remover certificado %s: %w", caminho, err)
	}
	return nil
}
