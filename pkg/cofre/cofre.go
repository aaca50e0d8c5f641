// Package cofre cifra em repouso os arquivos .pfx e as senhas de certificado
// usando NaCl secretbox (XSalsa20-Poly1305) com uma chave mestra da
// configuração. O nonce vai prefixado no ciphertext.
package cofre

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceLen = 24

// Cofre cifra e decifra blobs com a chave mestra.
type Cofre struct {
	chave [32]byte
}

// New cria o cofre a partir da chave mestra em hex (64 caracteres, 32 bytes).
func New(chaveHex string) (*Cofre, error) {
	raw, err := hex.DecodeString(chaveHex)
	if err != nil {
		return nil, fmt.Errorf("cofre: chave mestra não é hex válido: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("cofre: chave mestra deve ter 32 bytes, tem %d", len(raw))
	}
	c := &Cofre{}
	copy(c.chave[:], raw)
	return c, nil
}

// Selar cifra o blob. O resultado carrega o nonce nos primeiros 24 bytes.
func (c *Cofre) Selar(dados []byte) ([]byte, error) {
	var nonce [nonceLen]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("cofre: gerar nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], dados, &nonce, &c.chave), nil
}

// Abrir decifra um blob produzido por Selar.
func (c *Cofre) Abrir(cifrado []byte) ([]byte, error) {
	if len(cifrado) < nonceLen {
		return nil, fmt.Errorf("cofre: blob cifrado curto demais")
	}
	var nonce [nonceLen]byte
	copy(nonce[:], cifrado[:nonceLen])
	aberto, ok := secretbox.Open(nil, cifrado[nonceLen:], &nonce, &c.chave)
	if !ok {
		return nil, fmt.Errorf("cofre: falha ao decifrar (chave errada ou blob corrompido)")
	}
	return aberto, nil
}
