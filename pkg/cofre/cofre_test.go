package cofre_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-usuario/pdv-fiscal/pkg/cofre"
)

const chaveTesteHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestCofre_SelarEAbrir(t *testing.T) {
	c, err := cofre.New(chaveTesteHex)
	require.NoError(t, err)

	original := []byte("conteúdo do .pfx de teste")
	cifrado, err := c.Selar(original)
	require.NoError(t, err)
	assert.NotEqual(t, original, cifrado)
	assert.Greater(t, len(cifrado), len(original), "nonce + tag aumentam o blob")

	aberto, err := c.Abrir(cifrado)
	require.NoError(t, err)
	assert.Equal(t, original, aberto)
}

func TestCofre_NoncesDistintos(t *testing.T) {
	c, err := cofre.New(chaveTesteHex)
	require.NoError(t, err)

	a, err := c.Selar([]byte("mesmo conteúdo"))
	require.NoError(t, err)
	b, err := c.Selar([]byte("mesmo conteúdo"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "cada selagem usa nonce novo")
}

func TestCofre_ChaveErradaNaoAbre(t *testing.T) {
	c1, err := cofre.New(chaveTesteHex)
	require.NoError(t, err)
	c2, err := cofre.New(strings.Repeat("ff", 32))
	require.NoError(t, err)

	cifrado, err := c1.Selar([]byte("segredo"))
	require.NoError(t, err)

	_, err = c2.Abrir(cifrado)
	assert.Error(t, err)
}

func TestCofre_BlobCorrompido(t *testing.T) {
	c, err := cofre.New(chaveTesteHex)
	require.NoError(t, err)

	cifrado, err := c.Selar([]byte("segredo"))
	require.NoError(t, err)
	cifrado[len(cifrado)-1] ^= 0x01

	_, err = c.Abrir(cifrado)
	assert.Error(t, err)
}

func TestCofre_BlobCurto(t *testing.T) {
	c, err := cofre.New(chaveTesteHex)
	require.NoError(t, err)

	_, err = c.Abrir([]byte("curto"))
	assert.Error(t, err)
}

func TestNew_ChavesInvalidas(t *testing.T) {
	_, err := cofre.New("não-hex")
	assert.Error(t, err)

	_, err = cofre.New("abcd")
	assert.Error(t, err, "16 bits não bastam")

	_, err = cofre.New(strings.Repeat("00", 16))
	assert.Error(t, err, "chave de 16 bytes é curta")
}
