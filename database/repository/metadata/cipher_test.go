package metadataRepo

import (
	"encoding/json"
	"testing"

	"petrel/models"

	"github.com/stretchr/testify/require"
)

func TestNewDocumentCipherRequiresSalt(t *testing.T) {
	_, err := NewDocumentCipher("")
	require.Error(t, err)
}

func TestCipherRoundTrip(t *testing.T) {
	cipher, err := NewDocumentCipher("test-salt")
	require.NoError(t, err)
	pair := models.KeyPair{UserID: "u1", Hash: "hash-u1"}

	doc := models.Document{
		"profile": map[string]any{
			"fullName": "Anne Example",
			"patient":  map[string]any{"birthday": "1990-01-01"},
		},
		"tags":    []any{"a", "b", json.Number("3")},
		"big":     json.Number("9007199254740993"),
		"precise": json.Number("0.30000000000000004"),
		"flag":    true,
		"empty":   map[string]any{},
	}

	crypted, err := cipher.Encrypt(pair, doc)
	require.NoError(t, err)

	decrypted, err := cipher.Decrypt(pair, crypted)
	require.NoError(t, err)
	require.Equal(t, doc, decrypted)
}

func TestCipherWrongHashFails(t *testing.T) {
	cipher, err := NewDocumentCipher("test-salt")
	require.NoError(t, err)

	crypted, err := cipher.Encrypt(models.KeyPair{UserID: "u1", Hash: "right"}, models.Document{"a": "b"})
	require.NoError(t, err)

	_, err = cipher.Decrypt(models.KeyPair{UserID: "u1", Hash: "wrong"}, crypted)
	require.Error(t, err)
}

func TestCipherDifferentSaltFails(t *testing.T) {
	pair := models.KeyPair{UserID: "u1", Hash: "hash"}

	first, err := NewDocumentCipher("salt-one")
	require.NoError(t, err)
	second, err := NewDocumentCipher("salt-two")
	require.NoError(t, err)

	crypted, err := first.Encrypt(pair, models.Document{"a": "b"})
	require.NoError(t, err)

	_, err = second.Decrypt(pair, crypted)
	require.Error(t, err)
}

func TestCipherTamperedCiphertextFails(t *testing.T) {
	cipher, err := NewDocumentCipher("test-salt")
	require.NoError(t, err)
	pair := models.KeyPair{UserID: "u1", Hash: "hash"}

	crypted, err := cipher.Encrypt(pair, models.Document{"a": "b"})
	require.NoError(t, err)

	_, err = cipher.Decrypt(pair, "not base64 at all!!")
	require.Error(t, err)

	_, err = cipher.Decrypt(pair, "AAAA")
	require.Error(t, err)

	// Flip a character somewhere past the nonce.
	tampered := []byte(crypted)
	last := len(tampered) - 5
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}
	_, err = cipher.Decrypt(pair, string(tampered))
	require.Error(t, err)
}
