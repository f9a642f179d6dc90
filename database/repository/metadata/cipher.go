package metadataRepo

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"petrel/models"
)

// DocumentCipher encrypts document values for at-rest storage. Each document
// gets its own key derived from the pair hash and a deployment-wide salt, so
// decrypting a record requires possessing that document's hash, not just
// process-wide state.
type DocumentCipher struct {
	salt string
}

// NewDocumentCipher builds a cipher. The deployment salt is mandatory; it is
// the extra secret that keeps leaked database files unreadable.
func NewDocumentCipher(salt string) (*DocumentCipher, error) {
	if salt == "" {
		return nil, fmt.Errorf("a deployment salt must be specified")
	}
	return &DocumentCipher{salt: salt}, nil
}

// secretKey derives the per-document AES key: SHA256(pair.Hash || salt).
func (c *DocumentCipher) secretKey(pair models.KeyPair) []byte {
	h := sha256.New()
	h.Write([]byte(pair.Hash))
	h.Write([]byte(c.salt))
	return h.Sum(nil)
}

// Encrypt serializes the value to canonical JSON and seals it with AES-GCM
// under the document's derived key. The random nonce is prepended and the
// whole thing is base64 text, ready for storage.
func (c *DocumentCipher) Encrypt(pair models.KeyPair, value models.Document) (string, error) {
	plain, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to serialize document: %w", err)
	}

	block, err := aes.NewCipher(c.secretKey(pair))
	if err != nil {
		return "", fmt.Errorf("failed to build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to build cipher: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plain, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any failure along the way — bad base64, short
// ciphertext, auth-tag mismatch, broken JSON — comes back as a plain error so
// the store can treat it as an authorization failure rather than a fault.
// Numbers decode as json.Number to keep precision through round-trips.
func (c *DocumentCipher) Decrypt(pair models.KeyPair, ciphertext string) (models.Document, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(c.secretKey(pair))
	if err != nil {
		return nil, fmt.Errorf("failed to build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to build cipher: %w", err)
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, body := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt document: %w", err)
	}

	var value models.Document
	dec := json.NewDecoder(bytes.NewReader(plain))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("failed to deserialize document: %w", err)
	}
	return value, nil
}
