package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Envelope version prefix. Ciphertexts are self-describing so a future key
// rotation can dispatch on the prefix without migrating stored rows.
const versionV1 = "v1"

// ErrDecrypt is returned for a malformed envelope, a wrong key, or a failed
// auth tag. Callers must treat it as fatal for the field; there is no
// fallback to raw plaintext.
var ErrDecrypt = errors.New("fieldcrypt: cannot decrypt value")

// ValidationError reports a rejected input value (bad SSN / DOB shape).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Encryptor does symmetric field-level encryption of PII strings.
// Repeated Encrypt calls on the same plaintext produce different
// ciphertexts (fresh random nonce per call).
type Encryptor struct {
	aead cipher.AEAD
}

// New builds an Encryptor from a 64-char hex key (32 bytes, AES-256-GCM).
func New(hexKey string) (*Encryptor, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("fieldcrypt: key is not hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("fieldcrypt: key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Encryptor{aead: aead}, nil
}

// Encrypt seals plaintext into a "v1:<base64(nonce||ciphertext)>" envelope.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return versionV1 + ":" + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt. Any tampering, truncation
// or key mismatch yields ErrDecrypt.
func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	version, payload, ok := strings.Cut(ciphertext, ":")
	if !ok || version != versionV1 {
		return "", ErrDecrypt
	}
	sealed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrDecrypt
	}
	ns := e.aead.NonceSize()
	if len(sealed) < ns {
		return "", ErrDecrypt
	}
	plain, err := e.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}
