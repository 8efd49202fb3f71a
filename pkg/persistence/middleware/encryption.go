package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/capstone-ai/dna/pkg/ports"
)

// ErrInvalidKey is returned when a key is not 32 bytes long.
var ErrInvalidKey = errors.New("encryption key must be 32 bytes (AES-256)")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot decrypt,
	// so keys can be rotated without dropping conversations.
	FallbackKeys [][]byte
}

// Envelope is the at-rest form of an encrypted value. Nothing of the value
// is visible outside the ciphertext.
type Envelope struct {
	Ciphertext string `json:"ciphertext"`
}

// Encrypted is a Store that seals values with AES-GCM before handing them
// to the underlying store.
type Encrypted[T any] struct {
	next   ports.Store[Envelope]
	config EncryptionConfig
}

// NewEncrypted wraps next. All keys must be 32 bytes.
func NewEncrypted[T any](next ports.Store[Envelope], config EncryptionConfig) (*Encrypted[T], error) {
	if len(config.ActiveKey) != 32 {
		return nil, ErrInvalidKey
	}
	for _, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, ErrInvalidKey
		}
	}
	return &Encrypted[T]{next: next, config: config}, nil
}

// DecodeKey parses a base64 (standard encoding) AES-256 key.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return key, nil
}

func (m *Encrypted[T]) Save(ctx context.Context, id string, value T) error {
	plainText, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt value: %w", err)
	}

	return m.next.Save(ctx, id, Envelope{Ciphertext: base64.StdEncoding.EncodeToString(ciphertext)})
}

func (m *Encrypted[T]) Load(ctx context.Context, id string) (T, error) {
	var zero T
	envelope, err := m.next.Load(ctx, id)
	if err != nil {
		return zero, err
	}
	if envelope.Ciphertext == "" {
		return zero, errors.New("stored value is missing its encrypted envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Ciphertext)
	if err != nil {
		return zero, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return zero, fmt.Errorf("failed to decrypt value: %w", err)
	}

	var value T
	if err := json.Unmarshal(plainText, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal decrypted value: %w", err)
	}
	return value, nil
}

func (m *Encrypted[T]) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *Encrypted[T]) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
