package actual

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	algorithmAESGCM = "aes-256-gcm"

	keyIterations = 10000
	keyLength     = 32
)

// DeriveKey rebuilds a file key from the encryption password and the salt
// the server stores for it.
func DeriveKey(password, salt string) []byte {
	return pbkdf2.Key([]byte(password), []byte(salt), keyIterations, keyLength, sha512.New)
}

// Decrypt opens a blob sealed with AES-256-GCM as described by meta.
func Decrypt(key []byte, meta EncryptMeta, data []byte) ([]byte, error) {
	if meta.Algorithm != "" && meta.Algorithm != algorithmAESGCM {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrEncrypted, meta.Algorithm)
	}

	iv, err := base64.StdEncoding.DecodeString(meta.IV)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}
	tag, err := base64.StdEncoding.DecodeString(meta.AuthTag)
	if err != nil {
		return nil, fmt.Errorf("decode auth tag: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	sealed := make([]byte, 0, len(data)+len(tag))
	sealed = append(append(sealed, data...), tag...)
	plain, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: wrong encryption password or corrupt file", ErrEncrypted)
	}
	return plain, nil
}

// keyTest is the sample the server keeps to check a derived key before
// touching the real file.
type keyTest struct {
	Value string      `json:"value"`
	Meta  EncryptMeta `json:"meta"`
}

// VerifyKey decrypts the key's test sample. An empty sample is accepted.
func VerifyKey(key []byte, uk UserKey) error {
	if uk.Test == "" {
		return nil
	}

	var kt keyTest
	if err := json.Unmarshal([]byte(uk.Test), &kt); err != nil {
		return fmt.Errorf("decode key test: %w", err)
	}
	value, err := base64.StdEncoding.DecodeString(kt.Value)
	if err != nil {
		return fmt.Errorf("decode key test value: %w", err)
	}
	_, err = Decrypt(key, kt.Meta, value)
	return err
}
