package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const sealKeySize = 32

// Seal encrypts plaintext under a key derived from rootKey via
// HKDF-SHA256, using AES-256-GCM. info provides HKDF domain separation
// (one sealing key per key tag). aad is bound into the authentication
// tag; Unseal with different aad fails.
// The returned blob has the nonce prepended: [nonce | encrypted | tag].
func Seal(rootKey, info, plaintext, aad []byte) ([]byte, error) {
	gcm, err := sealCipher(rootKey, info)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, aad), nil
}

// Unseal decrypts a blob produced by Seal. rootKey, info, and aad must
// all match the values used during sealing.
func Unseal(rootKey, info, blob, aad []byte) ([]byte, error) {
	gcm, err := sealCipher(rootKey, info)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return nil, fmt.Errorf("sealed blob too short")
	}

	nonce, ct := blob[:nonceSize], blob[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, fmt.Errorf("unseal: %w", err)
	}
	return plaintext, nil
}

// GenerateRootSecret generates a random 256-bit device root secret.
func GenerateRootSecret() ([]byte, error) {
	secret := make([]byte, sealKeySize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate root secret: %w", err)
	}
	return secret, nil
}

func sealCipher(rootKey, info []byte) (cipher.AEAD, error) {
	key := make([]byte, sealKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, rootKey, nil, info), key); err != nil {
		return nil, fmt.Errorf("hkdf derive: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aes gcm: %w", err)
	}
	return gcm, nil
}
