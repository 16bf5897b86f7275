package enclave

import (
	"crypto/ecdsa"
	"errors"
)

var (
	// ErrKeyNotFound is returned by Open when no key is sealed under the
	// requested tag. Any other failure means the provider itself is
	// unavailable.
	ErrKeyNotFound = errors.New("enclave: key not found")
)

// Policy is the access-control policy bound to a generated key.
// It is fixed at generation time and enforced on every open.
type Policy struct {
	// RequireUnlock restricts use of the key to when the device
	// keystore is accessible.
	RequireUnlock bool `json:"require_unlock"`
	// DeviceBound keys are sealed to this device and cannot be opened
	// elsewhere.
	DeviceBound bool `json:"device_bound"`
	// BiometricPrompt gates each use behind a user-presence check.
	// Unsupported for unattended operation.
	BiometricPrompt bool `json:"biometric_prompt"`
}

// KeyHandle is an opaque, non-exportable signing key. The private
// component is usable only through Sign; no method on KeyHandle or
// Provider returns private key material.
type KeyHandle interface {
	// Sign produces a raw r||s P-256 ECDSA signature over message
	// (SHA-256 digest computed inside the provider).
	Sign(message []byte) ([]byte, error)

	// Public returns the public half of the key pair.
	Public() *ecdsa.PublicKey
}

// Provider abstracts a hardware security module holding non-exportable
// keys. Real implementations would delegate to a secure enclave, TPM,
// or PKCS#11 token.
type Provider interface {
	// Open loads a previously generated key by tag. Returns
	// ErrKeyNotFound if no key exists under the tag.
	Open(tag string) (KeyHandle, error)

	// Generate creates a new P-256 key pair under the tag with the
	// given access policy.
	Generate(tag string, policy Policy) (KeyHandle, error)
}
