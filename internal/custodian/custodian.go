// Package custodian owns the process signing identity. The private key
// lives behind an enclave.KeyHandle; nothing in this package or its
// callers can read it back out.
package custodian

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/sealkit/enclave-signer/internal/crypto"
	"github.com/sealkit/enclave-signer/internal/enclave"
)

// KeyTag is the fixed, process-wide identifier the signing identity is
// persisted under.
const KeyTag = "io.sealkit.signer.identity"

// ErrKeyUnavailable means the provider could neither load nor generate
// the signing key. Fatal at startup.
var ErrKeyUnavailable = errors.New("custodian: signing key unavailable")

// DefaultPolicy is the access policy for the signing identity: usable
// while the device keystore is unlocked, bound to this device, and
// never gated behind a user-presence prompt (the process runs
// unattended).
var DefaultPolicy = enclave.Policy{RequireUnlock: true, DeviceBound: true}

// Identity is the single signing identity of the process. Read-only
// after Initialize.
type Identity struct {
	handle    enclave.KeyHandle
	pubRaw    []byte
	generated bool
}

// Initialize loads the identity persisted under tag, generating a new
// one under DefaultPolicy if none exists. Any other provider failure is
// ErrKeyUnavailable.
func Initialize(provider enclave.Provider, tag string) (*Identity, error) {
	generated := false

	handle, err := provider.Open(tag)
	if errors.Is(err, enclave.ErrKeyNotFound) {
		handle, err = provider.Generate(tag, DefaultPolicy)
		generated = true
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	pubRaw, err := crypto.MarshalPublicPoint(handle.Public())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	return &Identity{handle: handle, pubRaw: pubRaw, generated: generated}, nil
}

// Sign delegates to the key handle. The signature is the raw r||s
// encoding.
func (id *Identity) Sign(message []byte) ([]byte, error) {
	return id.handle.Sign(message)
}

// Public returns the identity's public key.
func (id *Identity) Public() *ecdsa.PublicKey {
	return id.handle.Public()
}

// PublicKeyBytes returns the raw uncompressed public curve point.
func (id *Identity) PublicKeyBytes() []byte {
	out := make([]byte, len(id.pubRaw))
	copy(out, id.pubRaw)
	return out
}

// Generated reports whether Initialize created a fresh key rather than
// loading a persisted one.
func (id *Identity) Generated() bool {
	return id.generated
}
