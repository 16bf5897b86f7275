// Package sigops exposes the sign and verify primitives over a
// custodian identity. It handles wire encodings only; key material
// stays behind the identity's handle.
package sigops

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/sealkit/enclave-signer/internal/crypto"
	"github.com/sealkit/enclave-signer/internal/custodian"
)

// ErrSigningUnavailable means Sign was invoked with no identity loaded.
var ErrSigningUnavailable = errors.New("signing unavailable")

// Sign produces a base64-encoded raw r||s signature over message.
func Sign(id *custodian.Identity, message []byte) (string, error) {
	if id == nil {
		return "", ErrSigningUnavailable
	}
	sig, err := id.Sign(message)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify reports whether signature (raw r||s bytes) validates message
// under the identity's public key. Pure predicate: malformed bytes, a
// nil identity, and a genuine mismatch are all false.
func Verify(id *custodian.Identity, message, signature []byte) bool {
	if id == nil {
		return false
	}
	return crypto.VerifyP256(id.Public(), message, signature)
}

// PublicKeyBase64 returns the identity's raw public curve point,
// base64-encoded.
func PublicKeyBase64(id *custodian.Identity) string {
	return base64.StdEncoding.EncodeToString(id.PublicKeyBytes())
}
