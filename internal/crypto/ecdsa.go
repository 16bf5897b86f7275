package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"math/big"
)

// RawSignatureSize is the length of a raw P-256 ECDSA signature:
// the two 32-byte big-endian scalars r and s, concatenated.
const RawSignatureSize = 64

const scalarSize = 32

// GenerateP256Key creates a new ECDSA key pair on the P-256 curve.
func GenerateP256Key() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate p256 key: %w", err)
	}
	return key, nil
}

// SignP256 signs message with the given private key using SHA-256 digest.
// Returns the raw r||s signature encoding.
func SignP256(key *ecdsa.PrivateKey, message []byte) ([]byte, error) {
	hash := sha256.Sum256(message)
	r, s, err := ecdsa.Sign(rand.Reader, key, hash[:])
	if err != nil {
		return nil, fmt.Errorf("ecdsa sign: %w", err)
	}

	sig := make([]byte, RawSignatureSize)
	r.FillBytes(sig[:scalarSize])
	s.FillBytes(sig[scalarSize:])
	return sig, nil
}

// VerifyP256 verifies a raw r||s P-256 signature against message.
// Malformed signatures verify as false; there is no error case.
func VerifyP256(pub *ecdsa.PublicKey, message, signature []byte) bool {
	if pub == nil || len(signature) != RawSignatureSize {
		return false
	}
	r := new(big.Int).SetBytes(signature[:scalarSize])
	s := new(big.Int).SetBytes(signature[scalarSize:])

	hash := sha256.Sum256(message)
	return ecdsa.Verify(pub, hash[:], r, s)
}

// MarshalPublicPoint encodes an ECDSA public key as the raw uncompressed
// curve point (0x04 || X || Y, 65 bytes for P-256).
func MarshalPublicPoint(pub *ecdsa.PublicKey) ([]byte, error) {
	ecdhPub, err := pub.ECDH()
	if err != nil {
		return nil, fmt.Errorf("marshal public point: %w", err)
	}
	return ecdhPub.Bytes(), nil
}

// MarshalPrivateKey encodes an ECDSA private key in PKCS8 DER format.
func MarshalPrivateKey(key *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	return der, nil
}

// UnmarshalPrivateKey decodes a PKCS8 DER-encoded ECDSA private key.
func UnmarshalPrivateKey(der []byte) (*ecdsa.PrivateKey, error) {
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("not an ECDSA private key")
	}
	return key, nil
}
