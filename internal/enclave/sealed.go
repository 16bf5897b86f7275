package enclave

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sealkit/enclave-signer/internal/crypto"
)

const rootSecretFile = "device.secret"

// sealedRecord is the on-disk form of a sealed key.
type sealedRecord struct {
	Tag       string    `json:"tag"`
	Policy    Policy    `json:"policy"`
	SealedKey []byte    `json:"sealed_key"`
	CreatedAt time.Time `json:"created_at"`
}

// SealedProvider is a software rendering of a hardware-backed keystore.
// Private keys are persisted only in sealed form: PKCS8 DER encrypted
// under a key derived from a per-device root secret, with the access
// policy bound as additional authenticated data. The root secret never
// leaves this machine, which is what makes sealed keys device-bound.
//
// A production deployment on hardware with a real secure element would
// swap this for a Provider backed by that element.
type SealedProvider struct {
	dir  string
	root []byte
}

// NewSealedProvider opens the sealed keystore rooted at dir, creating
// the directory and the device root secret on first use.
func NewSealedProvider(dir string) (*SealedProvider, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}

	rootPath := filepath.Join(dir, rootSecretFile)
	root, err := os.ReadFile(rootPath)
	if os.IsNotExist(err) {
		root, err = crypto.GenerateRootSecret()
		if err != nil {
			return nil, err
		}
		if err := writeFileAtomic(rootPath, root, 0600); err != nil {
			return nil, fmt.Errorf("write root secret: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("read root secret: %w", err)
	}

	return &SealedProvider{dir: dir, root: root}, nil
}

func (p *SealedProvider) Generate(tag string, policy Policy) (KeyHandle, error) {
	if policy.BiometricPrompt {
		return nil, fmt.Errorf("enclave: biometric policy unsupported for unattended keys")
	}

	key, err := crypto.GenerateP256Key()
	if err != nil {
		return nil, err
	}
	der, err := crypto.MarshalPrivateKey(key)
	if err != nil {
		return nil, err
	}

	aad, err := policyAAD(tag, policy)
	if err != nil {
		return nil, err
	}
	sealed, err := crypto.Seal(p.root, sealInfo(tag), der, aad)
	if err != nil {
		return nil, err
	}

	record := sealedRecord{
		Tag:       tag,
		Policy:    policy,
		SealedKey: sealed,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sealed record: %w", err)
	}
	if err := writeFileAtomic(p.keyPath(tag), data, 0600); err != nil {
		return nil, fmt.Errorf("write sealed key: %w", err)
	}

	return &sealedKey{priv: key, policy: policy}, nil
}

func (p *SealedProvider) Open(tag string) (KeyHandle, error) {
	data, err := os.ReadFile(p.keyPath(tag))
	if os.IsNotExist(err) {
		return nil, ErrKeyNotFound
	} else if err != nil {
		return nil, fmt.Errorf("read sealed key: %w", err)
	}

	var record sealedRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal sealed record: %w", err)
	}

	if record.Policy.RequireUnlock {
		// Software analogue of "device unlocked": the root secret must
		// still be present and readable.
		if _, err := os.Stat(filepath.Join(p.dir, rootSecretFile)); err != nil {
			return nil, fmt.Errorf("keystore locked: %w", err)
		}
	}

	// Unsealing authenticates the recorded policy: a tampered policy
	// makes the key unopenable rather than opening it under relaxed
	// rules.
	aad, err := policyAAD(record.Tag, record.Policy)
	if err != nil {
		return nil, err
	}
	der, err := crypto.Unseal(p.root, sealInfo(tag), record.SealedKey, aad)
	if err != nil {
		return nil, err
	}

	key, err := crypto.UnmarshalPrivateKey(der)
	if err != nil {
		return nil, err
	}
	return &sealedKey{priv: key, policy: record.Policy}, nil
}

func (p *SealedProvider) keyPath(tag string) string {
	return filepath.Join(p.dir, tag+".sealed")
}

func sealInfo(tag string) []byte {
	return []byte("enclave-seal:" + tag)
}

func policyAAD(tag string, policy Policy) ([]byte, error) {
	pj, err := json.Marshal(policy)
	if err != nil {
		return nil, fmt.Errorf("marshal policy: %w", err)
	}
	return append([]byte(tag+"|"), pj...), nil
}

// writeFileAtomic writes to a temp file then renames into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// sealedKey holds the unsealed private key for the life of the process.
// It deliberately implements nothing beyond KeyHandle.
type sealedKey struct {
	priv   *ecdsa.PrivateKey
	policy Policy
}

func (k *sealedKey) Sign(message []byte) ([]byte, error) {
	return crypto.SignP256(k.priv, message)
}

func (k *sealedKey) Public() *ecdsa.PublicKey {
	return &k.priv.PublicKey
}
