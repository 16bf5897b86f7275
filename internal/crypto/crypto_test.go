package crypto

import (
	"bytes"
	"testing"
)

func TestP256SignVerify(t *testing.T) {
	key, err := GenerateP256Key()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	data := []byte("test message for signing")
	sig, err := SignP256(key, data)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if len(sig) != RawSignatureSize {
		t.Fatalf("expected %d-byte signature, got %d", RawSignatureSize, len(sig))
	}

	if !VerifyP256(&key.PublicKey, data, sig) {
		t.Fatal("valid signature rejected")
	}
}

func TestP256VerifyWrongData(t *testing.T) {
	key, err := GenerateP256Key()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	sig, err := SignP256(key, []byte("original"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if VerifyP256(&key.PublicKey, []byte("tampered"), sig) {
		t.Fatal("tampered data should not verify")
	}
}

func TestP256VerifyWrongKey(t *testing.T) {
	key1, _ := GenerateP256Key()
	key2, _ := GenerateP256Key()

	sig, _ := SignP256(key1, []byte("data"))
	if VerifyP256(&key2.PublicKey, []byte("data"), sig) {
		t.Fatal("wrong key should not verify")
	}
}

func TestP256VerifyBitFlip(t *testing.T) {
	key, _ := GenerateP256Key()
	data := []byte("flip one bit")

	sig, err := SignP256(key, data)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	for _, i := range []int{0, 17, RawSignatureSize - 1} {
		mutated := bytes.Clone(sig)
		mutated[i] ^= 0x01
		if VerifyP256(&key.PublicKey, data, mutated) {
			t.Fatalf("signature with flipped bit at byte %d should not verify", i)
		}
	}
}

func TestP256VerifyMalformed(t *testing.T) {
	key, _ := GenerateP256Key()
	data := []byte("data")

	if VerifyP256(&key.PublicKey, data, nil) {
		t.Fatal("nil signature should not verify")
	}
	if VerifyP256(&key.PublicKey, data, []byte("short")) {
		t.Fatal("short signature should not verify")
	}
	if VerifyP256(&key.PublicKey, data, make([]byte, RawSignatureSize+1)) {
		t.Fatal("oversized signature should not verify")
	}
	if VerifyP256(nil, data, make([]byte, RawSignatureSize)) {
		t.Fatal("nil key should not verify")
	}
}

func TestMarshalPublicPoint(t *testing.T) {
	key, _ := GenerateP256Key()

	point, err := MarshalPublicPoint(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public point: %v", err)
	}
	if len(point) != 65 {
		t.Fatalf("expected 65-byte uncompressed point, got %d", len(point))
	}
	if point[0] != 0x04 {
		t.Fatalf("expected uncompressed point prefix 0x04, got 0x%02x", point[0])
	}
}

func TestPrivateKeyMarshalRoundTrip(t *testing.T) {
	key, err := GenerateP256Key()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	der, err := MarshalPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	recovered, err := UnmarshalPrivateKey(der)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// Sign with original, verify with recovered.
	data := []byte("roundtrip test")
	sig, err := SignP256(key, data)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !VerifyP256(&recovered.PublicKey, data, sig) {
		t.Fatal("roundtrip key should verify signature")
	}
}

func TestSealUnseal(t *testing.T) {
	root, err := GenerateRootSecret()
	if err != nil {
		t.Fatalf("generate root secret: %v", err)
	}

	info := []byte("key-seal:test")
	aad := []byte(`{"device_bound":true}`)
	plaintext := []byte("secret key material")

	blob, err := Seal(root, info, plaintext, aad)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	got, err := Unseal(root, info, blob, aad)
	if err != nil {
		t.Fatalf("unseal: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("unsealed plaintext mismatch")
	}
}

func TestUnsealWrongRoot(t *testing.T) {
	root1, _ := GenerateRootSecret()
	root2, _ := GenerateRootSecret()

	blob, err := Seal(root1, []byte("info"), []byte("data"), nil)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := Unseal(root2, []byte("info"), blob, nil); err == nil {
		t.Fatal("unseal with different root secret should fail")
	}
}

func TestUnsealWrongAAD(t *testing.T) {
	root, _ := GenerateRootSecret()

	blob, err := Seal(root, []byte("info"), []byte("data"), []byte("policy-a"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := Unseal(root, []byte("info"), blob, []byte("policy-b")); err == nil {
		t.Fatal("unseal with different aad should fail")
	}
}

func TestUnsealTruncatedBlob(t *testing.T) {
	root, _ := GenerateRootSecret()
	if _, err := Unseal(root, []byte("info"), []byte{0x01, 0x02}, nil); err == nil {
		t.Fatal("unseal of truncated blob should fail")
	}
}
