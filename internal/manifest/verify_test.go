package manifest

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/pem"
	"testing"
)

func generateTestKey(t *testing.T) (pub []byte, priv ed25519.PrivateKey) {
	t.Helper()
	pubKey, privKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("ed25519.GenerateKey() error = %v", err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: pubKey}
	return pem.EncodeToMemory(block), privKey
}

func TestVerifySignature_Valid(t *testing.T) {
	pubPEM, priv := generateTestKey(t)
	manifestBytes := []byte(`{"version":"1.0.0"}`)
	sig := ed25519.Sign(priv, manifestBytes)
	sigB64 := []byte(base64.StdEncoding.EncodeToString(sig))

	if err := VerifySignature(manifestBytes, sigB64, pubPEM); err != nil {
		t.Errorf("VerifySignature() error = %v, want nil", err)
	}
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	pubPEM, priv := generateTestKey(t)
	manifestBytes := []byte(`{"version":"1.0.0"}`)
	sig := ed25519.Sign(priv, manifestBytes)
	sigB64 := []byte(base64.StdEncoding.EncodeToString(sig))

	tampered := []byte(`{"version":"9.9.9"}`)
	if err := VerifySignature(tampered, sigB64, pubPEM); err == nil {
		t.Error("VerifySignature() with tampered body succeeded, want error")
	}
}

func TestVerifySignature_WrongKey(t *testing.T) {
	_, priv := generateTestKey(t)
	otherPubPEM, _ := generateTestKey(t)

	manifestBytes := []byte(`{"version":"1.0.0"}`)
	sig := ed25519.Sign(priv, manifestBytes)
	sigB64 := []byte(base64.StdEncoding.EncodeToString(sig))

	if err := VerifySignature(manifestBytes, sigB64, otherPubPEM); err == nil {
		t.Error("VerifySignature() with wrong key succeeded, want error")
	}
}

func TestVerifySignature_InvalidPEM(t *testing.T) {
	if err := VerifySignature([]byte("data"), []byte("c2ln"), []byte("not pem")); err == nil {
		t.Error("expected error for invalid PEM")
	}
}
