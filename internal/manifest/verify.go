package manifest

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// VerifySignature checks a base64-encoded Ed25519 signature over the raw
// manifest bytes, using a PEM-encoded Ed25519 public key. Stdlib
// crypto/ed25519 is used rather than a third-party crypto library: it is
// the correct, constant-time implementation and no example-pack dependency
// adds anything to it for this one primitive.
func VerifySignature(manifestBytes, signatureB64 []byte, publicKeyPEM []byte) error {
	block, _ := pem.Decode(publicKeyPEM)
	if block == nil {
		return fmt.Errorf("invalid PEM public key")
	}

	var pub ed25519.PublicKey
	switch len(block.Bytes) {
	case ed25519.PublicKeySize:
		pub = ed25519.PublicKey(block.Bytes)
	default:
		return fmt.Errorf("unexpected public key length: %d", len(block.Bytes))
	}

	sig := make([]byte, base64.StdEncoding.DecodedLen(len(signatureB64)))
	n, err := base64.StdEncoding.Decode(sig, signatureB64)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	sig = sig[:n]

	if !ed25519.Verify(pub, manifestBytes, sig) {
		return fmt.Errorf("signature verification failed")
	}
	return nil
}
