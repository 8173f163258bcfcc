// Package sigconv is a thin wrapper over the conventional (non-identity)
// signature scheme used to sign authorization tokens: Ed25519, 32-byte
// public keys, 64-byte detached signatures, via stdlib crypto/ed25519.
package sigconv

import (
	"crypto/ed25519"
	"errors"
)

const (
	// PublicKeySize is the raw Ed25519 public key length.
	PublicKeySize = ed25519.PublicKeySize
	// SecretKeySize is the raw Ed25519 private key length.
	SecretKeySize = ed25519.PrivateKeySize
	// SignatureSize is the raw Ed25519 detached signature length.
	SignatureSize = ed25519.SignatureSize
)

// KeyPair holds a matched Ed25519 public/secret key. Public views built
// for a load set's token_keys leave Secret nil; omitempty keeps it out of
// the JSON entirely rather than emitting a null.
type KeyPair struct {
	Public ed25519.PublicKey  `json:"public"`
	Secret ed25519.PrivateKey `json:"secret,omitempty"`
}

// GenerateKeyPair samples a fresh Ed25519 key pair.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Public: pub, Secret: priv}, nil
}

// Sign returns the 64-byte detached signature of msg under secret.
func Sign(secret ed25519.PrivateKey, msg []byte) ([]byte, error) {
	if len(secret) != SecretKeySize {
		return nil, errors.New("sigconv: malformed secret key")
	}
	return ed25519.Sign(secret, msg), nil
}

// Verify reports whether sig is a valid signature of msg under public. It
// never raises for a malformed signature or key of the wrong length; a bad
// signature simply verifies false.
func Verify(public ed25519.PublicKey, msg, sig []byte) bool {
	if len(public) != PublicKeySize || len(sig) != SignatureSize {
		return false
	}
	return ed25519.Verify(public, msg, sig)
}
