// Package sigibs implements the identity-based signature (IBS) primitive
// used to sign broadcast state updates: a verifier needs only a root
// public parameter and the signer's identity string, never a per-signer
// certificate. It is built from github.com/herumi/bls-eth-go-binary/bls
// over BLS12-381.
//
// Construction: extracting an identity key does not derive a scalar
// directly from the identity (the high-level bls API exposes signing and
// verification, not the raw pairing and hash-to-curve operations a
// from-scratch Boneh-Franklin-style extraction would need). Instead the
// root authority mints a fresh per-identity BLS key pair and vouches for
// it with its own BLS signature over identity||signingPublicKey. A
// message signature is then the triple:
//
//	S1 = Sign(signingKey, msg)                   (G2, message-bound)
//	S2 = signingKey.PublicKey()                  (G1, carried in-band)
//	S3 = Sign(masterKey, identity || S2)         (G2, identity-bound)
//
// Verification checks both BLS signatures: S3 against the root public key
// proves S2 was vouched for under this identity; S1 against S2 proves the
// message was signed by the holder of that vouched-for key. Forging either
// leg requires forging a BLS signature, so the scheme inherits BLS's
// unforgeability.
package sigibs

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"

	"github.com/herumi/bls-eth-go-binary/bls"
)

var initOnce sync.Once
var initErr error

func ensureInit() error {
	initOnce.Do(func() {
		initErr = bls.Init(bls.BLS12_381)
	})
	return initErr
}

const (
	// SignatureElementSize is the compressed serialization length of a
	// BLS12-381 G2 signature in the "minimal public key size" convention
	// this package uses.
	SignatureElementSize = 96
	// PublicKeyElementSize is the compressed serialization length of a
	// BLS12-381 G1 public key in the same convention.
	PublicKeyElementSize = 48
)

// PublicParams is the root authority's public parameter: its BLS master
// public key.
type PublicParams struct {
	MasterPublic bls.PublicKey
}

// Bytes serializes the master public key.
func (p PublicParams) Bytes() []byte { return p.MasterPublic.Serialize() }

// MarshalJSON renders PublicParams as base64 of its serialized master
// public key, the form a load set's message_keys travel over HTTP in.
func (p PublicParams) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(p.Bytes()))
}

// UnmarshalJSON parses PublicParams from its base64 transport form.
func (p *PublicParams) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	parsed, err := ParsePublicParams(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePublicParams deserializes a master public key.
func ParsePublicParams(b []byte) (PublicParams, error) {
	var pk bls.PublicKey
	if err := pk.Deserialize(b); err != nil {
		return PublicParams{}, err
	}
	return PublicParams{MasterPublic: pk}, nil
}

// MasterSecret is the root authority's private signing key; it never
// leaves the authority.
type MasterSecret struct {
	Secret bls.SecretKey
}

// Setup samples a fresh root key pair.
func Setup() (PublicParams, MasterSecret, error) {
	if err := ensureInit(); err != nil {
		return PublicParams{}, MasterSecret{}, err
	}
	var sk bls.SecretKey
	sk.SetByCSPRNG()
	return PublicParams{MasterPublic: *sk.GetPublicKey()}, MasterSecret{Secret: sk}, nil
}

// IdentitySecret is a per-vehicle signing key extracted for one identity
// string (the GUFI): a freshly minted signing key plus the root's
// vouching signature for it.
type IdentitySecret struct {
	Identity   string
	SigningKey bls.SecretKey
	SigningPub bls.PublicKey
	Vouch      bls.Sign
}

// IdentitySecretBytes is the wire/transport form of an IdentitySecret: the
// identity string plus the three serialized group elements, suitable for
// JSON transport in a load set.
type IdentitySecretBytes struct {
	Identity   string `json:"identity"`
	SigningKey []byte `json:"signing_key"`
	SigningPub []byte `json:"signing_pub"`
	Vouch      []byte `json:"vouch"`
}

// Bytes serializes id for transport.
func (id IdentitySecret) Bytes() IdentitySecretBytes {
	return IdentitySecretBytes{
		Identity:   id.Identity,
		SigningKey: id.SigningKey.Serialize(),
		SigningPub: id.SigningPub.Serialize(),
		Vouch:      id.Vouch.Serialize(),
	}
}

// MarshalJSON renders an IdentitySecret as its IdentitySecretBytes
// transport form, the shape a load set's signing_keys travel over HTTP in.
func (id IdentitySecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Bytes())
}

// UnmarshalJSON parses an IdentitySecret from its IdentitySecretBytes form.
func (id *IdentitySecret) UnmarshalJSON(b []byte) error {
	var wire IdentitySecretBytes
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	parsed, err := ParseIdentitySecret(wire)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseIdentitySecret is the inverse of IdentitySecret.Bytes.
func ParseIdentitySecret(b IdentitySecretBytes) (IdentitySecret, error) {
	if err := ensureInit(); err != nil {
		return IdentitySecret{}, err
	}
	var sk bls.SecretKey
	if err := sk.Deserialize(b.SigningKey); err != nil {
		return IdentitySecret{}, err
	}
	var pub bls.PublicKey
	if err := pub.Deserialize(b.SigningPub); err != nil {
		return IdentitySecret{}, err
	}
	var vouch bls.Sign
	if err := vouch.Deserialize(b.Vouch); err != nil {
		return IdentitySecret{}, err
	}
	return IdentitySecret{Identity: b.Identity, SigningKey: sk, SigningPub: pub, Vouch: vouch}, nil
}

// vouchMessage builds the bytes the root signs to bind a signing public
// key to an identity string.
func vouchMessage(identity string, signingPub []byte) []byte {
	return append([]byte(identity), signingPub...)
}

// Extract mints a fresh identity signing key for identity, vouched for by
// master.
func Extract(identity string, master MasterSecret) (IdentitySecret, error) {
	if err := ensureInit(); err != nil {
		return IdentitySecret{}, err
	}
	var signingKey bls.SecretKey
	signingKey.SetByCSPRNG()
	signingPub := signingKey.GetPublicKey()

	vouch := master.Secret.SignByte(vouchMessage(identity, signingPub.Serialize()))
	if vouch == nil {
		return IdentitySecret{}, errors.New("sigibs: vouch signing failed")
	}

	return IdentitySecret{
		Identity:   identity,
		SigningKey: signingKey,
		SigningPub: *signingPub,
		Vouch:      *vouch,
	}, nil
}

// Signature is the three-component IBS signature carried on the wire.
type Signature struct {
	S1 [SignatureElementSize]byte // message signature
	S2 [PublicKeyElementSize]byte // vouched-for signing public key
	S3 [SignatureElementSize]byte // root's vouching signature
}

// canonicalize applies the base64-ASCII hashing convention the scheme
// uses for raw binary payloads; Sign and Verify must transform msg the
// same way or cross-stack verification silently breaks.
func canonicalize(msg []byte) []byte {
	return []byte(base64.StdEncoding.EncodeToString(msg))
}

// Sign produces an identity-bound signature of msg under id.
func Sign(msg []byte, id IdentitySecret) (Signature, error) {
	if err := ensureInit(); err != nil {
		return Signature{}, err
	}
	sig := id.SigningKey.SignByte(canonicalize(msg))
	if sig == nil {
		return Signature{}, errors.New("sigibs: message signing failed")
	}

	var out Signature
	copy(out.S1[:], sig.Serialize())
	copy(out.S2[:], id.SigningPub.Serialize())
	copy(out.S3[:], id.Vouch.Serialize())
	return out, nil
}

// Verify reports whether sig is a valid signature of msg under identity,
// rooted at params. It never raises: a malformed or mismatched signature
// simply verifies false.
func Verify(params PublicParams, identity string, msg []byte, sig Signature) bool {
	if ensureInit() != nil {
		return false
	}

	var msgSig bls.Sign
	if err := msgSig.Deserialize(sig.S1[:]); err != nil {
		return false
	}
	var signingPub bls.PublicKey
	if err := signingPub.Deserialize(sig.S2[:]); err != nil {
		return false
	}
	var vouch bls.Sign
	if err := vouch.Deserialize(sig.S3[:]); err != nil {
		return false
	}

	if !vouch.VerifyByte(&params.MasterPublic, vouchMessage(identity, sig.S2[:])) {
		return false
	}
	return msgSig.VerifyByte(&signingPub, canonicalize(msg))
}

// Equal reports whether two signatures are byte-identical, used by the
// round-trip property tests.
func (s Signature) Equal(o Signature) bool {
	return bytes.Equal(s.S1[:], o.S1[:]) && bytes.Equal(s.S2[:], o.S2[:]) && bytes.Equal(s.S3[:], o.S3[:])
}
