// Package wire implements the fixed-layout big-endian binary codec for the
// four wire types that cross the trust boundary: TokenPayload, Token,
// StateUpdate, and Message. Every Pack/Unpack pair is hand-rolled rather
// than reflection-driven; this codebase favors explicit byte-slice
// marshaling over a generic encoder for anything that travels over the
// network or is signed.
package wire

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"v2vfabric/internal/geo"
	"v2vfabric/internal/sigconv"
	"v2vfabric/internal/sigibs"
	"v2vfabric/internal/timecode"
)

// ErrShortBuffer is returned by Unpack when the input is smaller than the
// wire type's fixed size.
var ErrShortBuffer = errors.New("wire: buffer too short")

// ErrMalformedBase64 is returned by UnpackToken when base64 decoding is
// attempted and fails.
var ErrMalformedBase64 = errors.New("wire: malformed base64 token")

const (
	gufiSize = 16

	// TokenPayloadSize is the packed size of TokenPayload: gufi(16) +
	// nbf(4) + exp(4) + bbox(4x4).
	TokenPayloadSize = gufiSize + 4 + 4 + 4*4

	// TokenSize is the packed size of Token: payload(40) + kid(4) +
	// signature(64).
	TokenSize = TokenPayloadSize + 4 + sigconv.SignatureSize

	// StateUpdateSize is the packed size of StateUpdate: seven f32 fields.
	StateUpdateSize = 7 * 4

	// MessageSize is the packed size of Message: token + kid + payload +
	// the three IBS signature components. On BLS12-381 the components
	// are not equal-sized: S1/S3 are 96-byte G2 elements and S2 is a
	// 48-byte G1 element (see internal/sigibs).
	MessageSize = TokenSize + 4 + StateUpdateSize + sigibs.SignatureElementSize + sigibs.PublicKeyElementSize + sigibs.SignatureElementSize
)

// GUFI is a 128-bit globally unique flight identifier.
type GUFI [gufiSize]byte

const hexDigits = "0123456789abcdef"

// ParseGUFI parses the canonical UUID string form (RFC 4122, with or
// without dashes) of a GUFI, the form the authority's HTTP surface and
// cmd/fleetctl accept on the wire.
func ParseGUFI(s string) (GUFI, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return GUFI{}, fmt.Errorf("wire: malformed gufi: %w", err)
	}
	var g GUFI
	copy(g[:], id[:])
	return g, nil
}

// NewGUFI samples a fresh random GUFI (uuid v4); cmd/msgbench and the
// tests use it to mint identifiers.
func NewGUFI() GUFI {
	var g GUFI
	id := uuid.New()
	copy(g[:], id[:])
	return g
}

// MarshalJSON renders a GUFI as its canonical UUID string.
func (g GUFI) MarshalJSON() ([]byte, error) {
	id, err := uuid.FromBytes(g[:])
	if err != nil {
		return nil, err
	}
	return json.Marshal(id.String())
}

// UnmarshalJSON parses a GUFI from its canonical UUID string.
func (g *GUFI) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseGUFI(s)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// String is the canonical string form of a GUFI used as an IBS identity:
// lowercase hex of its 16 raw bytes. This is the identity string both the
// authority's extract step and the transceiver's validate step must agree
// on bit-for-bit.
func (g GUFI) String() string {
	out := make([]byte, len(g)*2)
	for i, b := range g {
		out[i*2] = hexDigits[b>>4]
		out[i*2+1] = hexDigits[b&0x0f]
	}
	return string(out)
}

// TokenPayload is the signed body of a Token.
type TokenPayload struct {
	Gufi GUFI
	Nbf  uint32
	Exp  uint32
	BBox geo.BBox
}

// Pack serializes p in the normative big-endian layout.
func (p TokenPayload) Pack() []byte {
	buf := make([]byte, TokenPayloadSize)
	off := 0
	copy(buf[off:], p.Gufi[:])
	off += gufiSize
	binary.BigEndian.PutUint32(buf[off:], p.Nbf)
	off += 4
	binary.BigEndian.PutUint32(buf[off:], p.Exp)
	off += 4
	putFloat32(buf[off:], p.BBox.West)
	off += 4
	putFloat32(buf[off:], p.BBox.South)
	off += 4
	putFloat32(buf[off:], p.BBox.East)
	off += 4
	putFloat32(buf[off:], p.BBox.North)
	return buf
}

// UnpackTokenPayload is the exact inverse of TokenPayload.Pack.
func UnpackTokenPayload(b []byte) (TokenPayload, error) {
	if len(b) < TokenPayloadSize {
		return TokenPayload{}, ErrShortBuffer
	}
	var p TokenPayload
	off := 0
	copy(p.Gufi[:], b[off:off+gufiSize])
	off += gufiSize
	p.Nbf = binary.BigEndian.Uint32(b[off:])
	off += 4
	p.Exp = binary.BigEndian.Uint32(b[off:])
	off += 4
	p.BBox.West = getFloat32(b[off:])
	off += 4
	p.BBox.South = getFloat32(b[off:])
	off += 4
	p.BBox.East = getFloat32(b[off:])
	off += 4
	p.BBox.North = getFloat32(b[off:])
	return p, nil
}

// NewTokenPayload builds a TokenPayload, floor-encoding nbf and
// ceiling-encoding exp per the time-quantization rule.
func NewTokenPayload(clock timecode.Clock, gufi GUFI, nbf, exp time.Time, bbox geo.BBox) (TokenPayload, error) {
	nbfCode, err := clock.Encode(nbf, timecode.Floor)
	if err != nil {
		return TokenPayload{}, err
	}
	expCode, err := clock.Encode(exp, timecode.Ceiling)
	if err != nil {
		return TokenPayload{}, err
	}
	return TokenPayload{Gufi: gufi, Nbf: nbfCode, Exp: expCode, BBox: bbox}, nil
}

// Token is a TokenPayload plus a conventional signature minted by a
// TokenKeyEpoch.
type Token struct {
	Payload   TokenPayload
	Kid       uint32
	Signature [sigconv.SignatureSize]byte
}

// MarshalJSON renders a Token as its base64 ASCII transport form, the
// shape tokens travel in over API responses.
func (t Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(t.Pack()))
}

// UnmarshalJSON parses a Token from its base64 transport form.
func (t *Token) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := UnpackToken([]byte(s))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Pack serializes t as payload ∥ kid ∥ signature.
func (t Token) Pack() []byte {
	buf := make([]byte, TokenSize)
	off := 0
	copy(buf[off:], t.Payload.Pack())
	off += TokenPayloadSize
	binary.BigEndian.PutUint32(buf[off:], t.Kid)
	off += 4
	copy(buf[off:], t.Signature[:])
	return buf
}

// UnpackToken accepts either the raw 108-byte binary form or its base64
// ASCII transport form.
func UnpackToken(b []byte) (Token, error) {
	if len(b) != TokenSize {
		decoded, err := base64.StdEncoding.DecodeString(string(b))
		if err != nil {
			return Token{}, ErrMalformedBase64
		}
		b = decoded
	}
	if len(b) < TokenSize {
		return Token{}, ErrShortBuffer
	}

	payload, err := UnpackTokenPayload(b[:TokenPayloadSize])
	if err != nil {
		return Token{}, err
	}
	off := TokenPayloadSize
	kid := binary.BigEndian.Uint32(b[off:])
	off += 4

	var t Token
	t.Payload = payload
	t.Kid = kid
	copy(t.Signature[:], b[off:off+sigconv.SignatureSize])
	return t, nil
}

// StateUpdate is a vehicle's instantaneous broadcast state.
type StateUpdate struct {
	LatDeg     float32
	LonDeg     float32
	AltHaeFt   float32
	VelEwFps   float32
	VelNsFps   float32
	VelVertFps float32
	ToaUtc     float32
}

// Pack serializes s as seven big-endian f32 fields.
func (s StateUpdate) Pack() []byte {
	buf := make([]byte, StateUpdateSize)
	fields := []float32{s.LatDeg, s.LonDeg, s.AltHaeFt, s.VelEwFps, s.VelNsFps, s.VelVertFps, s.ToaUtc}
	for i, f := range fields {
		putFloat32(buf[i*4:], f)
	}
	return buf
}

// UnpackStateUpdate is the exact inverse of StateUpdate.Pack.
func UnpackStateUpdate(b []byte) (StateUpdate, error) {
	if len(b) < StateUpdateSize {
		return StateUpdate{}, ErrShortBuffer
	}
	return StateUpdate{
		LatDeg:     getFloat32(b[0:]),
		LonDeg:     getFloat32(b[4:]),
		AltHaeFt:   getFloat32(b[8:]),
		VelEwFps:   getFloat32(b[12:]),
		VelNsFps:   getFloat32(b[16:]),
		VelVertFps: getFloat32(b[20:]),
		ToaUtc:     getFloat32(b[24:]),
	}, nil
}

// Message is one broadcast datagram: a capability token, the IBS root kid
// used to verify it, the state payload, and the IBS signature over the
// payload.
type Message struct {
	Token   Token
	Kid     uint32
	Payload StateUpdate
	Sig     sigibs.Signature
}

// Pack serializes m as token ∥ kid ∥ payload ∥ S1 ∥ S2 ∥ S3. There is no
// scheme-prefix strip/reattach step: the herumi BLS binding's
// Serialize/Deserialize already produce and accept compact raw elements.
func (m Message) Pack() []byte {
	buf := make([]byte, MessageSize)
	off := 0
	copy(buf[off:], m.Token.Pack())
	off += TokenSize
	binary.BigEndian.PutUint32(buf[off:], m.Kid)
	off += 4
	copy(buf[off:], m.Payload.Pack())
	off += StateUpdateSize
	copy(buf[off:], m.Sig.S1[:])
	off += sigibs.SignatureElementSize
	copy(buf[off:], m.Sig.S2[:])
	off += sigibs.PublicKeyElementSize
	copy(buf[off:], m.Sig.S3[:])
	return buf
}

// UnpackMessage is the exact inverse of Message.Pack.
func UnpackMessage(b []byte) (Message, error) {
	if len(b) < MessageSize {
		return Message{}, ErrShortBuffer
	}
	tok, err := UnpackToken(b[:TokenSize])
	if err != nil {
		return Message{}, err
	}
	off := TokenSize
	kid := binary.BigEndian.Uint32(b[off:])
	off += 4
	payload, err := UnpackStateUpdate(b[off : off+StateUpdateSize])
	if err != nil {
		return Message{}, err
	}
	off += StateUpdateSize

	var m Message
	m.Token = tok
	m.Kid = kid
	m.Payload = payload
	copy(m.Sig.S1[:], b[off:off+sigibs.SignatureElementSize])
	off += sigibs.SignatureElementSize
	copy(m.Sig.S2[:], b[off:off+sigibs.PublicKeyElementSize])
	off += sigibs.PublicKeyElementSize
	copy(m.Sig.S3[:], b[off:off+sigibs.SignatureElementSize])
	return m, nil
}

func putFloat32(b []byte, f float32) {
	binary.BigEndian.PutUint32(b, math.Float32bits(f))
}

func getFloat32(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}
