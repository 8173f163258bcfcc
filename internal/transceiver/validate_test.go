package transceiver

import (
	"testing"
	"time"

	"v2vfabric/internal/authority"
	"v2vfabric/internal/geo"
	"v2vfabric/internal/sigibs"
	"v2vfabric/internal/timecode"
	"v2vfabric/internal/wire"
)

type validationFixture struct {
	clock       timecode.Clock
	messageKeys map[uint32]authority.MessageKeyPublic
	tokenKeys   map[uint32]authority.TokenKeyPublic
	msg         wire.Message
	at          time.Time
	loc         geo.Point
}

func newValidationFixture(t *testing.T) validationFixture {
	t.Helper()
	now := time.Date(2024, 6, 1, 12, 3, 17, 250_000_000, time.UTC)
	clock, err := timecode.NewClock(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 500*time.Millisecond)
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}

	store := authority.NewMemoryStore()
	cfg := authority.Config{KeyInterval: 5 * time.Minute, KeyExpBuffer: 500 * time.Millisecond}
	a := authority.New(store, clock, func() time.Time { return now }, cfg)

	var gufi wire.GUFI
	gufi[0] = 7

	bbox := geo.BBox{West: -71.8, South: 41.9, East: -70.6, North: 42.7}
	req := authority.AuthorizationRequest{Gufi: gufi, Nbf: now, Exp: now.Add(10 * time.Minute), BBox: bbox}
	authz, err := a.GenerateAuthorization(req, "op-1")
	if err != nil {
		t.Fatalf("GenerateAuthorization: %v", err)
	}
	ls, err := a.LoadSet(gufi)
	if err != nil {
		t.Fatalf("LoadSet: %v", err)
	}

	mkMap := make(map[uint32]authority.MessageKeyPublic)
	for _, mk := range ls.MessageKeys {
		mkMap[mk.Kid] = mk
	}
	tkMap := make(map[uint32]authority.TokenKeyPublic)
	for _, tk := range ls.TokenKeys {
		tkMap[tk.Kid] = tk
	}

	signingKey := authz.SigningKeys[0]
	token := authz.Tokens[0]
	// pick a token/signing-key pair whose windows both contain `now`.
	for _, sk := range authz.SigningKeys {
		if sk.Nbf.Before(now) && now.Before(sk.Exp) {
			signingKey = sk
			break
		}
	}
	for _, tok := range authz.Tokens {
		nbf := clock.Decode(tok.Payload.Nbf)
		exp := clock.Decode(tok.Payload.Exp)
		if nbf.Before(now) && now.Before(exp) {
			token = tok
			break
		}
	}

	payload := wire.StateUpdate{LatDeg: 42.0, LonDeg: -71.0, ToaUtc: float32(now.Unix())}
	sig, err := sigibs.Sign(payload.Pack(), signingKey.Identity)
	if err != nil {
		t.Fatalf("sign payload: %v", err)
	}

	msg := wire.Message{Token: token, Kid: signingKey.Kid, Payload: payload, Sig: sig}

	return validationFixture{
		clock:       clock,
		messageKeys: mkMap,
		tokenKeys:   tkMap,
		msg:         msg,
		at:          now,
		loc:         geo.Point{Lon: -71.0, Lat: 42.0},
	}
}

func TestValidateMsgAccepted(t *testing.T) {
	f := newValidationFixture(t)
	if err := ValidateMsg(f.clock, f.messageKeys, f.tokenKeys, f.msg, f.at, f.loc); err != nil {
		t.Fatalf("expected ACCEPTED, got %v", err)
	}
}

func TestValidateMsgNoMessageKey(t *testing.T) {
	f := newValidationFixture(t)
	f.msg.Kid = 999999
	if err := ValidateMsg(f.clock, f.messageKeys, f.tokenKeys, f.msg, f.at, f.loc); err != ErrNoMessageKey {
		t.Fatalf("err = %v, want ErrNoMessageKey", err)
	}
}

func TestValidateMsgNoTokenKey(t *testing.T) {
	f := newValidationFixture(t)
	f.msg.Token.Kid = 999999
	if err := ValidateMsg(f.clock, f.messageKeys, f.tokenKeys, f.msg, f.at, f.loc); err != ErrNoTokenKey {
		t.Fatalf("err = %v, want ErrNoTokenKey", err)
	}
}

func TestValidateMsgExpiredToken(t *testing.T) {
	f := newValidationFixture(t)
	late := f.at.Add(time.Hour)
	if err := ValidateMsg(f.clock, f.messageKeys, f.tokenKeys, f.msg, late, f.loc); err == nil {
		t.Fatalf("expected an expiry error when advancing far past the window")
	}
}

func TestValidateMsgOutsideBBox(t *testing.T) {
	f := newValidationFixture(t)
	outside := geo.Point{Lon: 0, Lat: 0}
	if err := ValidateMsg(f.clock, f.messageKeys, f.tokenKeys, f.msg, f.at, outside); err != ErrTokenSpatialBoundsExceeded {
		t.Fatalf("err = %v, want ErrTokenSpatialBoundsExceeded", err)
	}
}

func TestValidateMsgTamperedPayload(t *testing.T) {
	f := newValidationFixture(t)
	f.msg.Payload.LatDeg += 1
	if err := ValidateMsg(f.clock, f.messageKeys, f.tokenKeys, f.msg, f.at, f.loc); err != ErrMessageSignatureInvalid {
		t.Fatalf("err = %v, want ErrMessageSignatureInvalid", err)
	}
}

func TestValidateMsgTamperedTokenSignature(t *testing.T) {
	f := newValidationFixture(t)
	f.msg.Token.Signature[0] ^= 0xff
	if err := ValidateMsg(f.clock, f.messageKeys, f.tokenKeys, f.msg, f.at, f.loc); err != ErrTokenSignatureInvalid {
		t.Fatalf("err = %v, want ErrTokenSignatureInvalid", err)
	}
}
