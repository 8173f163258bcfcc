package authority

import (
	"testing"
	"time"

	"v2vfabric/internal/geo"
	"v2vfabric/internal/timecode"
	"v2vfabric/internal/wire"
)

func testGufi(b byte) wire.GUFI {
	var g wire.GUFI
	g[0] = b
	return g
}

func newTestAuthority(t *testing.T, frozenNow time.Time) *Authority {
	t.Helper()
	tickClock, err := timecode.NewClock(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 500*time.Millisecond)
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}
	store := NewMemoryStore(Operator{ID: "op-1", Name: "Test Operator"})
	cfg := Config{KeyInterval: 5 * time.Minute, KeyExpBuffer: 500 * time.Millisecond}
	now := func() time.Time { return frozenNow }
	return New(store, tickClock, now, cfg)
}

func TestGenerateAuthorizationHappyPath(t *testing.T) {
	// mid-epoch, off the tick grid, so the 10-minute window straddles
	// three rotation epochs rather than landing exactly on two.
	now := time.Date(2024, 6, 1, 12, 3, 17, 250_000_000, time.UTC)
	a := newTestAuthority(t, now)

	req := AuthorizationRequest{
		Gufi: testGufi(1),
		Nbf:  now,
		Exp:  now.Add(10 * time.Minute),
		BBox: geo.BBox{West: -71.8, South: 41.9, East: -70.6, North: 42.7},
	}
	authz, err := a.GenerateAuthorization(req, "op-1")
	if err != nil {
		t.Fatalf("GenerateAuthorization: %v", err)
	}

	// 10 minutes of coverage at a 5-minute rotation yields at least 3
	// epochs once the request window is not aligned to rotation
	// boundaries.
	if len(authz.Tokens) < 3 {
		t.Errorf("len(Tokens) = %d, want >= 3", len(authz.Tokens))
	}
	if len(authz.SigningKeys) < 3 {
		t.Errorf("len(SigningKeys) = %d, want >= 3", len(authz.SigningKeys))
	}

	for _, tok := range authz.Tokens {
		if tok.Payload.Exp <= tok.Payload.Nbf {
			t.Errorf("token exp %d <= nbf %d", tok.Payload.Exp, tok.Payload.Nbf)
		}
	}

	ls, err := a.LoadSet(req.Gufi)
	if err != nil {
		t.Fatalf("LoadSet: %v", err)
	}
	if len(ls.Tokens) != len(authz.Tokens) {
		t.Errorf("load set token count = %d, want %d", len(ls.Tokens), len(authz.Tokens))
	}
	if len(ls.SigningKeys) != len(authz.SigningKeys) {
		t.Errorf("load set signing key count = %d, want %d", len(ls.SigningKeys), len(authz.SigningKeys))
	}
	if len(ls.MessageKeys) != len(ls.SigningKeys) {
		t.Errorf("every signing key must have a matching message key in the same load set")
	}
}

func TestGenerateAuthorizationRejectsNbfAfterExp(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a := newTestAuthority(t, now)
	req := AuthorizationRequest{Gufi: testGufi(2), Nbf: now, Exp: now}
	if _, err := a.GenerateAuthorization(req, "op-1"); err != ErrNbfAfterExp {
		t.Fatalf("err = %v, want ErrNbfAfterExp", err)
	}
}

func TestGenerateAuthorizationRejectsOutOfRangeBBox(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a := newTestAuthority(t, now)
	req := AuthorizationRequest{
		Gufi: testGufi(8),
		Nbf:  now,
		Exp:  now.Add(time.Minute),
		BBox: geo.BBox{West: -200, South: -1, East: 1, North: 1},
	}
	if _, err := a.GenerateAuthorization(req, "op-1"); err != geo.ErrLongitudeRange {
		t.Fatalf("err = %v, want ErrLongitudeRange", err)
	}

	req.Gufi = testGufi(10)
	req.BBox = geo.BBox{West: -1, South: -1, East: 1, North: 95}
	if _, err := a.GenerateAuthorization(req, "op-1"); err != geo.ErrLatitudeRange {
		t.Fatalf("err = %v, want ErrLatitudeRange", err)
	}
}

func TestGenerateAuthorizationRejectsDuplicate(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a := newTestAuthority(t, now)
	req := AuthorizationRequest{
		Gufi: testGufi(3),
		Nbf:  now,
		Exp:  now.Add(time.Minute),
		BBox: geo.BBox{West: -1, South: -1, East: 1, North: 1},
	}
	if _, err := a.GenerateAuthorization(req, "op-1"); err != nil {
		t.Fatalf("first GenerateAuthorization: %v", err)
	}
	if _, err := a.GenerateAuthorization(req, "op-1"); err != ErrDuplicateAuthorization {
		t.Fatalf("err = %v, want ErrDuplicateAuthorization", err)
	}
}

func TestLoadSetNotFound(t *testing.T) {
	a := newTestAuthority(t, time.Now())
	if _, err := a.LoadSet(testGufi(9)); err != ErrAuthorizationNotFound {
		t.Fatalf("err = %v, want ErrAuthorizationNotFound", err)
	}
}

func TestTokenPayloadWindowClampedToKeyEpoch(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a := newTestAuthority(t, now)
	req := AuthorizationRequest{
		Gufi: testGufi(4),
		Nbf:  now,
		Exp:  now.Add(12 * time.Minute),
		BBox: geo.BBox{West: -1, South: -1, East: 1, North: 1},
	}
	authz, err := a.GenerateAuthorization(req, "op-1")
	if err != nil {
		t.Fatalf("GenerateAuthorization: %v", err)
	}

	epochs := a.store.TokenKeyEpochs()
	for _, tok := range authz.Tokens {
		var matched bool
		for _, e := range epochs {
			if e.Kid == tok.Kid {
				matched = true
				wantNbf, _ := a.time.Encode(maxTime(req.Nbf, e.Nbf), timecode.Floor)
				wantExp, _ := a.time.Encode(minTime(req.Exp, e.Exp), timecode.Ceiling)
				if tok.Payload.Nbf != wantNbf || tok.Payload.Exp != wantExp {
					t.Errorf("token kid %d window = [%d, %d], want [%d, %d]", tok.Kid, tok.Payload.Nbf, tok.Payload.Exp, wantNbf, wantExp)
				}
				break
			}
		}
		if !matched {
			t.Errorf("token kid %d does not correspond to any token-key epoch", tok.Kid)
		}
	}
}
