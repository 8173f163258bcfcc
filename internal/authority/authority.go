package authority

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"v2vfabric/internal/sigconv"
	"v2vfabric/internal/sigibs"
	"v2vfabric/internal/timecode"
	"v2vfabric/internal/wire"
)

// coverageWindow keys the per-family epoch-selection cache: the choose()
// query repeats for the same [start, end) window every time a vehicle
// already under authorization re-fetches its load set, so caching the
// selected index range avoids re-scanning the epoch list on every call.
type coverageWindow struct {
	start, end int64
}

// coverageHit is the cached [first, last] index range into the epoch
// slice choose() would otherwise recompute by linear scan.
type coverageHit struct {
	first, last int
}

// coverageCacheSize bounds the two key-epoch lookup caches; a fleet
// authority serving a modest number of distinct windows never evicts a
// hot entry at this size.
const coverageCacheSize = 1024

// Config holds the rotation parameters that govern epoch allocation.
type Config struct {
	// KeyInterval is KEY_INTERVAL: how long each epoch lasts before the
	// next one begins.
	KeyInterval time.Duration
	// KeyExpBuffer is KEY_EXP_BUFFER: the overlap padded onto every
	// epoch's exp so consecutive epochs overlap.
	KeyExpBuffer time.Duration
}

// Clock is the injected wall-clock source epoch allocation reads at most
// once per call, so tests can freeze it.
type Clock func() time.Time

// Authority manages rolling key epochs and mints tokens and identity
// signing keys against authorization requests. The store, clock, and
// rotation config are supplied as dependencies rather than read from
// process globals.
type Authority struct {
	store Store
	time  timecode.Clock
	now   Clock
	cfg   Config

	tokenCoverageCache *lru.Cache[coverageWindow, coverageHit]
	rootCoverageCache  *lru.Cache[coverageWindow, coverageHit]
}

// New constructs an Authority. tickClock is used only to build
// TokenPayload's TimeCode fields; now is the injected wall clock used for
// epoch anchoring.
func New(store Store, tickClock timecode.Clock, now Clock, cfg Config) *Authority {
	tokenCache, _ := lru.New[coverageWindow, coverageHit](coverageCacheSize)
	rootCache, _ := lru.New[coverageWindow, coverageHit](coverageCacheSize)
	return &Authority{
		store: store, time: tickClock, now: now, cfg: cfg,
		tokenCoverageCache: tokenCache,
		rootCoverageCache:  rootCache,
	}
}

// addTokenKeyEpochs extends token-key coverage to horizon, minting fresh
// Ed25519 key pairs for any new epochs and committing them atomically.
func (a *Authority) addTokenKeyEpochs(horizon time.Time) error {
	existing := a.store.TokenKeyEpochs()
	var lastNbf, lastExp *time.Time
	if len(existing) > 0 {
		last := existing[len(existing)-1]
		lastNbf, lastExp = &last.Nbf, &last.Exp
	}

	windows := planEpochWindows(lastNbf, lastExp, a.now(), a.cfg.KeyInterval, a.cfg.KeyExpBuffer)(horizon)
	if len(windows) == 0 {
		return nil
	}

	fresh := make([]TokenKeyEpoch, 0, len(windows))
	for _, w := range windows {
		kp, err := sigconv.GenerateKeyPair()
		if err != nil {
			return err
		}
		fresh = append(fresh, TokenKeyEpoch{
			Kid:     a.store.NextTokenKid(),
			Nbf:     w.Nbf,
			Exp:     w.Exp,
			KeyPair: kp,
		})
	}
	a.store.AppendTokenKeyEpochs(fresh)
	a.tokenCoverageCache.Purge()
	return nil
}

// addRootKeyEpochs extends IBS root-key coverage to horizon.
func (a *Authority) addRootKeyEpochs(horizon time.Time) error {
	existing := a.store.RootKeyEpochs()
	var lastNbf, lastExp *time.Time
	if len(existing) > 0 {
		last := existing[len(existing)-1]
		lastNbf, lastExp = &last.Nbf, &last.Exp
	}

	windows := planEpochWindows(lastNbf, lastExp, a.now(), a.cfg.KeyInterval, a.cfg.KeyExpBuffer)(horizon)
	if len(windows) == 0 {
		return nil
	}

	fresh := make([]RootKeyEpoch, 0, len(windows))
	for _, w := range windows {
		params, master, err := sigibs.Setup()
		if err != nil {
			return err
		}
		fresh = append(fresh, RootKeyEpoch{
			Kid:    a.store.NextRootKid(),
			Nbf:    w.Nbf,
			Exp:    w.Exp,
			Params: params,
			Master: master,
		})
	}
	a.store.AppendRootKeyEpochs(fresh)
	a.rootCoverageCache.Purge()
	return nil
}

// chooseTokenKeyEpochs returns the token-key epochs covering [start, end),
// consulting tokenCoverageCache before falling back to a linear scan.
func (a *Authority) chooseTokenKeyEpochs(start, end time.Time) ([]TokenKeyEpoch, error) {
	epochs := a.store.TokenKeyEpochs()
	key := coverageWindow{start.UnixNano(), end.UnixNano()}

	if hit, ok := a.tokenCoverageCache.Get(key); ok {
		// a hit that is stale relative to a shrunk store is recomputed below
		if hit.first >= 0 && hit.last < len(epochs) {
			return epochs[hit.first : hit.last+1], nil
		}
	}

	nbfs := make([]time.Time, len(epochs))
	exps := make([]time.Time, len(epochs))
	for i, e := range epochs {
		nbfs[i], exps[i] = e.Nbf, e.Exp
	}
	first, last, ok := selectCoverage(nbfs, exps, start, end)
	if !ok {
		return nil, ErrNoTokenKeyCoverage
	}
	a.tokenCoverageCache.Add(key, coverageHit{first, last})
	return epochs[first : last+1], nil
}

// chooseRootKeyEpochs returns the root-key epochs covering [start, end),
// consulting rootCoverageCache before falling back to a linear scan.
func (a *Authority) chooseRootKeyEpochs(start, end time.Time) ([]RootKeyEpoch, error) {
	epochs := a.store.RootKeyEpochs()
	key := coverageWindow{start.UnixNano(), end.UnixNano()}

	if hit, ok := a.rootCoverageCache.Get(key); ok {
		if hit.first < 0 || hit.last >= len(epochs) {
			return nil, ErrNoRootKeyCoverage
		}
		return epochs[hit.first : hit.last+1], nil
	}

	nbfs := make([]time.Time, len(epochs))
	exps := make([]time.Time, len(epochs))
	for i, e := range epochs {
		nbfs[i], exps[i] = e.Nbf, e.Exp
	}
	first, last, ok := selectCoverage(nbfs, exps, start, end)
	if !ok {
		return nil, ErrNoRootKeyCoverage
	}
	a.rootCoverageCache.Add(key, coverageHit{first, last})
	return epochs[first : last+1], nil
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// GenerateAuthorization runs the full issuance algorithm: validate the
// request, extend epoch coverage, mint one token per covering
// TokenKeyEpoch and one signing key per covering RootKeyEpoch, and
// persist the result atomically.
func (a *Authority) GenerateAuthorization(req AuthorizationRequest, operator string) (Authorization, error) {
	if !req.Exp.After(req.Nbf) {
		return Authorization{}, ErrNbfAfterExp
	}
	if err := req.BBox.Validate(); err != nil {
		return Authorization{}, err
	}
	if _, exists := a.store.GetAuthorization(req.Gufi); exists {
		return Authorization{}, ErrDuplicateAuthorization
	}

	if err := a.addTokenKeyEpochs(req.Exp); err != nil {
		return Authorization{}, err
	}
	if err := a.addRootKeyEpochs(req.Exp); err != nil {
		return Authorization{}, err
	}

	tokenEpochs, err := a.chooseTokenKeyEpochs(req.Nbf, req.Exp)
	if err != nil {
		return Authorization{}, err
	}
	rootEpochs, err := a.chooseRootKeyEpochs(req.Nbf, req.Exp)
	if err != nil {
		return Authorization{}, err
	}

	tokens := make([]wire.Token, 0, len(tokenEpochs))
	for _, epoch := range tokenEpochs {
		payload, err := wire.NewTokenPayload(a.time, req.Gufi, maxTime(req.Nbf, epoch.Nbf), minTime(req.Exp, epoch.Exp), req.BBox)
		if err != nil {
			return Authorization{}, err
		}
		sig, err := sigconv.Sign(epoch.KeyPair.Secret, payload.Pack())
		if err != nil {
			return Authorization{}, err
		}
		var tok wire.Token
		tok.Payload = payload
		tok.Kid = epoch.Kid
		copy(tok.Signature[:], sig)
		tokens = append(tokens, tok)
	}

	signingKeys := make([]SigningKey, 0, len(rootEpochs))
	for _, epoch := range rootEpochs {
		identity, err := sigibs.Extract(req.Gufi.String(), epoch.Master)
		if err != nil {
			return Authorization{}, err
		}
		signingKeys = append(signingKeys, SigningKey{
			Kid:      epoch.Kid,
			Nbf:      epoch.Nbf,
			Exp:      epoch.Exp,
			Identity: identity,
		})
	}

	authz := Authorization{
		Gufi:        req.Gufi,
		Nbf:         req.Nbf,
		Exp:         req.Exp,
		BBox:        req.BBox,
		Operator:    operator,
		GrantedAt:   a.now(),
		Tokens:      tokens,
		SigningKeys: signingKeys,
	}
	if err := a.store.PutAuthorization(authz); err != nil {
		return Authorization{}, err
	}
	return authz, nil
}

// LoadSet assembles the self-contained bundle a vehicle needs for the
// duration of its authorization.
func (a *Authority) LoadSet(gufi wire.GUFI) (LoadSet, error) {
	authz, ok := a.store.GetAuthorization(gufi)
	if !ok {
		return LoadSet{}, ErrAuthorizationNotFound
	}

	tokenEpochs, err := a.chooseTokenKeyEpochs(authz.Nbf, authz.Exp)
	if err != nil {
		return LoadSet{}, err
	}
	rootEpochs, err := a.chooseRootKeyEpochs(authz.Nbf, authz.Exp)
	if err != nil {
		return LoadSet{}, err
	}

	tokenKeys := make([]TokenKeyPublic, 0, len(tokenEpochs))
	for _, e := range tokenEpochs {
		tokenKeys = append(tokenKeys, TokenKeyPublic{
			Kid: e.Kid, Nbf: e.Nbf, Exp: e.Exp,
			Public: sigconv.KeyPair{Public: e.KeyPair.Public},
		})
	}
	messageKeys := make([]MessageKeyPublic, 0, len(rootEpochs))
	for _, e := range rootEpochs {
		messageKeys = append(messageKeys, MessageKeyPublic{Kid: e.Kid, Nbf: e.Nbf, Exp: e.Exp, Params: e.Params})
	}

	return LoadSet{
		Gufi:        gufi,
		Tokens:      authz.Tokens,
		TokenKeys:   tokenKeys,
		SigningKeys: authz.SigningKeys,
		MessageKeys: messageKeys,
	}, nil
}
