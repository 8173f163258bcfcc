package transceiver

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"v2vfabric/internal/authority"
	"v2vfabric/internal/geo"
	"v2vfabric/internal/sigibs"
	"v2vfabric/internal/timecode"
	"v2vfabric/internal/wire"
)

// Role distinguishes the baseline (broadcast + record sightings) from the
// black-hat (replay-attack) behavior of the consume loop's success path.
// It is one variant in the application dimension, not a separate
// interface hierarchy.
type Role int

const (
	// RoleBaseline records validated sightings and never mutates traffic.
	RoleBaseline Role = iota
	// RoleBlackHat has no nav source and never broadcasts its own state;
	// on a successfully validated peer message it mutates the payload to
	// a fresh random state inside the token's bbox and replays it.
	RoleBlackHat
)

// Application holds one vehicle's runtime state: its own tokens and
// signing keys, the public counterparts needed to validate peers, and the
// role-specific behavior of the consume loop.
type Application struct {
	Gufi        wire.GUFI
	Tokens      []wire.Token
	TokenKeys   map[uint32]authority.TokenKeyPublic
	MessageKeys map[uint32]authority.MessageKeyPublic
	SigningKeys []authority.SigningKey

	NavSource NavSource // nil for RoleBlackHat
	Role      Role

	Clock           timecode.Clock
	Now             func() time.Time
	BroadcastPeriod time.Duration

	Pool *WorkerPool
	Log  *logrus.Entry

	Sightings chan wire.Message // baseline records validated peer messages here
}

// NewApplication validates that every signing key has a matching message
// key (same kid) in the same load set, per the transceiver construction
// invariant, and returns a ready-to-run Application.
func NewApplication(
	gufi wire.GUFI,
	tokens []wire.Token,
	tokenKeys []authority.TokenKeyPublic,
	messageKeys []authority.MessageKeyPublic,
	signingKeys []authority.SigningKey,
	navSource NavSource,
	role Role,
	clock timecode.Clock,
	now func() time.Time,
	broadcastPeriod time.Duration,
	pool *WorkerPool,
) (*Application, error) {
	tkMap := make(map[uint32]authority.TokenKeyPublic, len(tokenKeys))
	for _, k := range tokenKeys {
		tkMap[k.Kid] = k
	}
	mkMap := make(map[uint32]authority.MessageKeyPublic, len(messageKeys))
	for _, k := range messageKeys {
		mkMap[k.Kid] = k
	}
	for _, sk := range signingKeys {
		if _, ok := mkMap[sk.Kid]; !ok {
			return nil, fmt.Errorf("transceiver: signing key kid %d has no matching message key", sk.Kid)
		}
	}

	return &Application{
		Gufi:            gufi,
		Tokens:          tokens,
		TokenKeys:       tkMap,
		MessageKeys:     mkMap,
		SigningKeys:     signingKeys,
		NavSource:       navSource,
		Role:            role,
		Clock:           clock,
		Now:             now,
		BroadcastPeriod: broadcastPeriod,
		Pool:            pool,
		Log:             logrus.WithField("gufi", gufi.String()),
		Sightings:       make(chan wire.Message, 64),
	}, nil
}

// chooseSigningKey returns the first signing key valid at now.
func (a *Application) chooseSigningKey(now time.Time) (authority.SigningKey, error) {
	for _, sk := range a.SigningKeys {
		if sk.Nbf.Before(now) && now.Before(sk.Exp) {
			return sk, nil
		}
	}
	return authority.SigningKey{}, ErrNoValidSigningKey
}

// chooseToken returns the first token valid at now.
func (a *Application) chooseToken(now time.Time) (wire.Token, error) {
	for _, tok := range a.Tokens {
		nbf := a.Clock.Decode(tok.Payload.Nbf)
		exp := a.Clock.Decode(tok.Payload.Exp)
		if nbf.Before(now) && now.Before(exp) {
			return tok, nil
		}
	}
	return wire.Token{}, ErrNoValidToken
}

// assembleMsg builds and signs one broadcast message for the current
// instant.
func (a *Application) assembleMsg(now time.Time) (wire.Message, error) {
	payload := a.NavSource.GetState(now)

	signingKey, err := a.chooseSigningKey(now)
	if err != nil {
		return wire.Message{}, err
	}
	token, err := a.chooseToken(now)
	if err != nil {
		return wire.Message{}, err
	}

	sig, err := sigibs.Sign(payload.Pack(), signingKey.Identity)
	if err != nil {
		return wire.Message{}, err
	}

	return wire.Message{
		Token:   token,
		Kid:     signingKey.Kid,
		Payload: payload,
		Sig:     sig,
	}, nil
}

// RunProduce drives the produce loop: every BroadcastPeriod, assemble a
// signed message on the worker pool and offer it to transmit
// non-blocking. Black-hat carries no nav source and never produces.
func (a *Application) RunProduce(ctx context.Context, transmit *Queue[[]byte]) error {
	if a.Role == RoleBlackHat || a.NavSource == nil {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(a.BroadcastPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		start := a.Now()
		result, err := a.Pool.Submit(ctx, func() (any, error) {
			return a.assembleMsg(start)
		})
		elapsed := a.Now().Sub(start)
		if err != nil {
			a.Log.WithError(err).Warn("failed to assemble broadcast message")
		} else {
			msg := result.(wire.Message)
			if !transmit.Offer(msg.Pack()) {
				a.Log.WithError(ErrTransmitQueueFull).Error("dropping outbound message: transmit queue full")
			}
		}

		if elapsed > a.BroadcastPeriod {
			a.Log.Warn("producer slipping: assemble took longer than the broadcast period")
		}
	}
}

// RunConsume drives the consume loop: pull (tomr, bytes) off receive,
// unpack and validate on the worker pool, then dispatch by role.
func (a *Application) RunConsume(ctx context.Context, receive *Queue[TimestampedMessage], transmit *Queue[[]byte]) error {
	for {
		tm, ok := receive.Receive(ctx)
		if !ok {
			return nil
		}

		_, err := a.Pool.Submit(ctx, func() (any, error) {
			a.handleIncoming(tm, transmit)
			return nil, nil
		})
		if err != nil {
			return nil
		}
	}
}

func (a *Application) handleIncoming(tm TimestampedMessage, transmit *Queue[[]byte]) {
	msg, err := wire.UnpackMessage(tm.Bytes)
	if err != nil {
		a.Log.WithError(ErrUnpackFailed).Warn("dropping malformed datagram")
		return
	}

	if msg.Token.Payload.Gufi == a.Gufi {
		return // self-echo
	}

	var loc geo.Point
	if a.NavSource != nil {
		own := a.NavSource.GetState(tm.Tomr)
		loc = geo.Point{Lon: own.LonDeg, Lat: own.LatDeg}
	} else {
		// No nav source (black-hat): stand at the sender's claimed
		// position so the spatial gate reflects the message itself.
		loc = geo.Point{Lon: msg.Payload.LonDeg, Lat: msg.Payload.LatDeg}
	}

	if err := ValidateMsg(a.Clock, a.MessageKeys, a.TokenKeys, msg, tm.Tomr, loc); err != nil {
		a.Log.WithError(err).Warn("dropping message that failed validation")
		return
	}

	switch a.Role {
	case RoleBlackHat:
		a.replay(msg, transmit)
	default:
		select {
		case a.Sightings <- msg:
		default:
		}
	}
}

// replay mutates a validated peer message's payload to a fresh random
// state inside the token's bbox at the original timestamp, then enqueues
// it for retransmission without resigning.
func (a *Application) replay(msg wire.Message, transmit *Queue[[]byte]) {
	nav := NewRandomNavSource(msg.Token.Payload.BBox, a.Now().UnixNano())
	forged := nav.GetState(time.Unix(int64(msg.Payload.ToaUtc), 0))
	msg.Payload = forged

	if !transmit.Offer(msg.Pack()) {
		a.Log.WithError(ErrTransmitQueueFull).Error("dropping replayed message: transmit queue full")
	}
}
