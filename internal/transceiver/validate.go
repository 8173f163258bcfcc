package transceiver

import (
	"time"

	"v2vfabric/internal/authority"
	"v2vfabric/internal/geo"
	"v2vfabric/internal/sigconv"
	"v2vfabric/internal/sigibs"
	"v2vfabric/internal/timecode"
	"v2vfabric/internal/wire"
)

// ValidateMsg runs the eight ordered checks of the dual-signature
// validation pipeline, reporting the first failure. A nil return means
// the message reached ACCEPTED: message key live, token key live, token
// window live, location inside the token's bbox, and both signatures
// verify.
//
// Key-epoch validity windows (message_key/token_key nbf/exp) are real
// wall-clock instants; TokenPayload's nbf/exp are quantized TimeCodes, so
// they are decoded through clock into instants and compared against `at`
// in the payload-window check.
func ValidateMsg(
	clock timecode.Clock,
	messageKeys map[uint32]authority.MessageKeyPublic,
	tokenKeys map[uint32]authority.TokenKeyPublic,
	msg wire.Message,
	at time.Time,
	loc geo.Point,
) error {
	messageKey, ok := messageKeys[msg.Kid]
	if !ok {
		return ErrNoMessageKey
	}
	if at.After(messageKey.Exp) {
		return ErrMessageKeyExpired
	}
	if at.Before(messageKey.Nbf) {
		return ErrMessageKeyNotYetValid
	}

	tokenKey, ok := tokenKeys[msg.Token.Kid]
	if !ok {
		return ErrNoTokenKey
	}
	if at.After(tokenKey.Exp) {
		return ErrTokenKeyExpired
	}
	if at.Before(tokenKey.Nbf) {
		return ErrTokenKeyNotYetValid
	}

	tokenNbf := clock.Decode(msg.Token.Payload.Nbf)
	tokenExp := clock.Decode(msg.Token.Payload.Exp)
	if at.After(tokenExp) {
		return ErrTokenExpired
	}
	if at.Before(tokenNbf) {
		return ErrTokenNotYetValid
	}

	contained, err := geo.Contains(msg.Token.Payload.BBox, loc)
	if err != nil || !contained {
		return ErrTokenSpatialBoundsExceeded
	}

	if !sigconv.Verify(tokenKey.Public.Public, msg.Token.Payload.Pack(), msg.Token.Signature[:]) {
		return ErrTokenSignatureInvalid
	}

	if !sigibs.Verify(messageKey.Params, msg.Token.Payload.Gufi.String(), msg.Payload.Pack(), msg.Sig) {
		return ErrMessageSignatureInvalid
	}

	return nil
}
