package transceiver

import "errors"

// Validation errors are the eleven ordered outcomes of validate_msg plus
// UnpackFailed for malformed bytes. All are non-fatal: the caller logs at
// warning and drops the message.
var (
	ErrUnpackFailed               = errors.New("transceiver: message failed to unpack")
	ErrNoMessageKey               = errors.New("transceiver: no message key for kid")
	ErrMessageKeyExpired          = errors.New("transceiver: message key expired")
	ErrMessageKeyNotYetValid      = errors.New("transceiver: message key not yet valid")
	ErrNoTokenKey                 = errors.New("transceiver: no token key for kid")
	ErrTokenKeyExpired            = errors.New("transceiver: token key expired")
	ErrTokenKeyNotYetValid        = errors.New("transceiver: token key not yet valid")
	ErrTokenExpired               = errors.New("transceiver: token expired")
	ErrTokenNotYetValid           = errors.New("transceiver: token not yet valid")
	ErrTokenSpatialBoundsExceeded = errors.New("transceiver: location outside token bbox")
	ErrTokenSignatureInvalid      = errors.New("transceiver: token signature invalid")
	ErrMessageSignatureInvalid    = errors.New("transceiver: message signature invalid")
)

// Application-level errors for assemble_msg.
var (
	ErrNoValidSigningKey = errors.New("transceiver: no signing key valid at this time")
	ErrNoValidToken      = errors.New("transceiver: no token valid at this time")
)

// Resource errors logged at critical severity when a bounded queue is full.
var (
	ErrReceiveQueueFull  = errors.New("transceiver: receive queue full")
	ErrTransmitQueueFull = errors.New("transceiver: transmit queue full")
)
