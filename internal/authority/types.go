// Package authority implements credential issuance: rolling key epochs,
// window-based key selection, and minting the tokens and identity signing
// keys that make up a vehicle's load set.
package authority

import (
	"time"

	"v2vfabric/internal/geo"
	"v2vfabric/internal/sigconv"
	"v2vfabric/internal/sigibs"
	"v2vfabric/internal/wire"
)

// Operator is a directory entry for the party an authorization is granted
// on behalf of.
type Operator struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// TokenKeyEpoch is one rotation window of the conventional signing
// scheme: a kid, its validity interval, and the Ed25519 key pair minted
// for it.
type TokenKeyEpoch struct {
	Kid     uint32
	Nbf     time.Time
	Exp     time.Time
	KeyPair sigconv.KeyPair
}

// RootKeyEpoch is one rotation window of the IBS root scheme.
type RootKeyEpoch struct {
	Kid    uint32
	Nbf    time.Time
	Exp    time.Time
	Params sigibs.PublicParams
	Master sigibs.MasterSecret
}

// SigningKey is an identity-extracted IBS secret bound to one gufi,
// inheriting its validity window from the RootKeyEpoch it was derived
// from.
type SigningKey struct {
	Kid      uint32                `json:"kid"`
	Nbf      time.Time             `json:"nbf"`
	Exp      time.Time             `json:"exp"`
	Identity sigibs.IdentitySecret `json:"identity"`
}

// AuthorizationRequest is the inbound grant request.
type AuthorizationRequest struct {
	Gufi wire.GUFI
	Nbf  time.Time
	Exp  time.Time
	BBox geo.BBox
}

// Authorization is the persisted grant: the requested window and bbox,
// plus every token and signing key minted to cover it.
type Authorization struct {
	Gufi        wire.GUFI
	Nbf         time.Time
	Exp         time.Time
	BBox        geo.BBox
	Operator    string
	GrantedAt   time.Time
	Tokens      []wire.Token
	SigningKeys []SigningKey
}

// TokenKeyPublic is the public half of a TokenKeyEpoch, safe to hand to a
// vehicle for validating peers.
type TokenKeyPublic struct {
	Kid    uint32          `json:"kid"`
	Nbf    time.Time       `json:"nbf"`
	Exp    time.Time       `json:"exp"`
	Public sigconv.KeyPair `json:"public"` // Secret is left zero-valued on public views
}

// MessageKeyPublic is the public half of a RootKeyEpoch.
type MessageKeyPublic struct {
	Kid    uint32              `json:"kid"`
	Nbf    time.Time           `json:"nbf"`
	Exp    time.Time           `json:"exp"`
	Params sigibs.PublicParams `json:"params"`
}

// LoadSet is the self-contained bundle a vehicle needs to broadcast and
// to validate peers for the duration of its authorization.
type LoadSet struct {
	Gufi        wire.GUFI          `json:"gufi"`
	Tokens      []wire.Token       `json:"tokens"`
	TokenKeys   []TokenKeyPublic   `json:"token_keys"`
	SigningKeys []SigningKey       `json:"signing_keys"`
	MessageKeys []MessageKeyPublic `json:"message_keys"`
}
