// Package services wraps internal/authority.Authority with the
// query-filter and pagination conveniences the HTTP surface needs: a
// thin service sitting between controllers and the domain package.
package services

import (
	"sort"
	"time"

	"v2vfabric/internal/authority"
	"v2vfabric/internal/sigconv"
	"v2vfabric/internal/wire"
)

// AuthorityService is the HTTP-facing wrapper around authority.Authority.
type AuthorityService struct {
	Authority *authority.Authority
	Store     authority.Store
}

// NewAuthorityService constructs an AuthorityService over an already
// wired Authority and the same Store it was built with.
func NewAuthorityService(a *authority.Authority, store authority.Store) *AuthorityService {
	return &AuthorityService{Authority: a, Store: store}
}

// Operators returns the operator directory, sorted by ID.
func (s *AuthorityService) Operators() []authority.Operator {
	return s.Store.Operators()
}

// Operator returns one operator by ID.
func (s *AuthorityService) Operator(id string) (authority.Operator, bool) {
	return s.Store.GetOperator(id)
}

// CreateAuthorization mints a new authorization for the given request and
// operator, delegating to the issuance algorithm.
func (s *AuthorityService) CreateAuthorization(req authority.AuthorizationRequest, operator string) (authority.Authorization, error) {
	return s.Authority.GenerateAuthorization(req, operator)
}

// Authorization returns one authorization by gufi.
func (s *AuthorityService) Authorization(gufi wire.GUFI) (authority.Authorization, bool) {
	return s.Store.GetAuthorization(gufi)
}

// Authorizations returns every authorization the store holds.
func (s *AuthorityService) Authorizations() []authority.Authorization {
	return s.Store.ListAuthorizations()
}

// LoadSet assembles the load set for an existing authorization.
func (s *AuthorityService) LoadSet(gufi wire.GUFI) (authority.LoadSet, error) {
	return s.Authority.LoadSet(gufi)
}

// KeyFilter is the nbf/exp/skip/limit query shared by the token-key and
// message-key listing endpoints.
type KeyFilter struct {
	Nbf   *time.Time
	Exp   *time.Time
	Skip  int
	Limit int // 0 means unbounded
}

func (f KeyFilter) overlaps(nbf, exp time.Time) bool {
	if f.Nbf != nil && exp.Before(*f.Nbf) {
		return false
	}
	if f.Exp != nil && nbf.After(*f.Exp) {
		return false
	}
	return true
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return nil
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// TokenKeys returns the public halves of token-key epochs matching
// filter, sorted by kid ascending, with skip/limit applied.
func (s *AuthorityService) TokenKeys(filter KeyFilter) []authority.TokenKeyPublic {
	epochs := s.Store.TokenKeyEpochs()
	out := make([]authority.TokenKeyPublic, 0, len(epochs))
	for _, e := range epochs {
		if !filter.overlaps(e.Nbf, e.Exp) {
			continue
		}
		out = append(out, authority.TokenKeyPublic{
			Kid: e.Kid, Nbf: e.Nbf, Exp: e.Exp,
			Public: sigconv.KeyPair{Public: e.KeyPair.Public},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kid < out[j].Kid })
	return paginate(out, filter.Skip, filter.Limit)
}

// TokenKey looks up one token-key epoch's public half by kid.
func (s *AuthorityService) TokenKey(kid uint32) (authority.TokenKeyPublic, bool) {
	for _, e := range s.Store.TokenKeyEpochs() {
		if e.Kid == kid {
			return authority.TokenKeyPublic{Kid: e.Kid, Nbf: e.Nbf, Exp: e.Exp, Public: sigconv.KeyPair{Public: e.KeyPair.Public}}, true
		}
	}
	return authority.TokenKeyPublic{}, false
}

// MessageKeys returns the public halves of root-key epochs matching
// filter, sorted by kid ascending, with skip/limit applied.
func (s *AuthorityService) MessageKeys(filter KeyFilter) []authority.MessageKeyPublic {
	epochs := s.Store.RootKeyEpochs()
	out := make([]authority.MessageKeyPublic, 0, len(epochs))
	for _, e := range epochs {
		if !filter.overlaps(e.Nbf, e.Exp) {
			continue
		}
		out = append(out, authority.MessageKeyPublic{Kid: e.Kid, Nbf: e.Nbf, Exp: e.Exp, Params: e.Params})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kid < out[j].Kid })
	return paginate(out, filter.Skip, filter.Limit)
}

// MessageKey looks up one root-key epoch's public half by kid.
func (s *AuthorityService) MessageKey(kid uint32) (authority.MessageKeyPublic, bool) {
	for _, e := range s.Store.RootKeyEpochs() {
		if e.Kid == kid {
			return authority.MessageKeyPublic{Kid: e.Kid, Nbf: e.Nbf, Exp: e.Exp, Params: e.Params}, true
		}
	}
	return authority.MessageKeyPublic{}, false
}
