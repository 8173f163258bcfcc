// Package controllers implements the authority's HTTP handlers: a
// struct holding a service, one method per route, JSON in/out via
// encoding/json.
package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"v2vfabric/authorityserver/services"
	"v2vfabric/internal/authority"
	"v2vfabric/internal/geo"
	"v2vfabric/internal/wire"
)

// AuthorityController holds HTTP handlers for the credential-issuance
// surface.
type AuthorityController struct {
	svc *services.AuthorityService
}

// NewAuthorityController constructs an AuthorityController.
func NewAuthorityController(svc *services.AuthorityService) *AuthorityController {
	return &AuthorityController{svc: svc}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, geo.ErrLatitudeRange), errors.Is(err, geo.ErrLongitudeRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, authority.ErrNbfAfterExp):
		return http.StatusUnprocessableEntity
	case errors.Is(err, authority.ErrDuplicateAuthorization):
		return http.StatusConflict
	case errors.Is(err, authority.ErrAuthorizationNotFound), errors.Is(err, authority.ErrKeyNotFound), errors.Is(err, authority.ErrOperatorNotFound):
		return http.StatusNotFound
	case errors.Is(err, authority.ErrNoTokenKeyCoverage), errors.Is(err, authority.ErrNoRootKeyCoverage):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Operators handles GET /operators.
func (c *AuthorityController) Operators(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.svc.Operators())
}

// Operator handles GET /operator/{id}.
func (c *AuthorityController) Operator(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	op, ok := c.svc.Operator(id)
	if !ok {
		writeError(w, http.StatusNotFound, authority.ErrOperatorNotFound)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

// authorizationView is the public projection of an authorization; the
// privileged view additionally carries the operator record.
type authorizationView struct {
	Gufi      wire.GUFI           `json:"gufi"`
	Nbf       time.Time           `json:"nbf"`
	Exp       time.Time           `json:"exp"`
	BBox      geo.BBox            `json:"bbox"`
	GrantedAt time.Time           `json:"granted_at"`
	Operator  *authority.Operator `json:"operator,omitempty"`
}

func (c *AuthorityController) view(a authority.Authorization, privileged bool) authorizationView {
	v := authorizationView{Gufi: a.Gufi, Nbf: a.Nbf, Exp: a.Exp, BBox: a.BBox, GrantedAt: a.GrantedAt}
	if privileged {
		if op, ok := c.svc.Operator(a.Operator); ok {
			v.Operator = &op
		}
	}
	return v
}

// Authorizations handles GET /authorizations[?privileged=true], listing
// every authorization the store holds (sorted by gufi); see
// services.AuthorityService.
func (c *AuthorityController) Authorizations(w http.ResponseWriter, r *http.Request) {
	privileged := r.URL.Query().Get("privileged") == "true"
	out := make([]authorizationView, 0)
	for _, a := range c.svc.Authorizations() {
		out = append(out, c.view(a, privileged))
	}
	writeJSON(w, http.StatusOK, out)
}

// Authorization handles GET /authorization/{gufi}[?privileged=true].
func (c *AuthorityController) Authorization(w http.ResponseWriter, r *http.Request) {
	gufi, err := wire.ParseGUFI(mux.Vars(r)["gufi"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a, ok := c.svc.Authorization(gufi)
	if !ok {
		writeError(w, http.StatusNotFound, authority.ErrAuthorizationNotFound)
		return
	}
	privileged := r.URL.Query().Get("privileged") == "true"
	writeJSON(w, http.StatusOK, c.view(a, privileged))
}

// createAuthorizationRequest is the POST /authorization body.
type createAuthorizationRequest struct {
	Gufi     wire.GUFI `json:"gufi"`
	Nbf      time.Time `json:"nbf"`
	Exp      time.Time `json:"exp"`
	BBox     geo.BBox  `json:"bbox"`
	Operator string    `json:"operator"`
}

// CreateAuthorization handles POST /authorization.
func (c *AuthorityController) CreateAuthorization(w http.ResponseWriter, r *http.Request) {
	var req createAuthorizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	a, err := c.svc.CreateAuthorization(authority.AuthorizationRequest{
		Gufi: req.Gufi, Nbf: req.Nbf, Exp: req.Exp, BBox: req.BBox,
	}, req.Operator)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	ls, err := c.svc.LoadSet(a.Gufi)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, ls)
}

// LoadSet handles GET /loadset/{gufi}.
func (c *AuthorityController) LoadSet(w http.ResponseWriter, r *http.Request) {
	gufi, err := wire.ParseGUFI(mux.Vars(r)["gufi"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ls, err := c.svc.LoadSet(gufi)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ls)
}

func parseKeyFilter(r *http.Request) services.KeyFilter {
	q := r.URL.Query()
	var f services.KeyFilter
	if v := q.Get("nbf"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.Nbf = &t
		}
	}
	if v := q.Get("exp"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.Exp = &t
		}
	}
	if v := q.Get("skip"); v != "" {
		f.Skip, _ = strconv.Atoi(v)
	}
	if v := q.Get("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	return f
}

// TokenKeys handles GET /token_keys[?nbf&exp&skip&limit].
func (c *AuthorityController) TokenKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.svc.TokenKeys(parseKeyFilter(r)))
}

// TokenKey handles GET /token_key/{kid}.
func (c *AuthorityController) TokenKey(w http.ResponseWriter, r *http.Request) {
	kid, err := strconv.ParseUint(mux.Vars(r)["kid"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	key, ok := c.svc.TokenKey(uint32(kid))
	if !ok {
		writeError(w, http.StatusNotFound, authority.ErrKeyNotFound)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

// MessageKeys handles GET /message_keys[?nbf&exp&skip&limit].
func (c *AuthorityController) MessageKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.svc.MessageKeys(parseKeyFilter(r)))
}

// MessageKey handles GET /message_key/{kid}.
func (c *AuthorityController) MessageKey(w http.ResponseWriter, r *http.Request) {
	kid, err := strconv.ParseUint(mux.Vars(r)["kid"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	key, ok := c.svc.MessageKey(uint32(kid))
	if !ok {
		writeError(w, http.StatusNotFound, authority.ErrKeyNotFound)
		return
	}
	writeJSON(w, http.StatusOK, key)
}
