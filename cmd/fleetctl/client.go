package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"v2vfabric/internal/authority"
	"v2vfabric/internal/geo"
	"v2vfabric/internal/wire"
)

// authorityClient is a minimal HTTP client for the routes registered in
// authorityserver/routes.
type authorityClient struct {
	baseURL string
	http    *http.Client
}

func newAuthorityClient(baseURL string) *authorityClient {
	return &authorityClient{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *authorityClient) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("fleetctl: %s %s: %s: %s", method, path, resp.Status, msg)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type createAuthorizationBody struct {
	Gufi     wire.GUFI `json:"gufi"`
	Nbf      time.Time `json:"nbf"`
	Exp      time.Time `json:"exp"`
	BBox     geo.BBox  `json:"bbox"`
	Operator string    `json:"operator"`
}

func (c *authorityClient) Authorize(gufi wire.GUFI, nbf, exp time.Time, bbox geo.BBox, operator string) (authority.LoadSet, error) {
	var ls authority.LoadSet
	err := c.do(http.MethodPost, "/authorization", createAuthorizationBody{
		Gufi: gufi, Nbf: nbf, Exp: exp, BBox: bbox, Operator: operator,
	}, &ls)
	return ls, err
}

func (c *authorityClient) LoadSet(gufi wire.GUFI) (authority.LoadSet, error) {
	var ls authority.LoadSet
	err := c.do(http.MethodGet, "/loadset/"+url.PathEscape(gufi.String()), nil, &ls)
	return ls, err
}

func (c *authorityClient) TokenKeys() ([]authority.TokenKeyPublic, error) {
	var keys []authority.TokenKeyPublic
	err := c.do(http.MethodGet, "/token_keys", nil, &keys)
	return keys, err
}

func (c *authorityClient) MessageKeys() ([]authority.MessageKeyPublic, error) {
	var keys []authority.MessageKeyPublic
	err := c.do(http.MethodGet, "/message_keys", nil, &keys)
	return keys, err
}
