package server

import (
	"context"
	"time"

	oauth2 "github.com/hearth-oauth/oauth2"
)

// Flow is a single grant type's state machine: it validates a token request
// against the policy's DataHandler and produces a token response or a
// protocol error (spec.md §4.4).
type Flow interface {
	GrantType() oauth2.GrantType
	HandleToken(ctx context.Context, p *Policy, req *oauth2.TokenRequest, now time.Time) (*oauth2.TokenResponse, *oauth2.Error)
}

// Registry maps grant_type strings to the Flow that handles them. New grant
// types are added by registering a Flow, not by editing the dispatcher
// (spec.md §9 "Pluggable flows").
type Registry struct {
	flows map[oauth2.GrantType]Flow
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{flows: map[oauth2.GrantType]Flow{}}
}

// Register adds or replaces the flow for its GrantType.
func (r *Registry) Register(flow Flow) {
	r.flows[flow.GrantType()] = flow
}

// Lookup returns the flow registered for typ, if any.
func (r *Registry) Lookup(typ oauth2.GrantType) (Flow, bool) {
	flow, ok := r.flows[typ]
	return flow, ok
}

// DefaultRegistry returns a registry with the client_credentials, password,
// authorization_code, refresh_token and device grant flows registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(&ClientCredentialsFlow{})
	r.Register(&PasswordFlow{})
	r.Register(&AuthorizationCodeFlow{})
	r.Register(&RefreshTokenFlow{})
	r.Register(&DeviceFlow{})

	return r
}
