// Package memstore is an in-memory reference implementation of
// server.DataHandler, useful for tests and examples. It is grounded in the
// hooklift-oauth2 test provider's plain in-memory maps, generalized to the
// richer data handler contract and made safe for concurrent pollers of the
// device flow.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/asaskevich/govalidator"

	oauth2 "github.com/hearth-oauth/oauth2"
	"github.com/hearth-oauth/oauth2/notary"
	"github.com/hearth-oauth/oauth2/server"
)

// Client is a registered OAuth 2.0 client.
type Client struct {
	ID                string
	SecretHash        []byte
	Confidential      bool
	RedirectURIs      []string
	AllowedGrantTypes map[oauth2.GrantType]bool
	AllowedScopes     oauth2.Scope
}

// User is a registered resource owner.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
}

// Store is an in-memory server.DataHandler. All exported state is guarded by
// an internal mutex; the zero value is not usable, use New.
type Store struct {
	AccessTokenLifespan       time.Duration
	RefreshTokenLifespan      time.Duration
	AuthorizationCodeLifespan time.Duration
	DeviceCodeLifespan        time.Duration
	DevicePollInterval        time.Duration

	// Notary, when set, mints access tokens as signed, self-contained JWTs
	// instead of opaque random strings, so a resource server holding the
	// same secret could verify one without calling back into the store.
	// Lookup and revocation in this reference store still go through the
	// in-memory map either way.
	Notary *notary.Notary

	mu sync.Mutex

	clients map[string]*Client
	users   map[string]*User

	authInfos       map[string]*server.AuthInfo
	authInfosByCode map[string]string
	authByRefresh   map[string]string

	accessTokens map[string]*server.AccessToken

	deviceAuths      map[string]*server.DeviceAuthorization
	deviceByUserCode map[string]string
}

// New creates an empty Store with sensible default lifespans.
func New() *Store {
	return &Store{
		AccessTokenLifespan:       time.Hour,
		RefreshTokenLifespan:      7 * 24 * time.Hour,
		AuthorizationCodeLifespan: time.Minute,
		DeviceCodeLifespan:        10 * time.Minute,
		DevicePollInterval:        5 * time.Second,

		clients: make(map[string]*Client),
		users:   make(map[string]*User),

		authInfos:       make(map[string]*server.AuthInfo),
		authInfosByCode: make(map[string]string),
		authByRefresh:   make(map[string]string),

		accessTokens: make(map[string]*server.AccessToken),

		deviceAuths:      make(map[string]*server.DeviceAuthorization),
		deviceByUserCode: make(map[string]string),
	}
}

// RegisterClient adds or replaces a client, hashing its secret. An empty
// secret registers a public client. redirectURIs must already be valid
// absolute URLs; invalid entries are dropped.
func (s *Store) RegisterClient(id, secret string, confidential bool, redirectURIs []string, grantTypes []oauth2.GrantType, scopes oauth2.Scope) *Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hash []byte
	if secret != "" {
		hash = notary.MustHash(secret)
	}

	allowed := make(map[oauth2.GrantType]bool, len(grantTypes))
	for _, typ := range grantTypes {
		allowed[typ] = true
	}

	var uris []string
	for _, uri := range redirectURIs {
		if govalidator.IsURL(uri) {
			uris = append(uris, uri)
		}
	}

	client := &Client{
		ID:                id,
		SecretHash:        hash,
		Confidential:      confidential,
		RedirectURIs:      uris,
		AllowedGrantTypes: allowed,
		AllowedScopes:     scopes,
	}

	s.clients[id] = client

	return client
}

// RegisterUser adds or replaces a resource owner, hashing its password.
func (s *Store) RegisterUser(id, username, password string) *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &User{
		ID:           id,
		Username:     username,
		PasswordHash: notary.MustHash(password),
	}

	s.users[username] = user

	return user
}

// ValidateClient implements server.DataHandler.
func (s *Store) ValidateClient(_ context.Context, clientID, clientSecret string, grantType oauth2.GrantType) (*server.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[clientID]
	if !ok {
		return nil, server.ErrNotFound
	}

	if client.Confidential {
		if clientSecret == "" || notary.Compare(client.SecretHash, clientSecret) != nil {
			return nil, server.ErrDenied
		}
	}

	if grantType != "" && len(client.AllowedGrantTypes) > 0 && !client.AllowedGrantTypes[grantType] {
		return nil, server.ErrUnauthorizedClient
	}

	return &server.Client{ID: client.ID, Confidential: client.Confidential}, nil
}

// GetUser implements server.DataHandler.
func (s *Store) GetUser(_ context.Context, username, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return "", server.ErrDenied
	}

	if notary.Compare(user.PasswordHash, password) != nil {
		return "", server.ErrDenied
	}

	return user.ID, nil
}

// ValidateScope implements server.DataHandler.
func (s *Store) ValidateScope(_ context.Context, clientID string, scope oauth2.Scope) (oauth2.Scope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[clientID]
	if !ok {
		return nil, server.ErrNotFound
	}

	if len(client.AllowedScopes) == 0 {
		return scope, nil
	}

	if !client.AllowedScopes.Includes(scope) {
		return nil, server.ErrInvalidScope
	}

	return scope, nil
}

// ValidateRedirectURI implements server.DataHandler.
func (s *Store) ValidateRedirectURI(_ context.Context, clientID, redirectURI string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[clientID]
	if !ok {
		return "", server.ErrNotFound
	}

	if len(client.RedirectURIs) == 0 {
		return "", server.ErrInvalidRedirectURI
	}

	if redirectURI == "" {
		return client.RedirectURIs[0], nil
	}

	for _, uri := range client.RedirectURIs {
		if uri == redirectURI {
			return uri, nil
		}
	}

	return "", server.ErrInvalidRedirectURI
}

// CreateOrUpdateAuthInfo implements server.DataHandler.
func (s *Store) CreateOrUpdateAuthInfo(_ context.Context, clientID, resourceOwnerID string, scope oauth2.Scope, redirectURI string) (*server.AuthInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := &server.AuthInfo{
		ID:              notary.MustRandString(16),
		ClientID:        clientID,
		ResourceOwnerID: resourceOwnerID,
		Scope:           scope,
		RedirectURI:     redirectURI,
		ExpiresAt:       time.Now().Add(s.AuthorizationCodeLifespan),
	}

	if redirectURI != "" {
		info.Code = notary.MustRandString(24)
		s.authInfosByCode[info.Code] = info.ID
	}

	s.authInfos[info.ID] = info

	return info, nil
}

// GetAuthInfoByCode implements server.DataHandler.
func (s *Store) GetAuthInfoByCode(_ context.Context, code string) (*server.AuthInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.authInfosByCode[code]
	if !ok {
		return nil, server.ErrNotFound
	}

	return s.authInfos[id], nil
}

// GetAuthInfoByRefreshToken implements server.DataHandler.
func (s *Store) GetAuthInfoByRefreshToken(_ context.Context, refreshToken string) (*server.AuthInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.authByRefresh[refreshToken]
	if !ok {
		return nil, server.ErrNotFound
	}

	return s.authInfos[id], nil
}

// GetAuthInfoByID implements server.DataHandler.
func (s *Store) GetAuthInfoByID(_ context.Context, id string) (*server.AuthInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.authInfos[id]
	if !ok {
		return nil, server.ErrNotFound
	}

	return info, nil
}

// MarkAuthInfoUsed implements server.DataHandler. It is the one place that
// enforces at-most-once consumption of a grant: the check and the mark
// happen under the same lock, so a concurrent replay of the same code
// always observes Used already set.
func (s *Store) MarkAuthInfoUsed(_ context.Context, authInfo *server.AuthInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.authInfos[authInfo.ID]
	if !ok {
		return server.ErrNotFound
	}

	if stored.Used {
		return server.ErrDenied
	}

	stored.Used = true
	authInfo.Used = true

	return nil
}

// CreateOrUpdateAccessToken implements server.DataHandler.
func (s *Store) CreateOrUpdateAccessToken(_ context.Context, authInfo *server.AuthInfo, refreshable, rotate bool) (*server.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.authInfos[authInfo.ID]; !ok {
		s.authInfos[authInfo.ID] = authInfo
	}

	if rotate && authInfo.RefreshToken != "" {
		delete(s.authByRefresh, authInfo.RefreshToken)
		authInfo.RefreshToken = ""
	}

	if refreshable && authInfo.RefreshToken == "" {
		authInfo.RefreshToken = notary.MustRandString(32)
		s.authByRefresh[authInfo.RefreshToken] = authInfo.ID
	} else if !refreshable {
		authInfo.RefreshToken = ""
	}

	token, err := s.issueAccessToken(authInfo)
	if err != nil {
		return nil, err
	}

	at := &server.AccessToken{
		ID:              authInfo.ID,
		Token:           token,
		RefreshToken:    authInfo.RefreshToken,
		Refreshable:     refreshable,
		ClientID:        authInfo.ClientID,
		ResourceOwnerID: authInfo.ResourceOwnerID,
		Scope:           authInfo.Scope,
		ExpiresAt:       time.Now().Add(s.AccessTokenLifespan),
	}

	s.accessTokens[at.Token] = at

	return at, nil
}

// issueAccessToken returns the opaque bearer string for a freshly minted
// access token: a signed JWT when s.Notary is set, so a resource server
// holding the same secret can verify it without a round trip, otherwise a
// plain random opaque string.
func (s *Store) issueAccessToken(authInfo *server.AuthInfo) (string, error) {
	if s.Notary == nil {
		return notary.MustRandString(32), nil
	}

	key := &server.AccessTokenKey{
		ClientID:        authInfo.ClientID,
		ResourceOwnerID: authInfo.ResourceOwnerID,
	}
	key.Expiry = time.Now().Add(s.AccessTokenLifespan)

	return s.Notary.Issue(key)
}

// GetAccessToken implements server.DataHandler.
func (s *Store) GetAccessToken(_ context.Context, token string) (*server.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.accessTokens[token]
	if !ok {
		return nil, server.ErrNotFound
	}

	return at, nil
}

// RevokeToken implements server.DataHandler.
func (s *Store) RevokeToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if at, ok := s.accessTokens[token]; ok {
		delete(s.accessTokens, at.Token)
		delete(s.authByRefresh, at.RefreshToken)
		return nil
	}

	if id, ok := s.authByRefresh[token]; ok {
		delete(s.authByRefresh, token)

		for t, at := range s.accessTokens {
			if at.ID == id {
				delete(s.accessTokens, t)
			}
		}
	}

	return nil
}

// CreateDeviceAuthorization implements server.DataHandler.
func (s *Store) CreateDeviceAuthorization(_ context.Context, clientID string, scope oauth2.Scope) (*server.DeviceAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	auth := &server.DeviceAuthorization{
		DeviceCode: notary.MustRandString(32),
		UserCode:   userCode(),
		ClientID:   clientID,
		Scope:      scope,
		Status:     server.DevicePending,
		Interval:   s.DevicePollInterval,
		ExpiresAt:  time.Now().Add(s.DeviceCodeLifespan),
	}

	s.deviceAuths[auth.DeviceCode] = auth
	s.deviceByUserCode[auth.UserCode] = auth.DeviceCode

	return auth, nil
}

// GetDeviceAuthorizationByDeviceCode implements server.DataHandler.
func (s *Store) GetDeviceAuthorizationByDeviceCode(_ context.Context, deviceCode string) (*server.DeviceAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	auth, ok := s.deviceAuths[deviceCode]
	if !ok {
		return nil, server.ErrNotFound
	}

	// hand back the previous poll's timestamp (zero on the first poll) and
	// record this one for the next call
	polled := *auth
	auth.LastPolledAt = time.Now()

	return &polled, nil
}

// ApproveDeviceAuthorization implements server.DataHandler.
func (s *Store) ApproveDeviceAuthorization(_ context.Context, userCode, resourceOwnerID string, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deviceCode, ok := s.deviceByUserCode[userCode]
	if !ok {
		return server.ErrNotFound
	}

	auth := s.deviceAuths[deviceCode]

	if approved {
		auth.Status = server.DeviceApproved
		auth.ResourceOwnerID = resourceOwnerID
	} else {
		auth.Status = server.DeviceDenied
	}

	return nil
}

// ConsumeDeviceAuthorization implements server.DataHandler. Like
// MarkAuthInfoUsed, the consumption check and the status flip happen under
// the same lock so two concurrent pollers cannot both observe "approved".
func (s *Store) ConsumeDeviceAuthorization(_ context.Context, deviceCode string) (*server.DeviceAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	auth, ok := s.deviceAuths[deviceCode]
	if !ok {
		return nil, server.ErrNotFound
	}

	if auth.Status != server.DeviceApproved {
		return nil, server.ErrDenied
	}

	consumed := *auth
	delete(s.deviceAuths, deviceCode)
	delete(s.deviceByUserCode, auth.UserCode)

	return &consumed, nil
}

const userCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// userCode generates a short, human-typeable code in the style of
// "WDJB-MJHT", grouped for easier transcription.
func userCode() string {
	raw := notary.MustRand(8)

	code := make([]byte, 0, 9)
	for i, b := range raw {
		if i == 4 {
			code = append(code, '-')
		}

		code = append(code, userCodeAlphabet[int(b)%len(userCodeAlphabet)])
	}

	return string(code)
}
