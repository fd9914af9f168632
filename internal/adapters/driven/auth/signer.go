package auth

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/custodia-labs/couchfeed/internal/core/ports/driven"
)

// HeaderAuthorization is the header every signer sets.
const HeaderAuthorization = "Authorization"

// Credentials selects a signer. A client-credentials grant wins over a
// static Token, which wins over Username/Password.
type Credentials struct {
	Token    string
	Username string
	Password string

	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// NewSigner returns the signer for a set of credentials.
func NewSigner(creds Credentials) driven.Signer {
	switch {
	case creds.TokenURL != "" && creds.ClientID != "":
		return NewClientCredentialsSigner(creds.TokenURL, creds.ClientID, creds.ClientSecret, creds.Scopes)
	case creds.Token != "":
		return NewStaticTokenSigner(creds.Token)
	case creds.Username != "":
		return NewBasicSigner(creds.Username, creds.Password)
	default:
		return NewNullSigner()
	}
}

// Ensure NullSigner implements the Signer interface.
var _ driven.Signer = (*NullSigner)(nil)

// NullSigner is for stores that require no authentication, such as a
// local admin-party server.
type NullSigner struct{}

// NewNullSigner creates a signer that never signs.
func NewNullSigner() *NullSigner {
	return &NullSigner{}
}

// Sign returns no header.
func (s *NullSigner) Sign(_ context.Context, _, _ string) (string, string, error) {
	return "", "", nil
}

// Ensure BasicSigner implements the Signer interface.
var _ driven.Signer = (*BasicSigner)(nil)

// BasicSigner signs with HTTP basic credentials.
type BasicSigner struct {
	value string
}

// NewBasicSigner creates a basic-auth signer.
func NewBasicSigner(username, password string) *BasicSigner {
	raw := username + ":" + password
	return &BasicSigner{value: "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))}
}

// Sign returns the precomputed basic header.
func (s *BasicSigner) Sign(_ context.Context, _, _ string) (string, string, error) {
	return HeaderAuthorization, s.value, nil
}

// Ensure TokenSigner implements the Signer interface.
var _ driven.Signer = (*TokenSigner)(nil)

// TokenSigner signs with a token from an oauth2.TokenSource.
type TokenSigner struct {
	source oauth2.TokenSource
}

// NewTokenSigner creates a signer backed by any token source. The source
// is wrapped so a valid token is reused until it expires.
func NewTokenSigner(source oauth2.TokenSource) *TokenSigner {
	return &TokenSigner{source: oauth2.ReuseTokenSource(nil, source)}
}

// NewClientCredentialsSigner fetches bearer tokens from tokenURL with the
// OAuth2 client-credentials grant and fetches a new one on expiry.
func NewClientCredentialsSigner(tokenURL, clientID, clientSecret string, scopes []string) *TokenSigner {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}
	return NewTokenSigner(cfg.TokenSource(context.Background()))
}

// NewStaticTokenSigner creates a signer for a token that never expires.
func NewStaticTokenSigner(token string) *TokenSigner {
	return &TokenSigner{
		source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
	}
}

// Sign fetches the current token and formats it as a header. A source that
// hands back an expired token is asked once more.
func (s *TokenSigner) Sign(_ context.Context, _, _ string) (string, string, error) {
	token, err := s.source.Token()
	if err == nil && !token.Valid() {
		token, err = s.source.Token()
	}
	if err != nil {
		return "", "", fmt.Errorf("get token: %w", err)
	}
	if !token.Valid() {
		return "", "", fmt.Errorf("get token: token is expired or empty")
	}
	return HeaderAuthorization, token.Type() + " " + token.AccessToken, nil
}
