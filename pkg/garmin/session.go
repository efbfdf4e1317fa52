package garmin

import (
	"fmt"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/fitness-proxy/garmin-proxy/pkg/credentials"
)

// Loader reads a credential document.
type Loader interface {
	Load(path string) ([]byte, error)
}

// oauth2Document is the OAuth2 token as stored by the vendor SDK.
type oauth2Document struct {
	Scope                 string `json:"scope"`
	JTI                   string `json:"jti"`
	TokenType             string `json:"token_type"`
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	ExpiresIn             int64  `json:"expires_in"`
	ExpiresAt             int64  `json:"expires_at"`
	RefreshTokenExpiresAt int64  `json:"refresh_token_expires_at"`
}

// Session is the authentication material handed to the client.
type Session struct {
	Token  *oauth2.Token
	OAuth1 json.RawMessage
	Target credentials.ResolvedTarget
}

// Expired reports whether the access token can no longer be used.
func (s *Session) Expired(now time.Time) bool {
	return !s.Token.Expiry.IsZero() && !now.Before(s.Token.Expiry)
}

// LoadSession reads the OAuth2 token from the resolved bundle.
//
// Two-file bundles keep it in oauth2_token.json. Single-file bundles are accepted
// as an object with an "oauth2" (or "oauth2_token") member, as a two-element array
// [oauth1, oauth2], or as a bare OAuth2 object.
func LoadSession(l Loader, target credentials.ResolvedTarget) (*Session, error) {
	var oauth1Doc, oauth2Doc json.RawMessage

	switch target.Shape {
	case credentials.ShapeTwoFile:
		o1, err := l.Load(filepath.Join(target.Location, credentials.OAuth1FileName))
		if err != nil {
			return nil, err
		}
		o2, err := l.Load(filepath.Join(target.Location, credentials.OAuth2FileName))
		if err != nil {
			return nil, err
		}
		oauth1Doc, oauth2Doc = o1, o2
	case credentials.ShapeSingleFile:
		data, err := l.Load(target.Location)
		if err != nil {
			return nil, err
		}
		oauth1Doc, oauth2Doc, err = splitSingleFile(data)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", target.Location, err)
		}
	default:
		return nil, fmt.Errorf("unknown credential shape %q", target.Shape)
	}

	var doc oauth2Document
	if err := json.Unmarshal(oauth2Doc, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode oauth2 token: %w", err)
	}
	if doc.AccessToken == "" {
		return nil, fmt.Errorf("oauth2 token in %s has no access_token", target.Location)
	}

	return &Session{
		Token:  doc.token(),
		OAuth1: oauth1Doc,
		Target: target,
	}, nil
}

func splitSingleFile(data []byte) (json.RawMessage, json.RawMessage, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return nil, nil, fmt.Errorf("expected [oauth1, oauth2], got %d elements", len(pair))
		}
		return pair[0], pair[1], nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, nil, err
	}
	for _, key := range []string{"oauth2", "oauth2_token"} {
		if v, ok := obj[key]; ok {
			return firstOf(obj, "oauth1", "oauth1_token"), v, nil
		}
	}
	if _, ok := obj["access_token"]; ok {
		return nil, data, nil
	}
	return nil, nil, fmt.Errorf("no oauth2 token found")
}

func firstOf(obj map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v
		}
	}
	return nil
}

func (d oauth2Document) token() *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  d.AccessToken,
		TokenType:    d.TokenType,
		RefreshToken: d.RefreshToken,
	}
	if t.TokenType == "" {
		t.TokenType = "Bearer"
	}

	switch {
	case d.ExpiresAt > 0:
		t.Expiry = time.Unix(d.ExpiresAt, 0)
	default:
		t.Expiry = jwtExpiry(d.AccessToken)
	}
	return t
}

// jwtExpiry reads the exp claim of an access token without verifying it.
// The signature cannot be checked locally and only the expiry is used.
func jwtExpiry(accessToken string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
