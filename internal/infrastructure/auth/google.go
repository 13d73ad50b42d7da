package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrGoogleTokenInvalid is returned when Google rejects the ID token
var ErrGoogleTokenInvalid = errors.New("google id token rejected")

// GoogleIdentity is the subset of the token payload the platform uses
type GoogleIdentity struct {
	Subject    string `json:"sub"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Audience   string `json:"aud"`
}

// GoogleVerifier validates Google ID tokens against the tokeninfo
// endpoint and checks the audience against the configured client ID.
type GoogleVerifier struct {
	clientID string
	endpoint string
	client   *http.Client
}

// NewGoogleVerifier creates a verifier for the given OAuth client ID
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		endpoint: "https://oauth2.googleapis.com/tokeninfo",
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify validates the ID token and returns the verified identity
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	if idToken == "" {
		return nil, ErrGoogleTokenInvalid
	}

	u := v.endpoint + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrGoogleTokenInvalid
	}

	var identity GoogleIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("decoding tokeninfo response: %w", err)
	}

	if v.clientID != "" && identity.Audience != v.clientID {
		return nil, ErrGoogleTokenInvalid
	}
	if identity.Subject == "" {
		return nil, ErrGoogleTokenInvalid
	}

	return &identity, nil
}
