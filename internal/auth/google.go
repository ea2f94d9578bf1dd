package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// SocialIdentity is what a provider tells us about the account holder.
type SocialIdentity struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// WithEndpoints points the provider at other token and userinfo URLs.
func (g *GoogleProvider) WithEndpoints(tokenURL, userInfoURL string) *GoogleProvider {
	g.config.Endpoint = oauth2.Endpoint{AuthURL: g.config.Endpoint.AuthURL, TokenURL: tokenURL}
	g.userInfoURL = userInfoURL
	return g
}

// Identify accepts either an authorization code or an access token obtained by the client.
func (g *GoogleProvider) Identify(ctx context.Context, code, accessToken string) (*SocialIdentity, error) {
	var tok *oauth2.Token
	switch {
	case code != "":
		t, err := g.config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("%w: google code exchange failed", domain.ErrInvalidCredentials)
		}
		tok = t
	case accessToken != "":
		tok = &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	default:
		return nil, fmt.Errorf("%w: code or access_token is required", domain.ErrValidation)
	}

	client := g.config.Client(ctx, tok)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: google userinfo returned %d", domain.ErrInvalidCredentials, resp.StatusCode)
	}

	var id SocialIdentity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return nil, fmt.Errorf("decode google userinfo: %w", err)
	}
	if id.Email == "" {
		return nil, fmt.Errorf("%w: google account has no email", domain.ErrInvalidCredentials)
	}
	return &id, nil
}
