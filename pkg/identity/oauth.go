package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// ProviderConfig builds the oauth2 configuration of a known provider.
func ProviderConfig(provider, clientID, clientSecret, redirectURL string) (*oauth2.Config, error) {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
	}
	switch strings.ToLower(provider) {
	case ProviderGoogle:
		cfg.Endpoint = endpoints.Google
		cfg.Scopes = []string{"openid", "email", "profile"}
	case ProviderGitHub:
		cfg.Endpoint = endpoints.GitHub
		cfg.Scopes = []string{"read:user", "user:email"}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return cfg, nil
}

var userInfoURL = map[string]string{
	ProviderGoogle: "https://openidconnect.googleapis.com/v1/userinfo",
	ProviderGitHub: "https://api.github.com/user",
}

// SignInWithOAuth returns the URL the user opens to authorise provider.
// state is echoed back on the redirect.
func (c *Client) SignInWithOAuth(provider, state string) (string, error) {
	cfg, ok := c.oauth[strings.ToLower(provider)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// CompleteOAuth exchanges the code from the redirect, looks up the user's
// email with the provider and signs in.
func (c *Client) CompleteOAuth(ctx context.Context, provider, code string) (Session, error) {
	provider = strings.ToLower(provider)
	cfg, ok := c.oauth[provider]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return Session{}, fmt.Errorf("identity: oauth exchange: %w", err)
	}
	email, name, err := fetchUserInfo(ctx, cfg.Client(ctx, tok), userInfoURL[provider])
	if err != nil {
		return Session{}, err
	}
	s, err := c.backend.SignInExternal(ctx, provider, normalizeEmail(email), name)
	if err != nil {
		return Session{}, err
	}
	c.lockout.Reset()
	c.logger.Info("Signed in with oauth", zap.String("provider", provider), zap.String("user_id", s.UserID))
	return s, c.establish(s)
}

func fetchUserInfo(ctx context.Context, client *http.Client, url string) (email, name string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("identity: user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("identity: user info: unexpected status %s", resp.Status)
	}
	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", fmt.Errorf("identity: user info: %w", err)
	}
	if info.Email == "" {
		return "", "", fmt.Errorf("identity: user info: provider returned no email")
	}
	if info.Name == "" {
		info.Name = info.Login
	}
	return info.Email, info.Name, nil
}
