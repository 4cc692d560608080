package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mkmemoportal/auth-gateway/internal/serviceerr"
)

const (
	tokenEndpointPath = "/oauth2/token"
	maxErrorBodyBytes = 64 << 10
)

// TokenExchanger trades an authorization code for tokens.
type TokenExchanger interface {
	Exchange(ctx context.Context, cfg Config, code, verifier string) (TokenResponse, error)
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// TokenClient calls the identity provider's token endpoint. Requests are
// never retried.
type TokenClient struct {
	httpClient *http.Client
}

var _ TokenExchanger = (*TokenClient)(nil)

func NewTokenClient(httpClient *http.Client) *TokenClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &TokenClient{httpClient: httpClient}
}

func (c *TokenClient) Exchange(ctx context.Context, cfg Config, code, verifier string) (TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", cfg.ClientID)
	data.Set("code", code)
	data.Set("redirect_uri", publicRootURL(cfg))
	data.Set("code_verifier", verifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, identityBaseURL(cfg)+tokenEndpointPath, strings.NewReader(data.Encode()))
	if err != nil {
		return TokenResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		exErr := &serviceerr.TokenExchangeError{StatusCode: resp.StatusCode}

		var body tokenErrorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBodyBytes)).Decode(&body); err == nil {
			exErr.ProviderCode = body.Error
			exErr.Description = body.ErrorDescription
		}

		return TokenResponse{}, exErr
	}

	var tokens TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return TokenResponse{}, fmt.Errorf("%w: %w", serviceerr.ErrMalformedResponse, err)
	}

	if tokens.AccessToken == "" {
		return TokenResponse{}, fmt.Errorf("%w: no access token", serviceerr.ErrMalformedResponse)
	}

	return tokens, nil
}
