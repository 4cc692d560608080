package gateway_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkmemoportal/auth-gateway/internal/config"
	"github.com/mkmemoportal/auth-gateway/internal/gateway"
	"github.com/mkmemoportal/auth-gateway/internal/params/mock"
)

const (
	testClientID     = "test-client-id"
	testPublicDomain = "d111111abcdef8.cloudfront.net"
	sessionCookie    = "mkmemoportal_access_token"
	verifierCookie   = "mkmemoportal_code_verifier"
)

// makeToken builds an unsigned compact JWS carrying claims.
func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString([]byte("test-signature"))
}

// IdP is a fake identity provider token endpoint.
type IdP struct {
	*httptest.Server

	mu    sync.Mutex
	calls int
	forms []url.Values
}

func (p *IdP) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *IdP) LastForm() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.forms) == 0 {
		return nil
	}
	return p.forms[len(p.forms)-1]
}

// StartIdP answers POST /oauth2/token with status and body.
func StartIdP(t *testing.T, status int, body string) *IdP {
	t.Helper()

	idp := &IdP{}
	idp.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/token" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		_ = r.ParseForm()
		idp.mu.Lock()
		idp.calls++
		idp.forms = append(idp.forms, r.PostForm)
		idp.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(idp.Close)

	return idp
}

func testGatewayConfig() *config.Gateway {
	return &config.Gateway{
		Parameters: config.Parameters{
			ClientID:       "/test/client-id",
			IdentityDomain: "/test/identity-domain",
			PublicDomain:   "/test/public-domain",
		},
		Scope: gateway.DefaultScope,
		SessionCookie: config.CookieTemplate{
			Name:     sessionCookie,
			MaxAge:   3600,
			Path:     "/",
			Secure:   true,
			SameSite: config.CookieSameSiteLax,
		},
		VerifierCookie: config.CookieTemplate{
			Name:     verifierCookie,
			MaxAge:   300,
			Path:     "/",
			Secure:   true,
			SameSite: config.CookieSameSiteLax,
		},
	}
}

// newSource seeds a parameter source with the values a gateway needs to talk
// to identityDomain.
func newSource(cfg *config.Gateway, identityDomain string) *mock.Source {
	return mock.NewInMemSource(
		mock.WithParameter(cfg.Parameters.ClientID, testClientID),
		mock.WithParameter(cfg.Parameters.IdentityDomain, identityDomain),
		mock.WithParameter(cfg.Parameters.PublicDomain, testPublicDomain),
	)
}

func newRequest(query string, cookies ...string) gateway.Request {
	header := make(http.Header)
	for _, c := range cookies {
		header.Add("Cookie", c)
	}

	return gateway.Request{
		Method:      http.MethodGet,
		URI:         "/",
		QueryString: query,
		Header:      header,
	}
}
