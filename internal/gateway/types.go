// Package gateway decides, for every inbound request, whether it carries a
// valid session or has to be driven through the OAuth2 authorization code
// flow with PKCE.
package gateway

import "net/http"

// Config holds the identity settings the gateway needs for every decision.
// It is immutable once loaded.
type Config struct {
	ClientID       string `mapstructure:"clientID" validate:"required"`
	IdentityDomain string `mapstructure:"identityDomain" validate:"required"`
	PublicDomain   string `mapstructure:"publicDomain" validate:"required"`
}

// Request is the part of an inbound request the gateway looks at. No body is
// ever consumed.
type Request struct {
	Method      string
	URI         string
	QueryString string
	Header      http.Header
}

// Response is a synthesized reply, either a redirect or an error page.
type Response struct {
	Status int
	Header http.Header
	Body   string
}

type Outcome string

const (
	OutcomePass             Outcome = "pass"
	OutcomeLoginRedirect    Outcome = "login_redirect"
	OutcomeLogoutRedirect   Outcome = "logout_redirect"
	OutcomeCallbackExchange Outcome = "callback_exchange"
	OutcomeError            Outcome = "error"
)

// Decision is the result of handling one request. A nil Response means the
// original request is passed through unmodified.
type Decision struct {
	Outcome  Outcome
	Response *Response
}

// Pass reports whether the request should continue to the origin untouched.
func (d Decision) Pass() bool {
	return d.Response == nil
}
