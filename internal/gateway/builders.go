package gateway

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mkmemoportal/auth-gateway/internal/config"
)

const (
	DefaultScope        = "openid email profile"
	codeChallengeMethod = "S256"

	headerCacheControl = "Cache-Control"
	noStore            = "no-cache, no-store"
	errorBody          = "Internal Server Error"
)

// CookieOptions are the attributes of a Set-Cookie header. MaxAge follows
// net/http: zero omits the attribute and a negative value emits Max-Age=0.
type CookieOptions struct {
	MaxAge   int
	Expires  time.Time
	Path     string
	Domain   string
	Secure   bool
	SameSite config.CookieSameSite
	HTTPOnly bool
}

func cookieOptions(t config.CookieTemplate) CookieOptions {
	return CookieOptions{
		MaxAge:   t.MaxAge,
		Path:     t.Path,
		Domain:   t.Domain,
		Secure:   t.Secure,
		SameSite: t.SameSite,
		HTTPOnly: t.HTTPOnly,
	}
}

// BuildSetCookie renders a Set-Cookie value. Attributes are written in a
// fixed order: Max-Age, Expires, Path, Domain, Secure, SameSite, HttpOnly.
func BuildSetCookie(name, value string, opts CookieOptions) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(value)

	switch {
	case opts.MaxAge > 0:
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(opts.MaxAge))
	case opts.MaxAge < 0:
		b.WriteString("; Max-Age=0")
	}

	if !opts.Expires.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(opts.Expires.UTC().Format(http.TimeFormat))
	}

	if opts.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(opts.Path)
	}

	if opts.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(opts.Domain)
	}

	if opts.Secure {
		b.WriteString("; Secure")
	}

	if opts.SameSite != "" {
		b.WriteString("; SameSite=")
		b.WriteString(string(opts.SameSite))
	}

	if opts.HTTPOnly {
		b.WriteString("; HttpOnly")
	}

	return b.String()
}

// DeleteSetCookie renders a Set-Cookie value that clears the cookie. The
// remaining attributes must match the ones it was set with.
func DeleteSetCookie(name string, opts CookieOptions) string {
	opts.MaxAge = -1
	opts.Expires = time.Time{}

	return BuildSetCookie(name, "", opts)
}

// BuildLoginURL points at the identity provider's hosted login page, asking
// for an authorization code bound to challenge.
func BuildLoginURL(cfg Config, challenge string) string {
	return loginURL(cfg, challenge, DefaultScope)
}

func loginURL(cfg Config, challenge, scope string) string {
	return identityBaseURL(cfg) + "/login?" + encodeOrdered(
		"client_id", cfg.ClientID,
		"redirect_uri", publicRootURL(cfg),
		"response_type", "code",
		"scope", scope,
		"code_challenge", challenge,
		"code_challenge_method", codeChallengeMethod,
	)
}

func BuildLogoutURL(cfg Config) string {
	return identityBaseURL(cfg) + "/logout?" + encodeOrdered(
		"client_id", cfg.ClientID,
		"logout_uri", publicRootURL(cfg),
	)
}

func BuildRedirect(location string, setCookies ...string) *Response {
	header := make(http.Header)
	header.Set("Location", location)
	header.Set(headerCacheControl, noStore)
	for _, c := range setCookies {
		header.Add("Set-Cookie", c)
	}

	return &Response{
		Status: http.StatusFound,
		Header: header,
	}
}

func BuildError() *Response {
	header := make(http.Header)
	header.Set("Content-Type", "text/plain")

	return &Response{
		Status: http.StatusInternalServerError,
		Header: header,
		Body:   errorBody,
	}
}

// identityBaseURL accepts a bare host, as stored for hosted identity
// providers, or a full base URL for local ones.
func identityBaseURL(cfg Config) string {
	return baseURL(cfg.IdentityDomain)
}

func publicRootURL(cfg Config) string {
	return baseURL(cfg.PublicDomain) + "/"
}

func baseURL(domain string) string {
	if strings.Contains(domain, "://") {
		return strings.TrimRight(domain, "/")
	}

	return "https://" + strings.TrimRight(domain, "/")
}

// encodeOrdered is url.Values.Encode without the key sorting.
func encodeOrdered(kv ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv[i]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv[i+1]))
	}

	return b.String()
}
