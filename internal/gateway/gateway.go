package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"

	slogctx "github.com/veqryn/slog-context"

	"github.com/mkmemoportal/auth-gateway/internal/config"
	"github.com/mkmemoportal/auth-gateway/internal/pkce"
	"github.com/mkmemoportal/auth-gateway/internal/serviceerr"
)

const (
	queryLogout = "logout"
	queryCode   = "code"
)

type Gateway struct {
	configs ConfigProvider
	tokens  TokenExchanger
	pkce    pkce.Source
	now     func() time.Time

	meters        *meters
	meterProvider metric.MeterProvider

	scope          string
	sessionCookie  config.CookieTemplate
	verifierCookie config.CookieTemplate
}

type Option func(*Gateway)

// WithPKCESource replaces the randomness used for verifiers.
func WithPKCESource(src pkce.Source) Option {
	return func(g *Gateway) {
		g.pkce = src
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		g.now = now
	}
}

// WithMeterProvider records metrics on provider instead of the global one.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(g *Gateway) {
		g.meterProvider = provider
	}
}

func New(cfg *config.Gateway, configs ConfigProvider, tokens TokenExchanger, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		configs:        configs,
		tokens:         tokens,
		now:            time.Now,
		scope:          cfg.Scope,
		sessionCookie:  cfg.SessionCookie,
		verifierCookie: cfg.VerifierCookie,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.scope == "" {
		g.scope = DefaultScope
	}

	m, err := newMeters(g.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("creating gateway meters: %w", err)
	}
	g.meters = m

	return g, nil
}

// Handle classifies req and produces exactly one decision. It never fails:
// errors and panics end in a login redirect when a configuration has been
// loaded before, and in a plain 500 otherwise.
func (g *Gateway) Handle(ctx context.Context, req Request) (decision Decision) {
	defer func() {
		if r := recover(); r != nil {
			decision = g.fallback(ctx, fmt.Errorf("%w: panic: %v", serviceerr.ErrUnknown, r))
		}
		g.meters.recordDecision(ctx, decision.Outcome)
	}()

	d, err := g.decide(ctx, req)
	if err != nil {
		return g.fallback(ctx, err)
	}

	return d
}

func (g *Gateway) decide(ctx context.Context, req Request) (Decision, error) {
	cookies := ParseCookies(req.Header.Values("Cookie"))
	query := ParseQueryString(req.QueryString)

	cfg, err := g.configs.Config(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("getting gateway configuration: %w", err)
	}

	if query[queryLogout] == "true" {
		slogctx.Info(ctx, "Logging out")
		return g.logout(cfg), nil
	}

	if code := query[queryCode]; code != "" {
		return g.callback(ctx, cfg, req.QueryString, code, cookies[g.verifierCookie.Name])
	}

	token, ok := cookies[g.sessionCookie.Name]
	if IsTokenValid(token, g.now()) {
		return Decision{Outcome: OutcomePass}, nil
	}

	if ok {
		slogctx.Info(ctx, "Session cookie rejected, restarting login", "reason", serviceerr.ErrMalformedToken.Err, "token_length", len(token))
	}

	return g.login(cfg)
}

func (g *Gateway) callback(ctx context.Context, cfg Config, rawQuery, code, verifier string) (Decision, error) {
	if verifier == "" {
		slogctx.Info(ctx, "Authorization code without a verifier, restarting login", "reason", serviceerr.ErrStateLost.Err)
		return g.login(cfg)
	}

	start := time.Now()
	tokens, err := g.tokens.Exchange(ctx, cfg, code, verifier)
	g.meters.recordExchange(ctx, time.Since(start), err)

	if err != nil {
		var exErr *serviceerr.TokenExchangeError
		if errors.As(err, &exErr) {
			slogctx.Warn(ctx, "Token endpoint rejected the authorization code, restarting login",
				"status", exErr.StatusCode,
				"provider_error", exErr.ProviderCode,
				"provider_error_description", exErr.Description,
			)
			return g.login(cfg)
		}

		return Decision{}, fmt.Errorf("exchanging authorization code: %w", err)
	}

	sessionOpts := cookieOptions(g.sessionCookie)
	if tokens.ExpiresIn > 0 {
		sessionOpts.MaxAge = tokens.ExpiresIn
	}

	slogctx.Info(ctx, "Exchanged the authorization code for tokens", "expires_in", tokens.ExpiresIn)

	return Decision{
		Outcome: OutcomeCallbackExchange,
		Response: BuildRedirect(
			callbackRedirectURL(cfg, rawQuery),
			BuildSetCookie(g.sessionCookie.Name, tokens.AccessToken, sessionOpts),
			DeleteSetCookie(g.verifierCookie.Name, cookieOptions(g.verifierCookie)),
		),
	}, nil
}

func (g *Gateway) login(cfg Config) (Decision, error) {
	pair, err := g.pkce.PKCE()
	if err != nil {
		return Decision{}, fmt.Errorf("generating pkce pair: %w", err)
	}

	return Decision{
		Outcome: OutcomeLoginRedirect,
		Response: BuildRedirect(
			loginURL(cfg, pair.Challenge, g.scope),
			BuildSetCookie(g.verifierCookie.Name, pair.Verifier, cookieOptions(g.verifierCookie)),
		),
	}, nil
}

func (g *Gateway) logout(cfg Config) Decision {
	return Decision{
		Outcome: OutcomeLogoutRedirect,
		Response: BuildRedirect(
			BuildLogoutURL(cfg),
			DeleteSetCookie(g.sessionCookie.Name, cookieOptions(g.sessionCookie)),
			DeleteSetCookie(g.verifierCookie.Name, cookieOptions(g.verifierCookie)),
		),
	}
}

func (g *Gateway) fallback(ctx context.Context, cause error) Decision {
	cfg, ok := g.configs.Cached()
	if !ok {
		slogctx.Error(ctx, "No gateway configuration available", "error", cause)
		return Decision{Outcome: OutcomeError, Response: BuildError()}
	}

	slogctx.Warn(ctx, "Request failed, falling back to login", "error", cause)

	d, err := g.login(cfg)
	if err != nil {
		slogctx.Error(ctx, "Failed to build the fallback login", "error", err)
		return Decision{Outcome: OutcomeError, Response: BuildError()}
	}

	return d
}

// callbackRedirectURL is the public root carrying every query parameter of
// the callback except the authorization code.
func callbackRedirectURL(cfg Config, rawQuery string) string {
	var kept []string
	for pair := range strings.SplitSeq(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if unescape(key) == queryCode {
			continue
		}
		kept = append(kept, pair)
	}

	location := publicRootURL(cfg)
	if len(kept) > 0 {
		location += "?" + strings.Join(kept, "&")
	}

	return location
}
