package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/patrickmn/go-cache"

	slogctx "github.com/veqryn/slog-context"

	"github.com/mkmemoportal/auth-gateway/internal/config"
	"github.com/mkmemoportal/auth-gateway/internal/params"
	"github.com/mkmemoportal/auth-gateway/internal/serviceerr"
)

const (
	// freshKey expires with the refresh interval and triggers a reload.
	freshKey = "gateway-config"
	// lastGoodKey never expires and backs Cached.
	lastGoodKey = "gateway-config-last-good"
)

// ConfigProvider hands out the identity settings. Cached never performs I/O.
type ConfigProvider interface {
	Config(ctx context.Context) (Config, error)
	Cached() (Config, bool)
}

// ConfigLoader loads the identity settings from a parameter source on first
// use and keeps them for the configured refresh interval, or for the lifetime
// of the process when no interval is set. Once a load has succeeded, a failed
// reload keeps serving the last good configuration.
//
// Concurrent first loads are not coalesced. Each performs its own lookup and
// the last one to finish is stored; the values are identical.
type ConfigLoader struct {
	source   params.Source
	names    config.Parameters
	cache    *cache.Cache
	validate *validator.Validate
}

var _ ConfigProvider = (*ConfigLoader)(nil)

type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	refreshInterval time.Duration
}

// WithRefreshInterval expires a loaded configuration after d. Zero or a
// negative value keeps it forever.
func WithRefreshInterval(d time.Duration) LoaderOption {
	return func(o *loaderOptions) {
		o.refreshInterval = d
	}
}

func NewConfigLoader(source params.Source, names config.Parameters, opts ...LoaderOption) *ConfigLoader {
	var o loaderOptions
	for _, opt := range opts {
		opt(&o)
	}

	expiration := cache.NoExpiration
	if o.refreshInterval > 0 {
		expiration = o.refreshInterval
	}

	return &ConfigLoader{
		source: source,
		names:  names,
		// Expired entries are never returned by Get, so no janitor is needed.
		cache:    cache.New(expiration, 0),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (l *ConfigLoader) Config(ctx context.Context) (Config, error) {
	if v, ok := l.cache.Get(freshKey); ok {
		if cfg, ok := v.(Config); ok {
			return cfg, nil
		}
	}

	cfg, err := l.Refresh(ctx)
	if err != nil {
		last, ok := l.Cached()
		if !ok {
			return Config{}, err
		}

		slogctx.Warn(ctx, "Serving the previous gateway configuration", "error", err)
		return last, nil
	}

	return cfg, nil
}

// Refresh loads the configuration from the source and stores it. A failed
// load leaves the stored value untouched.
func (l *ConfigLoader) Refresh(ctx context.Context) (Config, error) {
	cfg, err := l.load(ctx)
	if err != nil {
		return Config{}, err
	}

	l.Set(cfg)
	slogctx.Info(ctx, "Loaded gateway configuration",
		"identity_domain", cfg.IdentityDomain,
		"public_domain", cfg.PublicDomain,
	)

	return cfg, nil
}

// Cached returns the last configuration that loaded successfully, even when
// the refresh interval has passed since.
func (l *ConfigLoader) Cached() (Config, bool) {
	v, ok := l.cache.Get(lastGoodKey)
	if !ok {
		return Config{}, false
	}

	cfg, ok := v.(Config)
	return cfg, ok
}

// Set stores cfg as if it had been loaded.
func (l *ConfigLoader) Set(cfg Config) {
	l.cache.SetDefault(freshKey, cfg)
	l.cache.Set(lastGoodKey, cfg, cache.NoExpiration)
}

// Flush forgets the stored configuration; the next call to Config reloads it.
func (l *ConfigLoader) Flush() {
	l.cache.Flush()
}

func (l *ConfigLoader) load(ctx context.Context) (Config, error) {
	values, err := l.source.GetParameters(ctx, l.names.Names())
	if err != nil {
		return Config{}, fmt.Errorf("loading gateway parameters: %w", err)
	}

	fields := []struct{ key, name string }{
		{key: "clientID", name: l.names.ClientID},
		{key: "identityDomain", name: l.names.IdentityDomain},
		{key: "publicDomain", name: l.names.PublicDomain},
	}

	raw := make(map[string]any, len(fields))
	var missing []string
	for _, f := range fields {
		v := values[f.name]
		if v == "" {
			missing = append(missing, f.name)
			continue
		}
		raw[f.key] = v
	}

	if len(missing) > 0 {
		return Config{}, &serviceerr.ConfigurationError{Missing: missing}
	}

	var cfg Config
	if err := mapstructure.Decode(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding gateway parameters: %w", err)
	}

	if err := l.validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", serviceerr.ErrConfiguration, err)
	}

	return cfg, nil
}
