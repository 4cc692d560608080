package business

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/ssm"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	slogctx "github.com/veqryn/slog-context"

	"github.com/mkmemoportal/auth-gateway/internal/business/server"
	"github.com/mkmemoportal/auth-gateway/internal/config"
	"github.com/mkmemoportal/auth-gateway/internal/edge"
	"github.com/mkmemoportal/auth-gateway/internal/gateway"
	"github.com/mkmemoportal/auth-gateway/internal/params"
)

// Main runs the gateway as an HTTP server in front of the configured origin.
func Main(ctx context.Context, cfg *config.Config) error {
	gw, loader, err := initGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising the gateway: %w", err)
	}

	return serve(ctx, cfg, gw, loader)
}

// serve runs the HTTP server and, when configured, the config refresher
// until ctx ends or one of them fails. The first failure is returned.
func serve(ctx context.Context, cfg *config.Config, gw server.Decider, loader configRefresher) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// errChan is used to capture the first error and shutdown the server.
	errChan := make(chan error, 2)

	var wg sync.WaitGroup

	wg.Go(func() {
		errChan <- server.StartHTTPServer(ctx, cfg, gw)
	})

	if cfg.Gateway.ConfigRefreshInterval > 0 {
		wg.Go(func() {
			errChan <- startConfigRefresher(ctx, loader, cfg.Gateway.ConfigRefreshInterval)
		})
	}

	err := <-errChan
	if err != nil {
		slogctx.Error(ctx, "Shutting down the gateway", "error", err)
	}
	cancel()

	wg.Wait()

	return err
}

// LambdaMain hands the gateway to the Lambda runtime as an edge
// viewer-request handler.
func LambdaMain(ctx context.Context, cfg *config.Config) error {
	gw, loader, err := initGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising the gateway: %w", err)
	}

	// Loading during init keeps the first request off the parameter store.
	// A failure here is retried by the first request.
	if _, err := loader.Config(ctx); err != nil {
		slogctx.Warn(ctx, "Failed to preload the gateway configuration", "error", err)
	}

	edge.Start(ctx, edge.NewHandler(gw))

	return nil
}

func initGateway(ctx context.Context, cfg *config.Config) (*gateway.Gateway, *gateway.ConfigLoader, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Gateway.ParameterRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Gateway.ParameterRegion))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("loading aws config: %w", err)
	}

	source := params.NewSSMSource(ssm.NewFromConfig(awsCfg))

	return newGateway(cfg, source, loadHTTPClient(cfg))
}

func newGateway(cfg *config.Config, source params.Source, httpClient *http.Client) (*gateway.Gateway, *gateway.ConfigLoader, error) {
	loader := gateway.NewConfigLoader(
		source,
		cfg.Gateway.Parameters,
		gateway.WithRefreshInterval(cfg.Gateway.ConfigRefreshInterval),
	)

	gw, err := gateway.New(&cfg.Gateway, loader, gateway.NewTokenClient(httpClient))
	if err != nil {
		return nil, nil, fmt.Errorf("creating gateway: %w", err)
	}

	return gw, loader, nil
}

// loadHTTPClient returns the client for the token endpoint. The endpoint is
// called as a public client, so no client authentication is configured.
func loadHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{
		Timeout: cfg.Gateway.TokenExchangeTimeout,
	}
}
