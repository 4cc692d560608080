package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"

	slogctx "github.com/veqryn/slog-context"

	"github.com/mkmemoportal/auth-gateway/internal/config"
	"github.com/mkmemoportal/auth-gateway/internal/gateway"
	"github.com/mkmemoportal/auth-gateway/internal/middleware/responsewriter"
)

const readHeaderTimeout = 10 * time.Second

// Decider is satisfied by *gateway.Gateway.
type Decider interface {
	Handle(ctx context.Context, req gateway.Request) gateway.Decision
}

// createHTTPServer creates the gateway http server using the given config.
// Authenticated requests go to the configured origin; without one they are
// answered with 204, which lets the server act as an auth subrequest target.
func createHTTPServer(_ context.Context, cfg *config.Config, gw Decider) (*http.Server, error) {
	var next http.Handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if cfg.HTTP.Origin != "" {
		proxy, err := newOriginProxy(cfg.HTTP.Origin)
		if err != nil {
			return nil, err
		}
		next = proxy
	}

	handler := gatewayMiddleware(gw, next)
	handler = newTraceMiddleware(cfg)(handler)
	handler = responsewriter.Middleware(handler)

	return &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}, nil
}

func newOriginProxy(origin string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parsing origin url: %w", err)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slogctx.Error(r.Context(), "Failed to reach the origin", "error", err)
			w.WriteHeader(http.StatusBadGateway)
		},
	}, nil
}

// gatewayMiddleware lets a request through to next only when the gateway
// passes it; otherwise the gateway's response is written instead.
func gatewayMiddleware(gw Decider, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := gw.Handle(r.Context(), gateway.Request{
			Method:      r.Method,
			URI:         r.URL.Path,
			QueryString: r.URL.RawQuery,
			Header:      r.Header,
		})

		if decision.Pass() {
			next.ServeHTTP(w, r)
			return
		}

		writeResponse(w, decision.Response)
	})
}

func writeResponse(w http.ResponseWriter, resp *gateway.Response) {
	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}

	w.WriteHeader(resp.Status)
	if resp.Body != "" {
		_, _ = io.WriteString(w, resp.Body)
	}
}

// StartHTTPServer starts the HTTP server using the given config.
func StartHTTPServer(ctx context.Context, cfg *config.Config, gw Decider) error {
	if err := initMeters(ctx, cfg); err != nil {
		return err
	}

	server, err := createHTTPServer(ctx, cfg, gw)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "Failed to create the HTTP server")
	}

	slogctx.Info(ctx, "Starting a listener", "address", server.Addr)

	// An address of the form network://address selects the network, which
	// allows binding to a unix socket. Otherwise tcp is used.
	network := "tcp"
	if n, addr, ok := strings.Cut(server.Addr, "://"); ok && !strings.Contains(n, ":") {
		network = n
		server.Addr = addr
	}

	listener, err := new(net.ListenConfig).Listen(ctx, network, server.Addr)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "Failed to create a listener")
	}

	slogctx.Info(ctx, "A listener started", "address", listener.Addr().String())

	go func() {
		slogctx.Info(ctx, "Serving an HTTP server", "address", listener.Addr().String())
		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogctx.Error(ctx, "Failed to serve an HTTP server", "error", err)
		}

		slogctx.Info(ctx, "Stopped an HTTP server")
	}()

	<-ctx.Done()

	shutdownCtx, shutdownRelease := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer shutdownRelease()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "Failed shutting down HTTP server")
	}

	slogctx.Info(ctx, "Completed graceful shutdown of HTTP server")

	return nil
}
