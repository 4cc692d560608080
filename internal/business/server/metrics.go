package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/otlp"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	slogctx "github.com/veqryn/slog-context"

	"github.com/mkmemoportal/auth-gateway/internal/config"
	"github.com/mkmemoportal/auth-gateway/internal/middleware/responsewriter"
)

const operationGateway = "gateway"

var (
	counter  metric.Int64Counter
	hist     metric.Int64Histogram
	sizeHist metric.Int64Histogram
)

func initMeters(ctx context.Context, cfg *config.Config) error {
	meter := otel.Meter(
		"mkmemoportal/"+cfg.Application.Name,
		metric.WithInstrumentationVersion(otel.Version()),
		metric.WithInstrumentationAttributes(otlp.CreateAttributesFrom(cfg.Application)...),
	)

	var err error

	counter, err = meter.Int64Counter(
		"http.request_count",
		metric.WithDescription("Incoming request count"),
		metric.WithUnit("request"),
	)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "creating request_count meter")
	}

	hist, err = meter.Int64Histogram(
		"http.duration",
		metric.WithDescription("Incoming end to end duration"),
		metric.WithUnit("milliseconds"),
	)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "creating duration meter")
	}

	sizeHist, err = meter.Int64Histogram(
		"http.response_size",
		metric.WithDescription("Response body size"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "creating response_size meter")
	}

	return nil
}

// newTraceMiddleware covers every request with a span, a request id on the
// log context, and the request meters.
func newTraceMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	traceAttrs := otlp.CreateAttributesFrom(cfg.Application, attribute.String(commoncfg.AttrOperation, operationGateway))
	tracer := otel.Tracer(operationGateway, trace.WithInstrumentationAttributes(traceAttrs...))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := slogctx.With(r.Context(),
				commoncfg.AttrRequestID, uuid.NewString(),
				commoncfg.AttrOperation, operationGateway,
				"method", r.Method,
				"path", r.URL.Path,
			)

			parentCtx := otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(parentCtx, operationGateway+"-span", trace.WithAttributes(traceAttrs...))
			defer span.End()

			requestStartTime := time.Now()

			defer func() {
				elapsedTime := time.Since(requestStartTime)

				status := http.StatusOK
				var written int64
				if rec, err := responsewriter.RecorderFromContext(ctx); err == nil {
					status = rec.Status()
					written = rec.BytesWritten()
				}

				attrs := metric.WithAttributes(
					otlp.CreateAttributesFrom(cfg.Application,
						attribute.String("userAgent", r.UserAgent()),
						attribute.String(commoncfg.AttrOperation, operationGateway),
						attribute.Int("status", status),
					)...,
				)

				if counter != nil {
					counter.Add(ctx, 1, attrs)
				}
				if hist != nil {
					hist.Record(ctx, elapsedTime.Milliseconds(), attrs)
				}
				if sizeHist != nil {
					sizeHist.Record(ctx, written, attrs)
				}

				span.SetAttributes(
					attribute.Int("http.status_code", status),
					attribute.Int64("http.response.body.size", written),
				)
			}()

			slogctx.Debug(ctx, fmt.Sprintf("Processing %s request", operationGateway))
			next.ServeHTTP(w, r.WithContext(ctx))
			slogctx.Debug(ctx, fmt.Sprintf("Finished %s request", operationGateway))
		})
	}
}
