package edge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/lambdacontext"

	slogctx "github.com/veqryn/slog-context"

	"github.com/mkmemoportal/auth-gateway/internal/gateway"
)

var ErrNoRecords = errors.New("event carries no records")

// Decider is satisfied by *gateway.Gateway.
type Decider interface {
	Handle(ctx context.Context, req gateway.Request) gateway.Decision
}

type Handler struct {
	gw Decider
}

func NewHandler(gw Decider) *Handler {
	return &Handler{gw: gw}
}

// Handle returns either the inbound request, unchanged, or a synthesized
// response. It fails only when the event has no records.
func (h *Handler) Handle(ctx context.Context, event Event) (json.RawMessage, error) {
	if len(event.Records) == 0 {
		return nil, ErrNoRecords
	}

	cf := event.Records[0].CF
	ctx = slogctx.With(ctx,
		"distribution_id", cf.Config.DistributionID,
		"edge_request_id", cf.Config.RequestID,
	)
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		ctx = slogctx.With(ctx, "aws_request_id", lc.AwsRequestID)
	}

	var req Request
	if err := json.Unmarshal(cf.Request, &req); err != nil {
		// An unreadable request is treated as one without credentials.
		slogctx.Warn(ctx, "Failed to decode the viewer request", "error", err)
	}

	ctx = slogctx.With(ctx, "method", req.Method, "uri", req.URI)

	decision := h.gw.Handle(ctx, gateway.Request{
		Method:      req.Method,
		URI:         req.URI,
		QueryString: req.QueryString,
		Header:      req.Headers.HTTPHeader(),
	})

	slogctx.Debug(ctx, "Handled viewer request", "outcome", decision.Outcome)

	if decision.Pass() && len(cf.Request) > 0 {
		return cf.Request, nil
	}

	resp := decision.Response
	if resp == nil {
		resp = gateway.BuildError()
	}

	out, err := json.Marshal(renderResponse(resp))
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}

	return out, nil
}

func renderResponse(resp *gateway.Response) Response {
	out := Response{
		Status:            strconv.Itoa(resp.Status),
		StatusDescription: http.StatusText(resp.Status),
		Headers:           HeadersFrom(resp.Header),
	}
	if resp.Status >= http.StatusBadRequest {
		out.Body = resp.Body
	}

	return out
}
