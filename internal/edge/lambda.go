package edge

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	slogctx "github.com/veqryn/slog-context"
)

// Start hands h to the Lambda runtime. It blocks for the lifetime of the
// execution environment.
func Start(ctx context.Context, h *Handler) {
	slogctx.Info(ctx, "Starting the edge handler")
	lambda.StartWithOptions(h.Handle, lambda.WithContext(ctx))
}
