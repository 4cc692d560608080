package params

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/smithy-go"

	slogctx "github.com/veqryn/slog-context"
)

// SSMAPI is the subset of the SSM client used by SSMSource.
type SSMAPI interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// SSMSource reads parameters from AWS Systems Manager Parameter Store.
// SecureString values are decrypted.
type SSMSource struct {
	client SSMAPI
}

var _ Source = (*SSMSource)(nil)

func NewSSMSource(client SSMAPI) *SSMSource {
	return &SSMSource{client: client}
}

func (s *SSMSource) GetParameters(ctx context.Context, names []string) (map[string]string, error) {
	out, err := s.client.GetParameters(ctx, &ssm.GetParametersInput{
		Names:          names,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			slogctx.Warn(ctx, "Parameter store rejected the lookup",
				"code", apiErr.ErrorCode(),
				"fault", apiErr.ErrorFault().String(),
			)
		}

		return nil, fmt.Errorf("getting parameters: %w", err)
	}

	if len(out.InvalidParameters) > 0 {
		slogctx.Warn(ctx, "Parameter store does not know some parameters", "names", out.InvalidParameters)
	}

	values := make(map[string]string, len(out.Parameters))
	for _, p := range out.Parameters {
		values[aws.ToString(p.Name)] = aws.ToString(p.Value)
	}

	return values, nil
}
