package cmdutils

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/openkcm/common-sdk/pkg/health"
	"github.com/stretchr/testify/assert"

	"github.com/mkmemoportal/auth-gateway/internal/config"
)

func TestCobraCommand(t *testing.T) {
	businessFunc := func(ctx context.Context, cfg *config.Config) error {
		return nil
	}

	wrapperFunc := func(ctx context.Context, fn BusinessFunc, cfg *config.Config) error {
		return fn(ctx, cfg)
	}

	t.Run("creates command with correct properties", func(t *testing.T) {
		cmd := CobraCommand("serve", "short desc", "long description", "v1.0.0", wrapperFunc, businessFunc)

		assert.Equal(t, "serve", cmd.Use)
		assert.Equal(t, "short desc", cmd.Short)
		assert.Equal(t, "long description", cmd.Long)
		assert.NotNil(t, cmd.RunE)
	})

	t.Run("RunE returns error when config loading fails", func(t *testing.T) {
		t.Chdir(t.TempDir())

		called := false
		wrapper := func(ctx context.Context, fn BusinessFunc, cfg *config.Config) error {
			called = true
			return errors.New("wrapper error")
		}

		cmd := CobraCommand("serve", "short", "long", "v1.0.0", wrapper, businessFunc)
		cmd.SetArgs([]string{})

		// No config file exists in the working directory.
		err := cmd.Execute()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "loading config")
		assert.False(t, called)
	})
}

func TestStatusListener(t *testing.T) {
	tests := []struct {
		name  string
		state health.State
	}{
		{
			name: "empty state",
			state: health.State{
				Status:     "up",
				CheckState: map[string]health.CheckState{},
			},
		},
		{
			name: "state with check states",
			state: health.State{
				Status: "degraded",
				CheckState: map[string]health.CheckState{
					"parameters": {Status: "up"},
					"idp":        {Status: "down", Result: errors.New("connection refused")},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				statusListener(t.Context(), tt.state)
			})
		})
	}
}

func TestHealthStatusTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, healthStatusTimeout)
}

func ExampleCobraCommand() {
	businessFunc := func(ctx context.Context, cfg *config.Config) error {
		fmt.Println("Running business logic")
		return nil
	}

	wrapperFunc := func(ctx context.Context, fn BusinessFunc, cfg *config.Config) error {
		fmt.Println("Wrapper function called")
		return fn(ctx, cfg)
	}

	cmd := CobraCommand(
		"example",
		"Example command",
		"This is an example of how to use CobraCommand",
		"v1.0.0",
		wrapperFunc,
		businessFunc,
	)

	fmt.Printf("Command use: %s\n", cmd.Use)
	// Output: Command use: example
}
