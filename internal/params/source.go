// Package params reads the gateway's identity settings from an external
// key-value parameter store.
package params

import "context"

// Source resolves a batch of parameter names in a single lookup. Names the
// store does not know are left out of the returned map; it is up to the
// caller to decide whether that is fatal.
type Source interface {
	GetParameters(ctx context.Context, names []string) (map[string]string, error)
}
