// Package lifecycle starts and stops long-running components in dependency
// order.
package lifecycle

import "context"

// Component is a long-running part of the process.
type Component interface {
	// Start brings the component up. It must not block once the component
	// is serving.
	Start(ctx context.Context) error

	// Stop shuts the component down within the context deadline.
	Stop(ctx context.Context) error

	// Name identifies the component in logs and errors.
	Name() string
}
