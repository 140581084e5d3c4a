// internal/browser/context.go
package browser

import (
	"context"
)

// CombineContext creates a new context that is canceled when either parentCtx
// or secondaryCtx is canceled. This is crucial for chromedp operations where
// parentCtx carries the CDP connection info (the session context) and
// secondaryCtx carries the operational deadline.
func CombineContext(parentCtx, secondaryCtx context.Context) (context.Context, context.CancelFunc) {
	// Derive from parentCtx to inherit values and its cancellation.
	combinedCtx, cancel := context.WithCancel(parentCtx)

	go func() {
		select {
		case <-secondaryCtx.Done():
			// If the secondary context is canceled, cancel the combined context.
			cancel()
		case <-combinedCtx.Done():
			// The combined context was already canceled (likely from the parent), so exit.
		}
	}()

	return combinedCtx, cancel
}
