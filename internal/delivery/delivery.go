// Package delivery defines the contract every transport front-end
// (HTTP today) satisfies so main can start them uniformly.
package delivery

import "context"

// Delivery is a serving surface started by the application container.
type Delivery interface {
	// Serve blocks until the server stops or fails.
	Serve(ctx context.Context) error
}
