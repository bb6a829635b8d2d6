package histogram

import "context"

// Sink is a durable histogram. Merge must either apply all of h or none of it.
type Sink interface {
	Name() string
	Merge(ctx context.Context, h Histogram) error
	Load(ctx context.Context) (Histogram, error)
}
