package commentary

import "context"

// Commentator writes a recap of a finished match.
type Commentator interface {
	Recap(ctx context.Context, s Summary) (string, error)
}
