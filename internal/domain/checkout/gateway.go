package checkout

import "context"

// Gateway wraps the external hosted-checkout provider.
type Gateway interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*Session, error)
	RetrieveSession(ctx context.Context, id string) (*Session, error)
}
