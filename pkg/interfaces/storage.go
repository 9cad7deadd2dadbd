package interfaces

import "context"

// Storage is the durable key/value store holding tokens, profiles and
// form drafts. Get reports ok=false for a missing key.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
