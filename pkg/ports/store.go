package ports

import "context"

// Store persists one value per conversation ID. Implementations must isolate
// stored values from the caller (copy on write and read).
type Store[T any] interface {
	// Save persists the value for a conversation.
	Save(ctx context.Context, id string, value T) error

	// Load retrieves the value for a conversation.
	// Returns domain.ErrNotFound if nothing is stored.
	Load(ctx context.Context, id string) (T, error)

	// Delete removes the value. Deleting a missing entry is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the conversation IDs with a stored value.
	List(ctx context.Context) ([]string, error)
}
