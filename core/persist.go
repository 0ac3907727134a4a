package core

import "context"

// Persistence is the narrow contract to the external storage collaborator.
// The in-memory dataset is authoritative; Save is best-effort replication
// fired from the OnChange hook after every mutation, and a failed Save is
// logged and surfaced but never rolls the mutation back.
type Persistence interface {
	// Load returns the persisted state. The bool is false when the backend
	// holds no dataset yet.
	Load(ctx context.Context) (State, bool, error)

	// Save replaces the persisted state wholesale.
	Save(ctx context.Context, s State) error
}
