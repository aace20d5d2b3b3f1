package domain

import "context"

// SnapshotStore persists the full Document. Save always replaces the previous snapshot.
type SnapshotStore interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
}
