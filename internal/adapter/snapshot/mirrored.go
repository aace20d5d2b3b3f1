package snapshot

import (
	"context"
	"log/slog"

	"github.com/pscheid92/scorecast/internal/domain"
)

// Mirror receives a copy of every snapshot. It is never read back.
type Mirror interface {
	Save(ctx context.Context, doc domain.Document) error
}

// Mirrored persists to a primary store and copies every snapshot to a mirror.
// Only the primary decides whether a save succeeded.
type Mirrored struct {
	primary domain.SnapshotStore
	mirror  Mirror
}

var _ domain.SnapshotStore = (*Mirrored)(nil)

func NewMirrored(primary domain.SnapshotStore, mirror Mirror) *Mirrored {
	return &Mirrored{primary: primary, mirror: mirror}
}

// Load reads the primary and refreshes the mirror with what was loaded.
func (m *Mirrored) Load(ctx context.Context) (domain.Document, error) {
	doc, err := m.primary.Load(ctx)
	if err != nil {
		return domain.Document{}, err
	}
	m.copyToMirror(ctx, doc)
	return doc, nil
}

func (m *Mirrored) Save(ctx context.Context, doc domain.Document) error {
	if err := m.primary.Save(ctx, doc); err != nil {
		return err
	}
	m.copyToMirror(ctx, doc)
	return nil
}

func (m *Mirrored) copyToMirror(ctx context.Context, doc domain.Document) {
	if err := m.mirror.Save(ctx, doc); err != nil {
		slog.WarnContext(ctx, "Snapshot mirror write failed", "error", err)
	}
}
