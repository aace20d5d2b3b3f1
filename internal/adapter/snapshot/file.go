package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pscheid92/scorecast/internal/domain"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755

	// corruptSuffix names the copy kept of an unreadable snapshot before it is replaced.
	corruptSuffix = ".corrupt"
)

// FileStore keeps the Document as a single indented JSON file.
type FileStore struct {
	path string
}

var _ domain.SnapshotStore = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the snapshot. A missing or malformed file yields the default Document,
// which is written back immediately so the next start finds a valid snapshot.
func (s *FileStore) Load(ctx context.Context) (domain.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.InfoContext(ctx, "No snapshot found, seeding default document", "path", s.path)
		return s.seed(ctx)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.WarnContext(ctx, "Snapshot is malformed, seeding default document", "path", s.path, "error", err)
		if err := s.keepCorrupt(data); err != nil {
			slog.WarnContext(ctx, "Failed to keep copy of malformed snapshot", "path", s.path, "error", err)
		}
		return s.seed(ctx)
	}

	return doc, nil
}

// Save replaces the snapshot. The file is written next to the target and renamed
// over it, so readers never observe a partially written snapshot.
func (s *FileStore) Save(ctx context.Context, doc domain.Document) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("write snapshot %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) seed(ctx context.Context) (domain.Document, error) {
	doc := domain.DefaultDocument()
	if err := s.Save(ctx, doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

func (s *FileStore) keepCorrupt(data []byte) error {
	return writeFileAtomic(s.path+corruptSuffix, data)
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
