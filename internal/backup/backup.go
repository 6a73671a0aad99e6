// Package backup snapshots every file a plan will touch before the
// executor is allowed to modify the dataset. Backups are plain directory
// trees a user can restore from with cp; nothing here ever deletes one.
package backup

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kenafu/voice-dataset-organizer/internal/fileutil"
	"github.com/kenafu/voice-dataset-organizer/internal/logging"
	"github.com/kenafu/voice-dataset-organizer/internal/plan"
)

// statfs is swapped out in tests to simulate a full disk.
var statfs = unix.Statfs

// Error wraps any failure during backup creation. The executor treats it
// as fatal: no destructive action runs after a failed backup.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backup failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Backup describes one completed backup directory.
type Backup struct {
	// Dir is the absolute path of the backup directory.
	Dir string
	// Files are the dataset-relative paths copied into Dir.
	Files     []string
	CreatedAt time.Time
}

// Manager creates backups under a fixed root directory.
type Manager struct {
	root   string
	logger *slog.Logger
}

func NewManager(root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{root: root, logger: logger.With(logging.String(logging.FieldComponent, "backup"))}
}

// Create copies every file the plan moves, deletes, or quarantines, plus
// the manifest itself, into backup_<timestamp>_<runid8>/ under the
// manager's root, preserving paths relative to the audio directory. The
// copy of each file is verified by size and SHA-256. Any failure leaves
// the dataset untouched and aborts the caller's apply.
func (m *Manager) Create(snap *plan.Snapshot, manifestPath string, p *plan.Plan, runID string, now time.Time) (*Backup, error) {
	affected := affectedPaths(p)

	var required int64
	for _, rel := range affected {
		id := filepath.Base(rel)
		info, ok := snap.Lookup(id)
		if !ok {
			return nil, &Error{Err: fmt.Errorf("planned file %s vanished from snapshot", rel)}
		}
		required += info.Size
	}
	manifestInfo, err := os.Stat(manifestPath)
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("stat manifest: %w", err)}
	}
	required += manifestInfo.Size()

	if err := m.checkFreeSpace(required); err != nil {
		return nil, &Error{Err: err}
	}

	shortID := runID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	dir := filepath.Join(m.root, fmt.Sprintf("backup_%s_%s", now.Format("20060102_150405"), shortID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Err: fmt.Errorf("create backup directory: %w", err)}
	}

	b := &Backup{Dir: dir, CreatedAt: now}
	for _, rel := range affected {
		src := snap.Abs(rel)
		dst := filepath.Join(dir, filepath.FromSlash(rel))
		if err := fileutil.CopyFileVerified(src, dst); err != nil {
			return nil, &Error{Err: fmt.Errorf("back up %s: %w", rel, err)}
		}
		b.Files = append(b.Files, rel)
	}

	manifestDst := filepath.Join(dir, filepath.Base(manifestPath))
	if err := fileutil.CopyFileVerified(manifestPath, manifestDst); err != nil {
		return nil, &Error{Err: fmt.Errorf("back up manifest: %w", err)}
	}
	b.Files = append(b.Files, filepath.Base(manifestPath))

	m.logger.Info("backup created",
		logging.String("dir", dir),
		logging.Int("files", len(b.Files)),
		logging.Int64("bytes", required))
	return b, nil
}

// QuarantinePath returns where a redundant file lands inside the backup
// directory. Quarantined files sit under quarantine/ so a restore can
// tell them apart from the pre-apply copies.
func (b *Backup) QuarantinePath(relPath string) string {
	return filepath.Join(b.Dir, "quarantine", filepath.FromSlash(relPath))
}

func (m *Manager) checkFreeSpace(required int64) error {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return fmt.Errorf("create backup root: %w", err)
	}
	var stat unix.Statfs_t
	if err := statfs(m.root, &stat); err != nil {
		return fmt.Errorf("statfs backup root: %w", err)
	}
	free := int64(stat.Bavail) * stat.Bsize
	if free < required {
		return fmt.Errorf("insufficient space for backup: need %d bytes, %d available", required, free)
	}
	return nil
}

// affectedPaths returns the source paths of destructive actions in plan
// order, deduplicated.
func affectedPaths(p *plan.Plan) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range p.DestructiveActions() {
		if a.FromPath == "" || seen[a.FromPath] {
			continue
		}
		seen[a.FromPath] = true
		out = append(out, a.FromPath)
	}
	return out
}
