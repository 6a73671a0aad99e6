package plan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// audioExtensions are the file types enumerated by a snapshot.
var audioExtensions = map[string]bool{
	".wav":  true,
	".ogg":  true,
	".mp3":  true,
	".flac": true,
}

// FileInfo describes one audio file found on disk.
type FileInfo struct {
	// RelPath is the path relative to the audio directory, with forward
	// slashes.
	RelPath string
	Size    int64
}

// Snapshot is an immutable listing of the audio directory, captured once
// at plan-build time. Plans are computed against the snapshot and never
// re-query the filesystem, so planning and preview see the same state.
type Snapshot struct {
	root  string
	files map[string]FileInfo
}

// TakeSnapshot walks audioDir once and records every audio file keyed by
// filename. When the same filename appears in multiple folders the first
// in lexical walk order wins, matching manifest ID semantics.
func TakeSnapshot(audioDir string) (*Snapshot, error) {
	snap := &Snapshot{root: audioDir, files: make(map[string]FileInfo)}
	err := filepath.WalkDir(audioDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !audioExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		if _, seen := snap.files[d.Name()]; seen {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(audioDir, path)
		if err != nil {
			return err
		}
		snap.files[d.Name()] = FileInfo{
			RelPath: filepath.ToSlash(rel),
			Size:    info.Size(),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot audio directory: %w", err)
	}
	return snap, nil
}

// Root returns the audio directory the snapshot was taken from.
func (s *Snapshot) Root() string {
	return s.root
}

// Lookup returns the on-disk info for a sample ID.
func (s *Snapshot) Lookup(id string) (FileInfo, bool) {
	info, ok := s.files[id]
	return info, ok
}

// Abs resolves a snapshot-relative path against the audio directory.
func (s *Snapshot) Abs(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}

// IDs returns all filenames in sorted order.
func (s *Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.files))
	for id := range s.files {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of files captured.
func (s *Snapshot) Len() int {
	return len(s.files)
}
