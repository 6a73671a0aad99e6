package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const fieldCount = 4

// Sample is one audio unit enumerated by the manifest.
type Sample struct {
	// ID is the audio filename (basename of Path), unique per manifest.
	ID string
	// Path is the audio file path as written in the manifest, relative to
	// the dataset's audio directory. Uses forward slashes regardless of
	// platform.
	Path     string
	Speaker  string
	Language string
	Text     string

	// raw holds the original line bytes for round-trip stability; empty
	// for entries constructed or modified in memory.
	raw string
}

// Folder returns the directory portion of the manifest path, or "" for
// samples sitting at the audio root.
func (s Sample) Folder() string {
	dir := path.Dir(normalizeSlashes(s.Path))
	if dir == "." || dir == "/" {
		return ""
	}
	return strings.Trim(dir, "/")
}

// Relocate returns a copy of the sample placed in folder, invalidating the
// cached raw line so serialization reflects the new path.
func (s Sample) Relocate(folder string) Sample {
	out := s
	if folder == "" {
		out.Path = s.ID
	} else {
		out.Path = folder + "/" + s.ID
	}
	out.raw = ""
	return out
}

// Line renders the sample in manifest format. Unmodified samples reproduce
// their original bytes.
func (s Sample) Line() string {
	if s.raw != "" {
		return s.raw
	}
	return strings.Join([]string{s.Path, s.Speaker, s.Language, s.Text}, "|")
}

// ParseError describes a malformed manifest line.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("manifest line %d: %s", e.Line, e.Reason)
}

// Manifest is the ordered, authoritative enumeration of the dataset.
type Manifest struct {
	samples []Sample
	index   map[string]int
}

// Samples returns the entries in manifest order. The slice is shared;
// callers must not mutate it.
func (m *Manifest) Samples() []Sample {
	return m.samples
}

// Len returns the number of samples.
func (m *Manifest) Len() int {
	return len(m.samples)
}

// Lookup returns the sample with the given ID.
func (m *Manifest) Lookup(id string) (Sample, bool) {
	i, ok := m.index[id]
	if !ok {
		return Sample{}, false
	}
	return m.samples[i], true
}

// Parse reads a manifest. Malformed lines and duplicate IDs are skipped
// and reported as *ParseError values; only I/O failures abort the parse.
func Parse(r io.Reader) (*Manifest, []*ParseError, error) {
	m := &Manifest{index: make(map[string]int)}
	var warnings []*ParseError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		sample, perr := parseLine(line, lineNo)
		if perr != nil {
			warnings = append(warnings, perr)
			continue
		}
		if _, exists := m.index[sample.ID]; exists {
			warnings = append(warnings, &ParseError{Line: lineNo, Reason: fmt.Sprintf("duplicate sample id %q", sample.ID)})
			continue
		}
		m.index[sample.ID] = len(m.samples)
		m.samples = append(m.samples, sample)
	}
	if err := scanner.Err(); err != nil {
		return nil, warnings, fmt.Errorf("read manifest: %w", err)
	}
	return m, warnings, nil
}

func parseLine(line string, lineNo int) (Sample, *ParseError) {
	parts := strings.SplitN(line, "|", fieldCount)
	if len(parts) != fieldCount {
		return Sample{}, &ParseError{Line: lineNo, Reason: fmt.Sprintf("expected %d |-separated fields, found %d", fieldCount, len(parts))}
	}
	rawPath := normalizeSlashes(strings.TrimSpace(parts[0]))
	if rawPath == "" {
		return Sample{}, &ParseError{Line: lineNo, Reason: "empty audio path"}
	}
	id := path.Base(rawPath)
	if id == "." || id == "/" {
		return Sample{}, &ParseError{Line: lineNo, Reason: fmt.Sprintf("audio path %q has no filename", rawPath)}
	}
	return Sample{
		ID:       id,
		Path:     rawPath,
		Speaker:  parts[1],
		Language: parts[2],
		Text:     parts[3],
		raw:      line,
	}, nil
}

func normalizeSlashes(p string) string {
	return strings.Trim(strings.ReplaceAll(p, "\\", "/"), "/")
}

// Load parses the manifest at path.
func Load(path string) (*Manifest, []*ParseError, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Serialize writes the manifest, one sample per line.
func (m *Manifest) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, sample := range m.samples {
		if _, err := bw.WriteString(sample.Line()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile serializes the manifest to path atomically via a temp file and
// rename, so a crash mid-write never leaves a truncated manifest.
func (m *Manifest) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := m.Serialize(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp manifest: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// Rewrite produces a new manifest applying the given mutations in manifest
// order: IDs present in remove are dropped, IDs present in relocate are
// moved to the mapped folder. Untouched samples keep their original bytes.
func (m *Manifest) Rewrite(remove map[string]bool, relocate map[string]string) *Manifest {
	out := &Manifest{index: make(map[string]int)}
	for _, sample := range m.samples {
		if remove[sample.ID] {
			continue
		}
		if folder, ok := relocate[sample.ID]; ok && folder != sample.Folder() {
			sample = sample.Relocate(folder)
		}
		out.index[sample.ID] = len(out.samples)
		out.samples = append(out.samples, sample)
	}
	return out
}
