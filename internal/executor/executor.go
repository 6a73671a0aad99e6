// Package executor applies a reorganization plan to the dataset. The
// apply is transactional in ordering, not atomicity: a full backup is
// taken before the first destructive action, individual action failures
// are isolated, and the manifest is rewritten last to reflect only the
// actions that actually succeeded.
package executor

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kenafu/voice-dataset-organizer/internal/backup"
	"github.com/kenafu/voice-dataset-organizer/internal/fileutil"
	"github.com/kenafu/voice-dataset-organizer/internal/logging"
	"github.com/kenafu/voice-dataset-organizer/internal/manifest"
	"github.com/kenafu/voice-dataset-organizer/internal/plan"
)

// State is the executor's lifecycle position. Transitions only move
// forward: Planned → BackingUp → Applying → Completed.
type State string

const (
	StatePlanned   State = "planned"
	StateBackingUp State = "backing-up"
	StateApplying  State = "applying"
	StateCompleted State = "completed"
)

// Completion qualifies a completed run.
type Completion string

const (
	// CompletionFull: every planned action succeeded.
	CompletionFull Completion = "full"
	// CompletionPartial: some actions failed or were cancelled; the
	// manifest reflects only the successes.
	CompletionPartial Completion = "partial"
	// CompletionAborted: the backup failed, so nothing was touched.
	CompletionAborted Completion = "aborted"
)

// OutcomeStatus is the result of one planned action.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeSkipped   OutcomeStatus = "skipped"
)

// Outcome pairs an action with what happened when it ran.
type Outcome struct {
	Action plan.Action   `json:"action"`
	Status OutcomeStatus `json:"status"`
	Error  string        `json:"error,omitempty"`
}

// Report is the audit record of one apply. It is what `vdo apply --json`
// prints and what the run history persists.
type Report struct {
	RunID      string     `json:"run_id"`
	State      State      `json:"state"`
	Completion Completion `json:"completion"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	BackupDir  string     `json:"backup_dir,omitempty"`
	Outcomes   []Outcome  `json:"outcomes"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	Skipped    int        `json:"skipped"`
	Error      string     `json:"error,omitempty"`
}

// Executor runs plans against one dataset.
type Executor struct {
	snap         *plan.Snapshot
	manifestPath string
	backups      *backup.Manager
	logger       *slog.Logger
	now          func() time.Time
}

func New(snap *plan.Snapshot, manifestPath string, backups *backup.Manager, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		snap:         snap,
		manifestPath: manifestPath,
		backups:      backups,
		logger:       logger.With(logging.String(logging.FieldComponent, "executor")),
		now:          time.Now,
	}
}

// Apply executes the plan. The returned report is never nil; a non-nil
// error means the run aborted before any destructive action.
func (e *Executor) Apply(ctx context.Context, m *manifest.Manifest, p *plan.Plan) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		State:     StatePlanned,
		StartedAt: e.now(),
	}
	log := e.logger.With(logging.String("run_id", report.RunID))

	if p.IsNoop() {
		report.State = StateCompleted
		report.Completion = CompletionFull
		report.FinishedAt = e.now()
		log.Info("plan is a no-op, nothing to apply")
		return report, nil
	}

	report.State = StateBackingUp
	bkp, err := e.backups.Create(e.snap, e.manifestPath, p, report.RunID, report.StartedAt)
	if err != nil {
		report.State = StateCompleted
		report.Completion = CompletionAborted
		report.Error = err.Error()
		report.FinishedAt = e.now()
		log.Error("backup failed, apply aborted", logging.Error(err))
		return report, err
	}
	report.BackupDir = bkp.Dir

	report.State = StateApplying
	remove := make(map[string]bool)
	relocate := make(map[string]string)
	fileFailed := make(map[string]bool)
	cancelled := false

	for _, action := range p.Actions {
		if !cancelled && ctx.Err() != nil {
			cancelled = true
			log.Warn("apply cancelled, remaining actions skipped", logging.Error(ctx.Err()))
		}

		outcome := Outcome{Action: action, Status: OutcomeSucceeded}
		switch {
		case action.Kind == plan.KindNone:
			outcome.Status = OutcomeSkipped
		case cancelled:
			outcome.Status = OutcomeSkipped
			outcome.Error = "run cancelled"
		case action.Kind == plan.KindManifestUpdate:
			if fileFailed[action.SampleID] {
				outcome.Status = OutcomeSkipped
				outcome.Error = "file action failed, manifest entry preserved"
				break
			}
			if action.Remove {
				remove[action.SampleID] = true
			} else {
				relocate[action.SampleID] = action.ToFolder
			}
		default:
			if err := e.applyFileAction(action, bkp); err != nil {
				outcome.Status = OutcomeFailed
				outcome.Error = err.Error()
				fileFailed[action.SampleID] = true
				log.Error("action failed",
					logging.String("kind", string(action.Kind)),
					logging.String("sample", action.SampleID),
					logging.Error(err))
			}
		}

		switch outcome.Status {
		case OutcomeSucceeded:
			report.Succeeded++
		case OutcomeFailed:
			report.Failed++
		case OutcomeSkipped:
			report.Skipped++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	if len(remove) > 0 || len(relocate) > 0 {
		updated := m.Rewrite(remove, relocate)
		if err := updated.WriteFile(e.manifestPath); err != nil {
			report.Failed++
			report.Error = fmt.Sprintf("rewrite manifest: %v", err)
			log.Error("manifest rewrite failed", logging.Error(err))
		}
	}

	e.sweepEmptyDirs()

	report.State = StateCompleted
	if report.Failed == 0 && !cancelled && report.Error == "" {
		report.Completion = CompletionFull
	} else {
		report.Completion = CompletionPartial
	}
	report.FinishedAt = e.now()
	log.Info("apply finished",
		logging.String("completion", string(report.Completion)),
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", report.Failed),
		logging.Int("skipped", report.Skipped))
	return report, nil
}

func (e *Executor) applyFileAction(action plan.Action, bkp *backup.Backup) error {
	src := e.snap.Abs(action.FromPath)
	switch action.Kind {
	case plan.KindMove:
		dst := filepath.Join(e.snap.Root(), filepath.FromSlash(action.ToFolder), action.SampleID)
		return fileutil.MoveFile(src, dst)
	case plan.KindDelete:
		return os.Remove(src)
	case plan.KindQuarantine:
		return fileutil.MoveFile(src, bkp.QuarantinePath(action.FromPath))
	default:
		return fmt.Errorf("unexpected action kind %q", action.Kind)
	}
}

// sweepEmptyDirs removes emotion folders left empty by moves and deletes.
// Best effort: failures are logged and ignored.
func (e *Executor) sweepEmptyDirs() {
	var dirs []string
	err := filepath.WalkDir(e.snap.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != e.snap.Root() {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return
	}
	// Deepest first so emptied parents go too.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			e.logger.Debug("empty directory sweep", logging.String("dir", dir), logging.Error(err))
		}
	}
}
