// Package plan computes the ordered, reviewable set of dataset mutations
// reconciling the manifest, the classification report, duplicate
// clusters, and the on-disk file listing. Building a plan mutates
// nothing; identical inputs always produce an identical plan.
package plan

import "fmt"

// Kind enumerates plan action types.
type Kind string

const (
	// KindMove relocates an audio file into the folder named after its
	// classified emotion.
	KindMove Kind = "move"
	// KindDelete removes a file permanently.
	KindDelete Kind = "delete"
	// KindQuarantine moves a redundant file into the apply run's
	// quarantine folder instead of deleting it.
	KindQuarantine Kind = "quarantine"
	// KindManifestUpdate rewrites or removes the sample's manifest entry.
	// Manifest updates always follow the file actions they mirror.
	KindManifestUpdate Kind = "update-manifest"
	// KindNone records a reviewed sample that needs no change.
	KindNone Kind = "no-op"
)

// Action is a single planned mutation.
type Action struct {
	Kind     Kind   `json:"kind"`
	SampleID string `json:"sample_id"`
	// FromPath is the current audio-relative file path for move, delete,
	// and quarantine actions.
	FromPath string `json:"from_path,omitempty"`
	// ToFolder is the destination folder for moves and manifest
	// relocations.
	ToFolder string `json:"to_folder,omitempty"`
	// Remove marks manifest updates that drop the entry entirely.
	Remove bool `json:"remove,omitempty"`
	// Reason explains why the action was planned.
	Reason string `json:"reason,omitempty"`
}

// ReferenceKind classifies an inconsistency between the three inputs.
type ReferenceKind string

const (
	// RefMissingFile marks manifest entries whose audio file is absent
	// from the snapshot.
	RefMissingFile ReferenceKind = "missing-file"
	// RefReportOnly marks classification records without a manifest
	// entry.
	RefReportOnly ReferenceKind = "report-only"
	// RefUntrackedFile marks on-disk audio files absent from the
	// manifest.
	RefUntrackedFile ReferenceKind = "untracked-file"
	// RefUnrecognizedLabel marks report rows whose emotion is outside the
	// configured label set.
	RefUnrecognizedLabel ReferenceKind = "unrecognized-label"
)

// InconsistentReference reports a divergence between manifest, report,
// and filesystem. References are attached to the plan for review; they
// never abort planning.
type InconsistentReference struct {
	Kind     ReferenceKind `json:"kind"`
	SampleID string        `json:"sample_id"`
	Detail   string        `json:"detail"`
}

func (r InconsistentReference) String() string {
	return fmt.Sprintf("%s: %s: %s", r.Kind, r.SampleID, r.Detail)
}

// Plan is the ordered action list plus review findings.
type Plan struct {
	Actions         []Action                `json:"actions"`
	Inconsistencies []InconsistentReference `json:"inconsistencies,omitempty"`
}

// Counts summarizes a plan per action kind.
type Counts struct {
	Moves            int `json:"moves"`
	Deletes          int `json:"deletes"`
	Quarantines      int `json:"quarantines"`
	ManifestUpdates  int `json:"manifest_updates"`
	NoOps            int `json:"no_ops"`
	Inconsistencies  int `json:"inconsistencies"`
	DestructiveTotal int `json:"destructive_total"`
}

// Counts tallies the plan's actions.
func (p *Plan) Counts() Counts {
	c := Counts{Inconsistencies: len(p.Inconsistencies)}
	for _, action := range p.Actions {
		switch action.Kind {
		case KindMove:
			c.Moves++
		case KindDelete:
			c.Deletes++
		case KindQuarantine:
			c.Quarantines++
		case KindManifestUpdate:
			c.ManifestUpdates++
		case KindNone:
			c.NoOps++
		}
	}
	c.DestructiveTotal = c.Moves + c.Deletes + c.Quarantines
	return c
}

// DestructiveActions returns the move/delete/quarantine actions in plan
// order; these are the actions requiring backup before execution.
func (p *Plan) DestructiveActions() []Action {
	var out []Action
	for _, action := range p.Actions {
		switch action.Kind {
		case KindMove, KindDelete, KindQuarantine:
			out = append(out, action)
		}
	}
	return out
}

// IsNoop reports whether the plan contains no mutations at all.
func (p *Plan) IsNoop() bool {
	counts := p.Counts()
	return counts.DestructiveTotal == 0 && counts.ManifestUpdates == 0
}
