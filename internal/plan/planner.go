package plan

import (
	"fmt"
	"path"

	"github.com/kenafu/voice-dataset-organizer/internal/classification"
	"github.com/kenafu/voice-dataset-organizer/internal/dedup"
	"github.com/kenafu/voice-dataset-organizer/internal/manifest"
	"github.com/kenafu/voice-dataset-organizer/internal/textutil"
)

// LabelPolicy is the closed emotion label set the planner validates
// against.
type LabelPolicy struct {
	Allowed []string
	// Fallback replaces empty labels on usable rows.
	Fallback string
}

func (p LabelPolicy) allows(label string) bool {
	for _, allowed := range p.Allowed {
		if allowed == label {
			return true
		}
	}
	return false
}

// Inputs are the four sources a plan is computed from. Build never
// mutates them.
type Inputs struct {
	Manifest *manifest.Manifest
	// Report may be nil when only deduplication is requested.
	Report   *classification.Report
	Clusters []dedup.Cluster
	Snapshot *Snapshot
	Labels   LabelPolicy
	// RedundantAction is KindQuarantine or KindDelete and decides what
	// happens to non-keep duplicate members.
	RedundantAction Kind
}

// Build computes the plan. Iteration follows manifest order throughout,
// so repeated builds over unchanged inputs yield identical plans.
func Build(in Inputs) *Plan {
	p := &Plan{}

	redundant := make(map[string]string, len(in.Clusters))
	for _, cluster := range in.Clusters {
		for _, id := range cluster.Redundant {
			redundant[id] = cluster.Keep
		}
	}

	redundantAction := in.RedundantAction
	if redundantAction != KindDelete {
		redundantAction = KindQuarantine
	}

	type manifestUpdate struct {
		id     string
		folder string
		remove bool
		reason string
	}
	var updates []manifestUpdate

	for _, sample := range in.Manifest.Samples() {
		onDisk, present := in.Snapshot.Lookup(sample.ID)
		record := in.Report.Get(sample.ID)

		// Duplicate removal takes precedence over any classification
		// action: a redundant file goes away even if also reclassified.
		if keep, isRedundant := redundant[sample.ID]; isRedundant {
			if !present {
				p.Inconsistencies = append(p.Inconsistencies, InconsistentReference{
					Kind:     RefMissingFile,
					SampleID: sample.ID,
					Detail:   fmt.Sprintf("manifest path %s not found on disk; duplicate removal skipped", sample.Path),
				})
				continue
			}
			reason := fmt.Sprintf("content duplicate of %s", keep)
			p.Actions = append(p.Actions, Action{
				Kind:     redundantAction,
				SampleID: sample.ID,
				FromPath: onDisk.RelPath,
				Reason:   reason,
			})
			updates = append(updates, manifestUpdate{id: sample.ID, remove: true, reason: reason})
			continue
		}

		switch record.Status {
		case classification.StatusSkipped:
			p.Actions = append(p.Actions, Action{Kind: KindNone, SampleID: sample.ID, Reason: "no classification record"})
			continue
		case classification.StatusError:
			p.Actions = append(p.Actions, Action{Kind: KindNone, SampleID: sample.ID, Reason: "classification failed; insufficient data"})
			continue
		}

		if !present {
			p.Inconsistencies = append(p.Inconsistencies, InconsistentReference{
				Kind:     RefMissingFile,
				SampleID: sample.ID,
				Detail:   fmt.Sprintf("manifest path %s not found on disk", sample.Path),
			})
			continue
		}

		if !record.Usable {
			reason := record.Reason
			if reason == "" {
				reason = "classified unusable"
			}
			p.Actions = append(p.Actions, Action{
				Kind:     KindDelete,
				SampleID: sample.ID,
				FromPath: onDisk.RelPath,
				Reason:   reason,
			})
			updates = append(updates, manifestUpdate{id: sample.ID, remove: true, reason: reason})
			continue
		}

		label := textutil.SanitizeLabel(record.Emotion)
		if label == "" {
			label = in.Labels.Fallback
		}
		if !in.Labels.allows(label) {
			p.Inconsistencies = append(p.Inconsistencies, InconsistentReference{
				Kind:     RefUnrecognizedLabel,
				SampleID: sample.ID,
				Detail:   fmt.Sprintf("emotion %q is outside the configured label set", record.Emotion),
			})
			p.Actions = append(p.Actions, Action{Kind: KindNone, SampleID: sample.ID, Reason: "unrecognized label"})
			continue
		}

		currentFolder := path.Dir(onDisk.RelPath)
		if currentFolder == "." {
			currentFolder = ""
		}
		if currentFolder == label && sample.Folder() == label {
			p.Actions = append(p.Actions, Action{Kind: KindNone, SampleID: sample.ID, Reason: "placement verified"})
			continue
		}

		reason := fmt.Sprintf("classified as %s", label)
		if currentFolder != label {
			p.Actions = append(p.Actions, Action{
				Kind:     KindMove,
				SampleID: sample.ID,
				FromPath: onDisk.RelPath,
				ToFolder: label,
				Reason:   reason,
			})
		}
		if sample.Folder() != label {
			updates = append(updates, manifestUpdate{id: sample.ID, folder: label, reason: reason})
		}
	}

	// Manifest updates run after every file action so the manifest never
	// references a path before the file exists there.
	for _, update := range updates {
		p.Actions = append(p.Actions, Action{
			Kind:     KindManifestUpdate,
			SampleID: update.id,
			ToFolder: update.folder,
			Remove:   update.remove,
			Reason:   update.reason,
		})
	}

	// Report rows with no manifest entry.
	for _, id := range in.Report.IDs() {
		if _, ok := in.Manifest.Lookup(id); !ok {
			p.Inconsistencies = append(p.Inconsistencies, InconsistentReference{
				Kind:     RefReportOnly,
				SampleID: id,
				Detail:   "classification record has no manifest entry",
			})
		}
	}

	// On-disk files the manifest does not enumerate.
	for _, id := range in.Snapshot.IDs() {
		if _, ok := in.Manifest.Lookup(id); !ok {
			info, _ := in.Snapshot.Lookup(id)
			p.Inconsistencies = append(p.Inconsistencies, InconsistentReference{
				Kind:     RefUntrackedFile,
				SampleID: id,
				Detail:   fmt.Sprintf("file %s is not enumerated by the manifest", info.RelPath),
			})
		}
	}

	return p
}
