package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kenafu/voice-dataset-organizer/internal/audiohash"
	"github.com/kenafu/voice-dataset-organizer/internal/classification"
	"github.com/kenafu/voice-dataset-organizer/internal/config"
	"github.com/kenafu/voice-dataset-organizer/internal/dedup"
	"github.com/kenafu/voice-dataset-organizer/internal/manifest"
	"github.com/kenafu/voice-dataset-organizer/internal/plan"
)

// datasetState is everything loaded from disk before planning: the parsed
// manifest and one filesystem snapshot both plan and apply operate on.
type datasetState struct {
	cfg      *config.Config
	manifest *manifest.Manifest
	warnings []*manifest.ParseError
	snap     *plan.Snapshot
}

func (c *commandContext) loadDataset() (*datasetState, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	m, warnings, err := manifest.Load(cfg.ManifestPath())
	if err != nil {
		return nil, err
	}
	snap, err := plan.TakeSnapshot(cfg.AudioPath())
	if err != nil {
		return nil, err
	}
	return &datasetState{cfg: cfg, manifest: m, warnings: warnings, snap: snap}, nil
}

// scanOutcome is the fingerprint pass result feeding clustering.
type scanOutcome struct {
	signatures map[string]audiohash.Signature
	failures   []*audiohash.DecodeError
	clusters   []dedup.Cluster
}

// runScan fingerprints every manifest sample present on disk and clusters
// the results. Signatures are cached in the store across invocations.
func (c *commandContext) runScan(cmd *cobra.Command, ds *datasetState, showProgress bool) (*scanOutcome, error) {
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	cache, err := c.openStore()
	if err != nil {
		return nil, err
	}
	defer cache.Close()

	cfg := ds.cfg
	params := audiohash.Params{
		SampleRate:      cfg.Dedup.SampleRate,
		TrimThresholdDB: cfg.Dedup.TrimThresholdDB,
		HashSampleRate:  cfg.Dedup.HashSampleRate,
		QuantizeLevels:  cfg.Dedup.QuantizeLevels,
	}
	decoder := audiohash.NewFFmpegDecoder(cfg.Dedup.FFmpegBinary, cfg.Dedup.SampleRate)
	scanner := audiohash.NewScanner(decoder, params, cache, cfg.Dedup.Workers, logger)

	var targets []audiohash.Target
	var members []dedup.Member
	for _, sample := range ds.manifest.Samples() {
		info, ok := ds.snap.Lookup(sample.ID)
		if !ok {
			continue
		}
		targets = append(targets, audiohash.Target{ID: sample.ID, Path: ds.snap.Abs(info.RelPath)})
		members = append(members, dedup.Member{ID: sample.ID, Text: sample.Text, Size: info.Size})
	}

	var progress func(done, total int)
	if showProgress && len(targets) > 0 {
		bar := progressbar.NewOptions(len(targets),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("fingerprinting"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		progress = func(done, total int) {
			_ = bar.Set(done)
		}
	}

	signatures, failures, err := scanner.Scan(cmd.Context(), targets, progress)
	if err != nil {
		return nil, fmt.Errorf("fingerprint scan: %w", err)
	}

	clusters := dedup.BuildClusters(members, signatures, dedup.Options{
		GroupByTranscript: cfg.Dedup.GroupByTranscript,
		Tolerance:         cfg.Dedup.Tolerance,
		KeepPolicy:        dedup.KeepPolicy(cfg.Dedup.KeepPolicy),
	})
	return &scanOutcome{signatures: signatures, failures: failures, clusters: clusters}, nil
}

// buildPlan assembles plan inputs from the loaded dataset, an optional
// classification report, and an optional dedup pass.
func buildPlan(ds *datasetState, report *classification.Report, clusters []dedup.Cluster) *plan.Plan {
	redundantAction := plan.KindQuarantine
	if ds.cfg.Dedup.RedundantAction == "delete" {
		redundantAction = plan.KindDelete
	}
	return plan.Build(plan.Inputs{
		Manifest: ds.manifest,
		Report:   report,
		Clusters: clusters,
		Snapshot: ds.snap,
		Labels: plan.LabelPolicy{
			Allowed:  ds.cfg.Labels.Emotions,
			Fallback: ds.cfg.Labels.Fallback,
		},
		RedundantAction: redundantAction,
	})
}
