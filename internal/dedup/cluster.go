// Package dedup groups samples whose audio content signatures match, and
// selects the member of each group to keep.
package dedup

import (
	"github.com/kenafu/voice-dataset-organizer/internal/audiohash"
	"github.com/kenafu/voice-dataset-organizer/internal/textutil"
)

// KeepPolicy selects which cluster member survives deduplication.
type KeepPolicy string

const (
	// KeepManifestOrder keeps the member appearing first in the manifest.
	KeepManifestOrder KeepPolicy = "manifest-order"
	// KeepLargestFile keeps the largest file; ties fall back to manifest
	// order.
	KeepLargestFile KeepPolicy = "largest-file"
)

// Options controls clustering behavior.
type Options struct {
	// GroupByTranscript restricts comparison to samples sharing a
	// normalized transcript.
	GroupByTranscript bool
	// Tolerance above zero additionally merges members whose envelope
	// distance from the cluster representative is within the bound.
	// Zero requires exact hash equality.
	Tolerance  float64
	KeepPolicy KeepPolicy
}

// Member is one clustering candidate, supplied in manifest order.
type Member struct {
	ID   string
	Text string
	// Size is the on-disk file size, used by KeepLargestFile.
	Size int64
}

// Cluster is a set of content-duplicate samples with a designated keeper.
type Cluster struct {
	Keep      string
	Redundant []string
	// Hash is the representative signature hash.
	Hash string
}

type workingCluster struct {
	representative audiohash.Signature
	members        []Member
}

// BuildClusters groups members by content signature. Members without a
// signature are excluded. The result is deterministic: clusters appear in
// order of their earliest member, and members keep manifest order.
func BuildClusters(members []Member, signatures map[string]audiohash.Signature, opts Options) []Cluster {
	groups := make(map[string][]Member)
	var groupOrder []string
	for _, member := range members {
		if _, ok := signatures[member.ID]; !ok {
			continue
		}
		key := ""
		if opts.GroupByTranscript {
			key = textutil.NormalizeTranscript(member.Text)
		}
		if _, seen := groups[key]; !seen {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], member)
	}

	var clusters []Cluster
	for _, key := range groupOrder {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		clusters = append(clusters, clusterGroup(group, signatures, opts)...)
	}
	return clusters
}

func clusterGroup(group []Member, signatures map[string]audiohash.Signature, opts Options) []Cluster {
	var working []*workingCluster
	for _, member := range group {
		sig := signatures[member.ID]
		joined := false
		for _, candidate := range working {
			if sig.Hash == candidate.representative.Hash {
				candidate.members = append(candidate.members, member)
				joined = true
				break
			}
			if opts.Tolerance > 0 && audiohash.Distance(sig, candidate.representative) <= opts.Tolerance {
				candidate.members = append(candidate.members, member)
				joined = true
				break
			}
		}
		if !joined {
			working = append(working, &workingCluster{representative: sig, members: []Member{member}})
		}
	}

	var clusters []Cluster
	for _, candidate := range working {
		if len(candidate.members) < 2 {
			continue
		}
		keep := selectKeep(candidate.members, opts.KeepPolicy)
		cluster := Cluster{Keep: keep, Hash: candidate.representative.Hash}
		for _, member := range candidate.members {
			if member.ID != keep {
				cluster.Redundant = append(cluster.Redundant, member.ID)
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// selectKeep applies the keep policy; members arrive in manifest order, so
// the first qualifying member wins ties.
func selectKeep(members []Member, policy KeepPolicy) string {
	switch policy {
	case KeepLargestFile:
		best := members[0]
		for _, member := range members[1:] {
			if member.Size > best.Size {
				best = member
			}
		}
		return best.ID
	default:
		return members[0].ID
	}
}
