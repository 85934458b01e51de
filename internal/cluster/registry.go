package cluster

import (
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
)

type marketKey struct {
	platform string
	key      string
}

type clusterEntry struct {
	id       string
	centroid string
}

// Registry maintains a set of clusters, each keyed by a centroid
// string, and assigns new markets to the closest existing cluster
// above MatchThreshold or creates a new one. Behind a single writer
// lock, matching the upstream reference implementation.
type Registry struct {
	matchThreshold float64

	mu          sync.Mutex
	clusters    []clusterEntry
	marketIndex map[marketKey]string
}

func NewRegistry(matchThreshold float64) *Registry {
	return &Registry{
		matchThreshold: matchThreshold,
		marketIndex:    make(map[marketKey]string),
	}
}

// ClusterFor returns the cluster id for (platform, marketKey),
// assigning one if this is the first time the pair has been seen.
func (r *Registry) ClusterFor(platform, key, label, textBlob string) string {
	if key == "" {
		return ""
	}
	normalized := buildText(label, textBlob, key)
	mk := marketKey{platform: platform, key: key}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.marketIndex[mk]; ok {
		return existing
	}

	bestID, bestScore := r.bestMatch(normalized)
	if bestID != "" && bestScore >= r.matchThreshold {
		r.marketIndex[mk] = bestID
		return bestID
	}

	id := uuid.New().String()
	r.clusters = append(r.clusters, clusterEntry{id: id, centroid: normalized})
	r.marketIndex[mk] = id
	return id
}

func (r *Registry) bestMatch(text string) (string, float64) {
	var bestID string
	var bestScore float64
	for _, c := range r.clusters {
		score := tokenSetRatio(text, c.centroid)
		if score > bestScore {
			bestScore = score
			bestID = c.id
		}
	}
	return bestID, bestScore
}

func buildText(label, textBlob, fallback string) string {
	labelValue := strings.TrimSpace(label)
	blobValue := strings.TrimSpace(textBlob)
	if blobValue != "" && labelValue != "" && !strings.Contains(blobValue, labelValue) {
		return labelValue + " " + blobValue
	}
	if blobValue != "" {
		return blobValue
	}
	if labelValue != "" {
		return labelValue
	}
	return fallback
}

// tokenSetRatio approximates rapidfuzz's token_set_ratio using
// Levenshtein distance over whitespace-sorted token multisets, so
// that word order differences between two descriptions of the same
// market don't depress the score. Returns a 0-100 similarity.
func tokenSetRatio(a, b string) float64 {
	na := normalizeTokens(a)
	nb := normalizeTokens(b)
	if na == "" && nb == "" {
		return 100
	}
	dist := levenshtein.ComputeDistance(na, nb)
	maxLen := len(na)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}
	if maxLen == 0 {
		return 100
	}
	ratio := (1.0 - float64(dist)/float64(maxLen)) * 100.0
	if ratio < 0 {
		ratio = 0
	}
	return ratio
}

func normalizeTokens(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	sort.Strings(fields)
	return strings.Join(fields, " ")
}
