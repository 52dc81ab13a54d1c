package synthesis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

// GroupKeyFunc maps a classified record to its cluster key. Records sharing
// a key land in the same focus area; every record belongs to exactly one.
type GroupKeyFunc func(rec models.FeedbackRecord) string

// signatureTokens caps how much of a title feeds the grouping signature so
// one verbose post cannot splinter a theme.
const signatureTokens = 4

// DefaultGroupKey groups by category plus a normalized-title token
// signature.
func DefaultGroupKey(rec models.FeedbackRecord) string {
	tokens := Tokens(rec.Title)
	if len(tokens) > signatureTokens {
		tokens = tokens[:signatureTokens]
	}
	sig := strings.Join(tokens, "+")
	if sig == "" {
		sig = "misc"
	}
	return fmt.Sprintf("%s|%s", rec.Analysis.Category, sig)
}

type cluster struct {
	key     string
	members []models.FeedbackRecord
}

// clusterRecords partitions records by key. Output order is deterministic
// (sorted by key) so two runs over the same records synthesize identically.
func clusterRecords(records []models.FeedbackRecord, keyFn GroupKeyFunc) []cluster {
	byKey := make(map[string]*cluster)
	var keys []string

	for _, rec := range records {
		key := keyFn(rec)
		c, ok := byKey[key]
		if !ok {
			c = &cluster{key: key}
			byKey[key] = c
			keys = append(keys, key)
		}
		c.members = append(c.members, rec)
	}

	sort.Strings(keys)
	out := make([]cluster, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byKey[k])
	}
	return out
}

// clusterID derives a stable identifier from the company and cluster key.
func clusterID(company, key string) string {
	raw := fmt.Sprintf("%s:%s", company, key)
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:])[:12]
}

// representative picks the member whose post carried the most engagement.
func representative(members []models.FeedbackRecord) models.FeedbackRecord {
	best := members[0]
	for _, m := range members[1:] {
		if m.Upvotes+m.CommentCount > best.Upvotes+best.CommentCount {
			best = m
		}
	}
	return best
}
