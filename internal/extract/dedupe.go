package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/jackzampolin/samp/internal/prompts/register"
)

// DedupKey builds the composite identity for a record. Overlapping chunks
// can produce the same physical material twice; two records with the same
// school, building, room, and material description prefix are the same
// material.
func DedupKey(item register.Item, schoolCode string) string {
	school := schoolCode
	if school == "" {
		school = "unknown"
	}
	building := item.BuildingID
	if building == "" {
		building = "unknown"
	}
	room := "none"
	if item.RoomID != nil && *item.RoomID != "" {
		room = *item.RoomID
	}

	desc := item.MaterialDescription
	if runes := []rune(desc); len(runes) > 50 {
		desc = string(runes[:50])
	}
	sum := sha256.Sum256([]byte(desc))
	return fmt.Sprintf("%s_%s_%s_%s", school, building, room, hex.EncodeToString(sum[:])[:8])
}

// Deduplicate collapses records sharing a dedup key, keeping first-seen
// order. Returns the surviving records and the number merged away.
func Deduplicate(items []register.Item, schoolCode string) ([]register.Item, int) {
	if len(items) == 0 {
		return items, 0
	}

	byKey := make(map[string]int, len(items))
	var out []register.Item
	merged := 0

	for _, item := range items {
		key := DedupKey(item, schoolCode)
		if idx, ok := byKey[key]; ok {
			out[idx] = mergeItems(out[idx], item)
			merged++
			continue
		}
		byKey[key] = len(out)
		out = append(out, item)
	}

	return out, merged
}

// mergeItems keeps the higher-confidence record and unions data issues.
// On equal confidence the record with fewer data issues wins; the earlier
// record wins only when both counts match.
func mergeItems(existing, incoming register.Item) register.Item {
	base := existing
	switch {
	case incoming.ExtractionConfidence.Rank() > existing.ExtractionConfidence.Rank():
		base = incoming
	case incoming.ExtractionConfidence.Rank() == existing.ExtractionConfidence.Rank() &&
		len(incoming.DataIssues) < len(existing.DataIssues):
		base = incoming
	}

	seen := make(map[string]struct{}, len(existing.DataIssues)+len(incoming.DataIssues))
	var issues []string
	for _, src := range [][]string{existing.DataIssues, incoming.DataIssues} {
		for _, issue := range src {
			if _, ok := seen[issue]; ok {
				continue
			}
			seen[issue] = struct{}{}
			issues = append(issues, issue)
		}
	}
	base.DataIssues = issues
	return base
}
