package llm

import (
	"slices"
	"strings"
)

// preferredVisionModels are listed first, in this order, when present.
var preferredVisionModels = []string{
	"meta-llama/llama-4-scout-17b-16e-instruct",
	"llama-4-scout",
	"llama-3.2-90b-vision-preview",
	"llama-3.2-11b-vision-preview",
}

// RankModels orders model ids for selection: preferred vision models first,
// then any other id that looks vision capable, then the rest alphabetically.
// Duplicates are dropped.
func RankModels(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	slices.SortStableFunc(out, func(a, b string) int {
		ra, rb := modelRank(a), modelRank(b)
		if ra != rb {
			return ra - rb
		}
		return strings.Compare(a, b)
	})
	return out
}

// IsVisionModel reports whether an id is known or named as vision capable.
func IsVisionModel(id string) bool {
	return modelRank(id) < len(preferredVisionModels)+1
}

func modelRank(id string) int {
	if i := slices.Index(preferredVisionModels, id); i >= 0 {
		return i
	}
	lower := strings.ToLower(id)
	if strings.Contains(lower, "vision") || strings.Contains(lower, "scout") || strings.Contains(lower, "maverick") {
		return len(preferredVisionModels)
	}
	return len(preferredVisionModels) + 1
}
