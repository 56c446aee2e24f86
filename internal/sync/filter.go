package sync

import (
	"strings"

	"github.com/nhle/tempmail/internal/model"
)

// Filter returns the entries whose subject or sender address contains
// needle, case-insensitively. An empty needle returns the input slice
// unchanged. The input is never mutated and order is preserved.
func Filter(list []model.MessageSummary, needle string) []model.MessageSummary {
	if needle == "" {
		return list
	}

	needle = strings.ToLower(needle)

	filtered := make([]model.MessageSummary, 0, len(list))
	for _, m := range list {
		if strings.Contains(strings.ToLower(m.Subject), needle) ||
			strings.Contains(strings.ToLower(m.From.Address), needle) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}
