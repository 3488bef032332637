package dataprocessing

import (
	"log/slog"
	"strings"

	"gradecli/internal/errors"
)

// columnPreference is the fixed priority order for picking the scored column
// when the caller does not name one. Matched as case-insensitive substrings;
// ties broken by input column order.
var columnPreference = []string{
	"Unposted Final Score",
	"Final Score",
	"Current Score",
	"Total",
}

// percentageHints suggest a column already holds percentages, implying a
// maximum of 100.
var percentageHints = []string{"score", "percent", "%"}

// MaxSource records which resolution rule produced the maximum
type MaxSource string

const (
	MaxFromOverride  MaxSource = "override"
	MaxFromMetadata  MaxSource = "metadata"
	MaxFromHeuristic MaxSource = "percentage_heuristic"
	MaxFromDefault   MaxSource = "default"
)

// Resolution is the outcome of column and maximum resolution
type Resolution struct {
	Column    string    `json:"column"`
	MaxPoints float64   `json:"max_points"`
	Source    MaxSource `json:"max_source"`
}

// ResolveColumn selects the scored column to moderate. A non-empty preferred
// name must be a candidate; otherwise the fixed preference order applies,
// falling back to the first candidate.
func ResolveColumn(clean *CleanResult, preferred string) (string, error) {
	if preferred != "" {
		if !clean.HasCandidate(preferred) {
			return "", errors.NewAppValidationError("column is not a scored column: " + preferred)
		}
		return preferred, nil
	}

	for _, want := range columnPreference {
		for _, col := range clean.Candidates {
			if strings.Contains(strings.ToLower(col), strings.ToLower(want)) {
				return col, nil
			}
		}
	}

	return clean.Candidates[0], nil
}

// ResolveMax resolves the maximum-possible-points value for the selected
// column. Priority: explicit override, positive metadata value, the
// percentage heuristic, then the default of 100. A resolved maximum of 0 is
// replaced with 100 to avoid a degenerate divide.
func ResolveMax(clean *CleanResult, column string, override *float64) Resolution {
	res := resolveMax(clean, column, override)

	if res.MaxPoints == 0 {
		slog.Warn("degenerate maximum resolved, substituting 100",
			slog.String("column", column),
			slog.String("source", string(res.Source)))
		res.MaxPoints = 100
	}

	return res
}

func resolveMax(clean *CleanResult, column string, override *float64) Resolution {
	if override != nil {
		return Resolution{Column: column, MaxPoints: *override, Source: MaxFromOverride}
	}

	if max, ok := clean.Meta[column]; ok && max > 0 {
		return Resolution{Column: column, MaxPoints: max, Source: MaxFromMetadata}
	}

	if looksLikePercentage(clean, column) {
		return Resolution{Column: column, MaxPoints: 100, Source: MaxFromHeuristic}
	}

	return Resolution{Column: column, MaxPoints: 100, Source: MaxFromDefault}
}

// looksLikePercentage reports whether the column name or data suggests the
// values are already percentages.
func looksLikePercentage(clean *CleanResult, column string) bool {
	lower := strings.ToLower(column)
	for _, hint := range percentageHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	for _, v := range clean.Scores(column) {
		if v != nil && *v > 50 {
			return true
		}
	}
	return false
}
