package moderation

import "sort"

// BandCount is the before/after population of one band and its signed delta
type BandCount struct {
	Band   Band `json:"band"`
	Before int  `json:"before"`
	After  int  `json:"after"`
	Delta  int  `json:"delta"`
}

// Summary carries the class-wide statistics of one run
type Summary struct {
	Count        int     `json:"count"`
	MeanOriginal float64 `json:"mean_original"`
	StdOriginal  float64 `json:"std_original"`
	MeanAdjusted float64 `json:"mean_adjusted"`
	StdAdjusted  float64 `json:"std_adjusted"`
}

// MigrationReport is the before/after view of one moderation run: per-band
// counts with deltas, summary statistics, and the cusp record lists for
// review.
type MigrationReport struct {
	Bands   []BandCount `json:"bands"`
	Summary Summary     `json:"summary"`

	// AtRisk lists records on cusp before moderation, percentage ascending
	AtRisk []GradeRecord `json:"at_risk"`

	// CuspReview lists records on cusp after moderation, percentage descending
	CuspReview []GradeRecord `json:"cusp_review"`
}

// BuildReport computes the migration report from a finished record set
func BuildReport(records []GradeRecord, bounds BoundarySet) MigrationReport {
	before := make(map[Band]int, len(bounds))
	after := make(map[Band]int, len(bounds))

	pctsOriginal := make([]float64, len(records))
	pctsAdjusted := make([]float64, len(records))

	var atRisk, cuspReview []GradeRecord

	for i, r := range records {
		before[r.CategoryOriginal]++
		after[r.CategoryAdjusted]++
		pctsOriginal[i] = r.PctOriginal
		pctsAdjusted[i] = r.PctAdjusted

		if r.IsCuspOriginal {
			atRisk = append(atRisk, r)
		}
		if r.IsCuspAdjusted {
			cuspReview = append(cuspReview, r)
		}
	}

	bands := make([]BandCount, 0, len(bounds))
	for _, bound := range bounds {
		bands = append(bands, BandCount{
			Band:   bound.Band,
			Before: before[bound.Band],
			After:  after[bound.Band],
			Delta:  after[bound.Band] - before[bound.Band],
		})
	}

	sort.SliceStable(atRisk, func(i, j int) bool {
		return atRisk[i].PctOriginal < atRisk[j].PctOriginal
	})
	sort.SliceStable(cuspReview, func(i, j int) bool {
		return cuspReview[i].PctAdjusted > cuspReview[j].PctAdjusted
	})

	return MigrationReport{
		Bands: bands,
		Summary: Summary{
			Count:        len(records),
			MeanOriginal: Mean(pctsOriginal),
			StdOriginal:  SampleStd(pctsOriginal),
			MeanAdjusted: Mean(pctsAdjusted),
			StdAdjusted:  SampleStd(pctsAdjusted),
		},
		AtRisk:     atRisk,
		CuspReview: cuspReview,
	}
}
