package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	records := []GradeRecord{
		{Student: "A", PctOriginal: 49, PctAdjusted: 55, CategoryOriginal: BandNN, CategoryAdjusted: BandPA, IsCuspOriginal: true},
		{Student: "B", PctOriginal: 62, PctAdjusted: 69, CategoryOriginal: BandCR, CategoryAdjusted: BandCR, IsCuspAdjusted: true},
		{Student: "C", PctOriginal: 39, PctAdjusted: 49, CategoryOriginal: BandNN, CategoryAdjusted: BandNN, IsCuspOriginal: true, IsCuspAdjusted: true},
		{Student: "D", PctOriginal: 85, PctAdjusted: 88, CategoryOriginal: BandHD, CategoryAdjusted: BandHD},
	}

	report := BuildReport(records, DefaultBoundaries())

	// Per-band counts carry signed deltas, every band always present
	require.Len(t, report.Bands, 5)
	byBand := make(map[Band]BandCount)
	for _, b := range report.Bands {
		byBand[b.Band] = b
	}
	assert.Equal(t, BandCount{BandNN, 2, 1, -1}, byBand[BandNN])
	assert.Equal(t, BandCount{BandPA, 0, 1, 1}, byBand[BandPA])
	assert.Equal(t, BandCount{BandCR, 1, 1, 0}, byBand[BandCR])
	assert.Equal(t, BandCount{BandDI, 0, 0, 0}, byBand[BandDI])
	assert.Equal(t, BandCount{BandHD, 1, 1, 0}, byBand[BandHD])

	// At-risk lists pre-moderation cusp records, percentage ascending
	require.Len(t, report.AtRisk, 2)
	assert.Equal(t, "C", report.AtRisk[0].Student)
	assert.Equal(t, "A", report.AtRisk[1].Student)

	// Cusp review lists post-moderation cusp records, percentage descending
	require.Len(t, report.CuspReview, 2)
	assert.Equal(t, "B", report.CuspReview[0].Student)
	assert.Equal(t, "C", report.CuspReview[1].Student)

	assert.Equal(t, 4, report.Summary.Count)
}

func TestBuildReportEmpty(t *testing.T) {
	report := BuildReport(nil, DefaultBoundaries())

	assert.Equal(t, 0, report.Summary.Count)
	assert.Empty(t, report.AtRisk)
	assert.Empty(t, report.CuspReview)
	require.Len(t, report.Bands, 5)
	for _, b := range report.Bands {
		assert.Zero(t, b.Before)
		assert.Zero(t, b.After)
	}
}
