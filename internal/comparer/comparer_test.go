package comparer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

func area(id, title string, cat models.Category, impact float64, freq int) models.FocusArea {
	return models.FocusArea{
		ID:          id,
		Title:       title,
		Category:    cat,
		ImpactScore: impact,
		Frequency:   freq,
	}
}

func snapArea(title string, cat models.Category, impact float64, freq int) models.SnapshotArea {
	return models.SnapshotArea{Title: title, Category: cat, ImpactScore: impact, Frequency: freq}
}

func report(areas ...models.FocusArea) *models.SynthesisReport {
	return &models.SynthesisReport{CompanyName: "Acme", FocusAreas: areas}
}

func TestCompare_FirstRun(t *testing.T) {
	r := report(
		area("f1", "Checkout crashes", models.CategoryBug, 7, 5),
		area("f2", "Dark mode", models.CategoryFeatureRequest, 4, 2),
	)

	c := Compare(r, nil)

	assert.True(t, c.FirstRun)
	require.Len(t, c.Changes, 2)
	for _, ch := range c.Changes {
		assert.Equal(t, ChangeNew, ch.Change)
	}
	for _, fa := range r.FocusAreas {
		assert.Equal(t, models.TrendNew, fa.Trend)
		assert.Zero(t, fa.TrendDelta)
	}
	assert.Empty(t, c.Resolved)
	assert.Zero(t, c.NewRate)
	assert.Zero(t, c.ResolutionRate)
	assert.Zero(t, c.OverallHealth)
}

func TestCompare_ExactMatchWorsened(t *testing.T) {
	r := report(area("f1", "Checkout crashes", models.CategoryBug, 8.0, 9))
	prior := &models.Snapshot{FocusAreas: []models.SnapshotArea{
		snapArea("Checkout crashes", models.CategoryBug, 6.5, 5),
	}}

	c := Compare(r, prior)

	require.Len(t, c.Changes, 1)
	assert.Equal(t, ChangeWorsened, c.Changes[0].Change)
	assert.Equal(t, models.TrendUp, r.FocusAreas[0].Trend)
	assert.InDelta(t, 1.5, r.FocusAreas[0].TrendDelta, 1e-9)
	assert.Equal(t, 4, c.Changes[0].FreqDelta)
}

func TestCompare_ImprovedPointsDown(t *testing.T) {
	r := report(area("f1", "Checkout crashes", models.CategoryBug, 5.0, 3))
	prior := &models.Snapshot{FocusAreas: []models.SnapshotArea{
		snapArea("Checkout crashes", models.CategoryBug, 7.0, 6),
	}}

	c := Compare(r, prior)

	assert.Equal(t, ChangeImproved, c.Changes[0].Change)
	assert.Equal(t, models.TrendDown, r.FocusAreas[0].Trend)
	assert.InDelta(t, -2.0, r.FocusAreas[0].TrendDelta, 1e-9)
}

func TestCompare_ImpactDeltaDominatesFrequency(t *testing.T) {
	// impact says worse, frequency says better: impact wins
	r := report(area("f1", "Checkout crashes", models.CategoryBug, 8.0, 2))
	prior := &models.Snapshot{FocusAreas: []models.SnapshotArea{
		snapArea("Checkout crashes", models.CategoryBug, 6.0, 10),
	}}

	c := Compare(r, prior)
	assert.Equal(t, ChangeWorsened, c.Changes[0].Change)
}

func TestCompare_FrequencyDecidesInsideNoiseBand(t *testing.T) {
	r := report(area("f1", "Checkout crashes", models.CategoryBug, 6.2, 12))
	prior := &models.Snapshot{FocusAreas: []models.SnapshotArea{
		snapArea("Checkout crashes", models.CategoryBug, 6.0, 5),
	}}

	c := Compare(r, prior)
	assert.Equal(t, ChangeWorsened, c.Changes[0].Change, "impact within noise, frequency more than doubled")
}

func TestCompare_StableInsideNoise(t *testing.T) {
	r := report(area("f1", "Checkout crashes", models.CategoryBug, 6.3, 5))
	prior := &models.Snapshot{FocusAreas: []models.SnapshotArea{
		snapArea("Checkout crashes", models.CategoryBug, 6.0, 5),
	}}

	c := Compare(r, prior)
	assert.Equal(t, ChangeStable, c.Changes[0].Change)
	assert.Equal(t, models.TrendStable, r.FocusAreas[0].Trend)
}

func TestCompare_FuzzyMatchSameCategory(t *testing.T) {
	r := report(area("f1", "Checkout page crashes on submit", models.CategoryBug, 7.0, 5))
	prior := &models.Snapshot{FocusAreas: []models.SnapshotArea{
		snapArea("Crashes on checkout submit", models.CategoryBug, 7.0, 5),
	}}

	c := Compare(r, prior)

	assert.Equal(t, ChangeStable, c.Changes[0].Change, "fuzzy match should pair these")
	assert.Empty(t, c.Resolved)
}

func TestCompare_NoCrossCategoryFuzzyMatch(t *testing.T) {
	r := report(area("f1", "Checkout crashes", models.CategoryBug, 7.0, 5))
	prior := &models.Snapshot{FocusAreas: []models.SnapshotArea{
		snapArea("Checkout crashes", models.CategoryFeatureRequest, 7.0, 5),
	}}

	c := Compare(r, prior)

	assert.Equal(t, ChangeNew, c.Changes[0].Change)
	assert.Equal(t, []string{"Checkout crashes"}, c.Resolved)
}

func TestCompare_ResolvedAndRatios(t *testing.T) {
	r := report(
		area("f1", "Checkout crashes", models.CategoryBug, 6.0, 5),
		area("f2", "Slow search results", models.CategoryUsabilityFriction, 5.0, 3),
	)
	prior := &models.Snapshot{FocusAreas: []models.SnapshotArea{
		snapArea("Checkout crashes", models.CategoryBug, 6.0, 5),
		snapArea("Broken password reset", models.CategoryBug, 7.0, 4),
	}}

	c := Compare(r, prior)

	assert.False(t, c.FirstRun)
	assert.Equal(t, []string{"Broken password reset"}, c.Resolved)
	assert.InDelta(t, 0.5, c.NewRate, 1e-9, "1 of 2 current areas is new")
	assert.InDelta(t, 0.5, c.ResolutionRate, 1e-9, "1 of 2 prior areas resolved")
	assert.InDelta(t, 1.0, c.OverallHealth, 1e-9, "nothing worsened")
}
