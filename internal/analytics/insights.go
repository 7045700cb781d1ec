package analytics

import (
	"fmt"
	"math"
	"sort"
)

// Severity grades an insight for presentation.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
)

// Insight is a derived recommendation. Regenerated per request, never
// persisted.
type Insight struct {
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion"`
}

// Generator turns category aggregates into insights using ordered threshold
// rules. The rules are disjoint by construction: each category yields at
// most one insight.
type Generator struct {
	// WarningThreshold is the percent increase above which a warning fires.
	WarningThreshold float64
	// SuccessThreshold is the percent decrease below which a success fires.
	SuccessThreshold float64
	// SpikePoints is the share-of-spend jump (in percentage points) that
	// triggers a spike insight when the absolute change is moderate.
	SpikePoints float64
}

// NewGenerator creates a Generator with the default thresholds.
func NewGenerator() *Generator {
	return &Generator{
		WarningThreshold: 10,
		SuccessThreshold: -5,
		SpikePoints:      10,
	}
}

// Generate evaluates the rules per category. Categories with zero spend in
// both periods never appear in the input, so they generate nothing. Output
// is ordered by descending absolute change.
func (g *Generator) Generate(totals []CategoryTotal) []Insight {
	ordered := make([]CategoryTotal, len(totals))
	copy(ordered, totals)
	sort.Slice(ordered, func(i, j int) bool {
		return math.Abs(ordered[i].Change) > math.Abs(ordered[j].Change)
	})

	insights := make([]Insight, 0, len(ordered))
	for _, ct := range ordered {
		if insight, ok := g.evaluate(ct); ok {
			insights = append(insights, insight)
		}
	}
	return insights
}

// evaluate applies the ordered rules to one category; first match wins.
func (g *Generator) evaluate(ct CategoryTotal) (Insight, bool) {
	name := string(ct.Category)

	switch {
	case ct.Change == NewCategoryChange:
		return Insight{
			Severity:    SeverityInfo,
			Title:       fmt.Sprintf("New spending category: %s", name),
			Description: fmt.Sprintf("You spent %s on %s this period with no spending in the previous period.", ct.Amount, name),
			Suggestion:  "Check whether this is a one-off purchase or a new recurring expense.",
		}, true

	case ct.Change > g.WarningThreshold:
		return Insight{
			Severity:    SeverityWarning,
			Title:       fmt.Sprintf("%s spending is up %.1f%%", name, ct.Change),
			Description: fmt.Sprintf("You spent %s on %s this period, %.1f%% more than the previous period.", ct.Amount, name, ct.Change),
			Suggestion:  fmt.Sprintf("Review your %s purchases and consider setting a budget for this category.", name),
		}, true

	case ct.Change < g.SuccessThreshold:
		return Insight{
			Severity:    SeveritySuccess,
			Title:       fmt.Sprintf("Great job on %s!", name),
			Description: fmt.Sprintf("You reduced %s spending by %.1f%% compared to the previous period.", name, -ct.Change),
			Suggestion:  "Keep up the good work.",
		}, true

	case ct.Percentage-ct.ReferencePercentage > g.SpikePoints:
		return Insight{
			Severity:    SeverityInfo,
			Title:       fmt.Sprintf("%s spike detected", name),
			Description: fmt.Sprintf("%s grew from %.1f%% to %.1f%% of your spending this period.", name, ct.ReferencePercentage, ct.Percentage),
			Suggestion:  "Review recent purchases to identify any unnecessary items.",
		}, true
	}

	return Insight{}, false
}
