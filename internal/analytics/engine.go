package analytics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aryansanganti/receipt-wallet/internal/money"
	"github.com/aryansanganti/receipt-wallet/internal/receipt"
)

// NewCategoryChange is the sentinel reported when a category has spend in
// the period but none in the reference period, where a percentage change
// would be infinite.
const NewCategoryChange = math.MaxFloat64

// ErrInvalidPeriod is an aggregation error: the caller supplied a reversed
// or empty date range. This is a programmer error and is never retried.
var ErrInvalidPeriod = errors.New("invalid aggregation period")

// Period is a contiguous date range [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// Previous returns the immediately preceding period of equal length.
func (p Period) Previous() Period {
	length := p.End.Sub(p.Start)
	return Period{Start: p.Start.Add(-length), End: p.Start}
}

func (p Period) valid() bool {
	return p.End.After(p.Start)
}

// CategoryTotal is a derived per-category view of a period. It is
// recomputed on demand; the receipt history remains the source of truth.
type CategoryTotal struct {
	Category receipt.Category `json:"category"`
	Amount   money.Money      `json:"amount"`
	// Percentage is the category's share of the period total, 0 when the
	// period total is zero.
	Percentage float64 `json:"percentage"`
	// Change is the percent change vs the reference period, or
	// NewCategoryChange when the reference amount is zero.
	Change float64 `json:"change"`
	// ReferencePercentage is the category's share in the reference period,
	// used for spike detection.
	ReferencePercentage float64 `json:"reference_percentage"`
}

// MonthTotal is one point of a monthly trend series.
type MonthTotal struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	Total money.Money `json:"total"`
}

// ReceiptSource is the slice of the receipt store the engine reads.
type ReceiptSource interface {
	ListReceiptsByDate(start, end time.Time) ([]*receipt.Receipt, error)
}

// Engine computes spending aggregates over a receipt window. It holds no
// mutable state; every result is a pure function of the store reads.
type Engine struct {
	source ReceiptSource
}

// NewEngine creates a new Engine over a receipt source.
func NewEngine(source ReceiptSource) *Engine {
	return &Engine{source: source}
}

// Aggregate sums item line totals per category for the period and computes
// each category's share and its change against the reference period.
// Results are ordered by descending amount.
func (e *Engine) Aggregate(period, reference Period) ([]CategoryTotal, error) {
	if !period.valid() || !reference.valid() {
		return nil, fmt.Errorf("%w: end must be after start", ErrInvalidPeriod)
	}

	var current, previous map[receipt.Category]money.Money
	var g errgroup.Group
	g.Go(func() error {
		var err error
		current, err = e.sumByCategory(period)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = e.sumByCategory(reference)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var periodTotal, referenceTotal int64
	for _, amount := range current {
		periodTotal += amount.Units
	}
	for _, amount := range previous {
		referenceTotal += amount.Units
	}

	totals := make([]CategoryTotal, 0, len(current))
	for category, amount := range current {
		ct := CategoryTotal{Category: category, Amount: amount}
		if periodTotal > 0 {
			ct.Percentage = float64(amount.Units) / float64(periodTotal) * 100
		}
		if prev, ok := previous[category]; ok && prev.Units != 0 {
			ct.Change = float64(amount.Units-prev.Units) / float64(prev.Units) * 100
			if referenceTotal > 0 {
				ct.ReferencePercentage = float64(prev.Units) / float64(referenceTotal) * 100
			}
		} else if amount.Units > 0 {
			ct.Change = NewCategoryChange
		}
		totals = append(totals, ct)
	}

	// Categories that vanished this period still matter for insights
	for category, prev := range previous {
		if _, ok := current[category]; ok || prev.Units == 0 {
			continue
		}
		ct := CategoryTotal{
			Category: category,
			Amount:   money.Zero(prev.Currency),
			Change:   -100,
		}
		if referenceTotal > 0 {
			ct.ReferencePercentage = float64(prev.Units) / float64(referenceTotal) * 100
		}
		totals = append(totals, ct)
	}

	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Amount.Units != totals[j].Amount.Units {
			return totals[i].Amount.Units > totals[j].Amount.Units
		}
		return totals[i].Category < totals[j].Category
	})

	return totals, nil
}

// sumByCategory sums recomputed line totals per category over one period.
func (e *Engine) sumByCategory(period Period) (map[receipt.Category]money.Money, error) {
	receipts, err := e.source.ListReceiptsByDate(period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("retrieving receipts: %w", err)
	}

	sums := make(map[receipt.Category]money.Money)
	for _, r := range receipts {
		for _, item := range r.Items {
			line := item.LineTotal()
			existing, ok := sums[item.Category]
			if !ok {
				sums[item.Category] = line
				continue
			}
			total, err := existing.Add(line)
			if err != nil {
				return nil, fmt.Errorf("aggregating %s: %w", item.Category, err)
			}
			sums[item.Category] = total
		}
	}
	return sums, nil
}

// MonthlyTrend returns per-month spending totals for the most recent
// numMonths (the month containing `until` inclusive), oldest first. Months
// with no receipts are zero-filled, never omitted.
func (e *Engine) MonthlyTrend(numMonths int, until time.Time) ([]MonthTotal, error) {
	if numMonths <= 0 {
		return nil, fmt.Errorf("%w: numMonths must be positive", ErrInvalidPeriod)
	}

	firstMonth := time.Date(until.Year(), until.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -(numMonths - 1), 0)
	end := time.Date(until.Year(), until.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	receipts, err := e.source.ListReceiptsByDate(firstMonth, end)
	if err != nil {
		return nil, fmt.Errorf("retrieving receipts: %w", err)
	}

	currency := ""
	sums := make(map[string]int64, numMonths)
	for _, r := range receipts {
		if currency == "" {
			currency = r.Currency
		}
		key := r.Date.Format("2006-01")
		for _, item := range r.Items {
			sums[key] += item.LineTotal().Units
		}
	}

	trend := make([]MonthTotal, 0, numMonths)
	for i := 0; i < numMonths; i++ {
		month := firstMonth.AddDate(0, i, 0)
		trend = append(trend, MonthTotal{
			Year:  month.Year(),
			Month: month.Month(),
			Total: money.New(sums[month.Format("2006-01")], currency),
		})
	}

	return trend, nil
}
