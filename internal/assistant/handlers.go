package assistant

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aryansanganti/receipt-wallet/internal/analytics"
	"github.com/aryansanganti/receipt-wallet/internal/money"
	"github.com/aryansanganti/receipt-wallet/internal/wallet"
)

// defaultStaples is suggested when the purchase history is too thin to
// derive a shopping list from.
var defaultStaples = []string{"Milk", "Bread", "Eggs", "Bananas", "Laundry Detergent", "Toilet Paper"}

func (r *Router) handleRecipe(query string) (*Response, error) {
	names, err := r.recentItemNames(30, 5)
	if err != nil {
		return nil, err
	}

	ingredients := []string{"Chicken Breast", "Mixed Vegetables", "Soy Sauce", "Garlic", "Rice"}
	content := "Here's a quick recipe idea: a simple stir fry. You'll need " +
		joinNames(ingredients) + ". Cook the rice, saute the garlic, then toss everything in a hot pan for ten minutes."
	if len(names) > 0 {
		content = fmt.Sprintf("You recently bought %s. A stir fry would put those to good use. You'll also want %s on hand.",
			joinNames(names), joinNames(ingredients))
	}

	return &Response{
		Intent:  IntentRecipe,
		Content: content,
		CandidatePass: &wallet.Pass{
			Kind:        wallet.KindRecipe,
			Title:       "Quick Stir Fry Recipe",
			Description: "A ten-minute stir fry built around your recent purchases.",
			Items:       ingredients,
		},
	}, nil
}

func (r *Router) handleSpending(query string) (*Response, error) {
	now := r.timeSource.Now()
	period := analytics.Period{
		Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0),
	}
	totals, err := r.engine.Aggregate(period, period.Previous())
	if err != nil {
		return nil, fmt.Errorf("aggregating spending: %w", err)
	}

	var total money.Money
	spent := make([]analytics.CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		if ct.Amount.IsZero() {
			continue
		}
		if total.IsZero() {
			total = ct.Amount
		} else {
			total, err = total.Add(ct.Amount)
			if err != nil {
				return nil, fmt.Errorf("totaling spending: %w", err)
			}
		}
		spent = append(spent, ct)
	}

	if len(spent) == 0 {
		return &Response{
			Intent:  IntentSpending,
			Content: "You have no receipts recorded this month yet. Scan a receipt and I can break your spending down by category.",
		}, nil
	}

	lines := make([]string, 0, len(spent))
	for _, ct := range spent {
		lines = append(lines, fmt.Sprintf("%s: %s (%.0f%%)", ct.Category, ct.Amount, ct.Percentage))
	}

	content := fmt.Sprintf("You've spent %s this month. Your biggest category is %s at %s. Full breakdown: %s.",
		total, spent[0].Category, spent[0].Amount, strings.Join(lines, ", "))

	return &Response{
		Intent:  IntentSpending,
		Content: content,
		CandidatePass: &wallet.Pass{
			Kind:        wallet.KindInsights,
			Title:       fmt.Sprintf("%s Spending Summary", now.Month()),
			Description: content,
			Items:       lines,
			Amount:      &total,
		},
	}, nil
}

func (r *Router) handleShopping(query string) (*Response, error) {
	now := r.timeSource.Now()
	receipts, err := r.source.ListReceiptsByDate(now.AddDate(0, 0, -60), now.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("retrieving purchase history: %w", err)
	}

	// Rank items by how often they were bought; frequent buys are the ones
	// most likely due for a restock.
	counts := make(map[string]int)
	display := make(map[string]string)
	for _, rec := range receipts {
		for _, item := range rec.Items {
			key := strings.ToLower(item.Name)
			counts[key]++
			display[key] = item.Name
		}
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > 6 {
		keys = keys[:6]
	}

	items := make([]string, 0, len(keys))
	for _, key := range keys {
		items = append(items, display[key])
	}

	content := fmt.Sprintf("Based on what you buy most often, here's your shopping list: %s.", joinNames(items))
	if len(items) == 0 {
		items = defaultStaples
		content = fmt.Sprintf("I don't have enough purchase history yet, so here's a starter list: %s.", joinNames(items))
	}

	return &Response{
		Intent:  IntentShopping,
		Content: content,
		CandidatePass: &wallet.Pass{
			Kind:        wallet.KindShopping,
			Title:       "Weekly Grocery List",
			Description: "Restock suggestions from your purchase history.",
			Items:       items,
		},
	}, nil
}

func (r *Router) handleFallback(query string) (*Response, error) {
	return &Response{
		Intent: IntentFallback,
		Content: "I can help you with your spending, suggest recipes from your recent purchases, " +
			"or build a shopping list. Try asking \"how much did I spend this month?\" or \"what should I cook tonight?\"",
	}, nil
}
