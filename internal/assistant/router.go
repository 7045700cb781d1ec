package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/aryansanganti/receipt-wallet/internal/analytics"
	"github.com/aryansanganti/receipt-wallet/internal/wallet"
)

// Intent is a query class the router can dispatch to.
type Intent string

const (
	IntentRecipe   Intent = "recipe"
	IntentSpending Intent = "spending"
	IntentShopping Intent = "shopping"
	IntentFallback Intent = "fallback"
)

// Response is a single-turn answer. CandidatePass, when present, is not
// persisted; the caller decides whether to commit it via the pass manager.
type Response struct {
	Intent        Intent       `json:"intent"`
	Content       string       `json:"content"`
	CandidatePass *wallet.Pass `json:"candidate_pass,omitempty"`
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// handlerFunc answers one normalized query.
type handlerFunc func(query string) (*Response, error)

// route pairs an intent's match predicate with its handler. Routes are
// checked in registration order; the first match wins. That precedence is
// a contract: "I need a recipe to cook within budget" must route to recipe
// even though it also mentions budget and need.
type route struct {
	intent  Intent
	matches func(query string) bool
	handle  handlerFunc
}

// Router classifies free-text queries into intents and dispatches them.
// It keeps no conversation state; every call is a single turn.
type Router struct {
	routes     []route
	fallback   handlerFunc
	source     analytics.ReceiptSource
	engine     *analytics.Engine
	timeSource TimeSource
}

// NewRouter creates a Router over the receipt history.
func NewRouter(source analytics.ReceiptSource, engine *analytics.Engine) *Router {
	return NewRouterWithDeps(source, engine, &defaultTimeSource{})
}

// NewRouterWithDeps creates a Router with a custom time source for testing.
func NewRouterWithDeps(source analytics.ReceiptSource, engine *analytics.Engine, timeSrc TimeSource) *Router {
	r := &Router{
		source:     source,
		engine:     engine,
		timeSource: timeSrc,
	}
	r.routes = []route{
		{IntentRecipe, keywordMatcher("recipe", "cook", "food", "meal", "ingredient", "dish"), r.handleRecipe},
		{IntentSpending, keywordMatcher("spend", "money", "budget", "expense", "cost"), r.handleSpending},
		{IntentShopping, keywordMatcher("shopping", "buy", "need", "list", "restock"), r.handleShopping},
	}
	r.fallback = r.handleFallback
	return r
}

func keywordMatcher(keywords ...string) func(string) bool {
	return func(query string) bool {
		for _, keyword := range keywords {
			if strings.Contains(query, keyword) {
				return true
			}
		}
		return false
	}
}

// Ask classifies the query and dispatches to the matching handler.
func (r *Router) Ask(text string) (*Response, error) {
	query := strings.ToLower(strings.TrimSpace(text))
	for _, route := range r.routes {
		if route.matches(query) {
			return route.handle(query)
		}
	}
	return r.fallback(query)
}

// recentItemNames returns distinct item names purchased in the last `days`,
// most recent first, capped at `limit`.
func (r *Router) recentItemNames(days, limit int) ([]string, error) {
	now := r.timeSource.Now()
	receipts, err := r.source.ListReceiptsByDate(now.AddDate(0, 0, -days), now.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("retrieving purchase history: %w", err)
	}

	seen := make(map[string]bool)
	names := make([]string, 0, limit)
	for i := len(receipts) - 1; i >= 0; i-- {
		for _, item := range receipts[i].Items {
			key := strings.ToLower(item.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			names = append(names, item.Name)
			if len(names) == limit {
				return names, nil
			}
		}
	}
	return names, nil
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
