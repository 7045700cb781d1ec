package receipt

import "strings"

// ClassifierRule maps item-name keywords to a category. Rules are evaluated
// in declaration order and the first matching rule wins, so the order below
// is part of the classifier's contract: changing it changes how historical
// receipts reclassify.
type ClassifierRule struct {
	Category Category
	Keywords []string
}

// defaultRules is the stable, ordered rule table. Matching is
// case-insensitive substring match against the item name.
func defaultRules() []ClassifierRule {
	return []ClassifierRule{
		{CategoryProduce, []string{
			"banana", "apple", "orange", "spinach", "lettuce", "tomato",
			"onion", "pepper", "potato", "carrot", "broccoli", "fruit",
			"vegetable", "produce", "avocado", "cucumber",
		}},
		{CategoryDairy, []string{
			"milk", "yogurt", "yoghurt", "cheese", "butter", "cream",
			"paneer", "curd", "egg", "ghee",
		}},
		{CategoryBakery, []string{
			"bread", "bun", "bagel", "croissant", "cake", "muffin",
			"roll", "tortilla",
		}},
		{CategoryMeat, []string{
			"chicken", "beef", "pork", "fish", "salmon", "mutton",
			"lamb", "turkey", "prawn", "shrimp", "bacon", "sausage",
		}},
		{CategoryPantry, []string{
			"rice", "flour", "oil", "pasta", "sugar", "salt", "spice",
			"sauce", "lentil", "dal", "cereal", "beans", "noodle",
			"vinegar", "honey",
		}},
		{CategoryBeverages, []string{
			"juice", "soda", "coffee", "tea", "water", "cola", "beer",
			"wine", "drink",
		}},
		{CategorySnacks, []string{
			"chips", "chocolate", "cookie", "candy", "biscuit",
			"popcorn", "cracker", "granola",
		}},
		{CategoryHousehold, []string{
			"detergent", "cleaner", "tissue", "paper towel", "toilet",
			"sponge", "trash bag", "foil", "laundry",
		}},
		{CategoryPersonalCare, []string{
			"shampoo", "soap", "toothpaste", "lotion", "deodorant",
			"razor", "conditioner", "sunscreen",
		}},
	}
}

// Classifier assigns spending categories to item names. It is a pure
// function of its rule table: re-running it over historical receipts with
// the same rules always yields the same categories.
type Classifier struct {
	rules []ClassifierRule
}

// NewClassifier creates a Classifier with the default rule table.
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultRules()}
}

// NewClassifierWithRules creates a Classifier with a custom rule table.
func NewClassifierWithRules(rules []ClassifierRule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the category for an item name, or CategoryOther when no
// rule matches.
func (c *Classifier) Classify(name string) Category {
	lower := strings.ToLower(name)
	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return rule.Category
			}
		}
	}
	return CategoryOther
}
