package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Classifier", func() {
	var classifier *Classifier

	BeforeEach(func() {
		classifier = NewClassifier()
	})

	DescribeTable("Classify",
		func(name string, expected Category) {
			Expect(classifier.Classify(name)).To(Equal(expected))
		},
		Entry("milk is dairy", "Milk", CategoryDairy),
		Entry("almond milk is dairy", "Almond Milk", CategoryDairy),
		Entry("greek yogurt is dairy", "Greek Yogurt", CategoryDairy),
		Entry("bananas are produce", "Organic Bananas", CategoryProduce),
		Entry("bell peppers are produce", "Bell Peppers", CategoryProduce),
		Entry("bread is bakery", "Whole Grain Bread", CategoryBakery),
		Entry("chicken is meat", "Chicken Breast", CategoryMeat),
		Entry("olive oil is pantry", "Olive Oil", CategoryPantry),
		Entry("detergent is household", "Laundry Detergent", CategoryHousehold),
		Entry("matching is case-insensitive", "CHICKEN THIGHS", CategoryMeat),
		Entry("no match falls back to Other", "Phone Charger", CategoryOther),
		Entry("empty name falls back to Other", "", CategoryOther),
	)

	When("an item name matches multiple rules", func() {
		It("should resolve by rule declaration order", func() {
			// "tomato sauce" matches Produce (tomato) before Pantry (sauce)
			Expect(classifier.Classify("Tomato Sauce")).To(Equal(CategoryProduce))
		})
	})

	When("reclassifying the same name repeatedly", func() {
		It("should be deterministic", func() {
			first := classifier.Classify("Chocolate Chip Cookies")
			for i := 0; i < 10; i++ {
				Expect(classifier.Classify("Chocolate Chip Cookies")).To(Equal(first))
			}
		})
	})

	When("using a custom rule table", func() {
		It("should honor the custom order", func() {
			custom := NewClassifierWithRules([]ClassifierRule{
				{CategoryPantry, []string{"sauce"}},
				{CategoryProduce, []string{"tomato"}},
			})
			Expect(custom.Classify("Tomato Sauce")).To(Equal(CategoryPantry))
		})
	})
})
