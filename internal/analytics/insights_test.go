package analytics

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aryansanganti/receipt-wallet/internal/money"
	"github.com/aryansanganti/receipt-wallet/internal/receipt"
)

var _ = Describe("Generator", func() {
	var (
		generator *Generator
		totals    []CategoryTotal
		insights  []Insight
	)

	BeforeEach(func() {
		generator = NewGenerator()
		totals = nil
	})

	JustBeforeEach(func() {
		insights = generator.Generate(totals)
	})

	When("a category's spending rose past the warning threshold", func() {
		BeforeEach(func() {
			totals = []CategoryTotal{{
				Category:            receipt.CategoryProduce,
				Amount:              money.New(45678, "INR"),
				Percentage:          36.6,
				Change:              15.2,
				ReferencePercentage: 33.0,
			}}
		})

		It("should generate a warning citing amount and increase", func() {
			Expect(insights).To(HaveLen(1))
			Expect(insights[0].Severity).To(Equal(SeverityWarning))
			Expect(insights[0].Title).To(ContainSubstring("up 15.2%"))
			Expect(insights[0].Description).To(ContainSubstring("456.78 INR"))
		})
	})

	When("a category's spending fell past the success threshold", func() {
		BeforeEach(func() {
			totals = []CategoryTotal{{
				Category:   receipt.CategoryBeverages,
				Amount:     money.New(23456, "INR"),
				Percentage: 18.8,
				Change:     -8.3,
			}}
		})

		It("should generate a success citing the decrease", func() {
			Expect(insights).To(HaveLen(1))
			Expect(insights[0].Severity).To(Equal(SeveritySuccess))
			Expect(insights[0].Description).To(ContainSubstring("8.3%"))
		})
	})

	When("a category's share of spending jumped with moderate change", func() {
		BeforeEach(func() {
			totals = []CategoryTotal{{
				Category:            receipt.CategorySnacks,
				Amount:              money.New(16789, "INR"),
				Percentage:          25.0,
				Change:              8.0, // below warning, above success
				ReferencePercentage: 12.0,
			}}
		})

		It("should generate a spike info insight", func() {
			Expect(insights).To(HaveLen(1))
			Expect(insights[0].Severity).To(Equal(SeverityInfo))
			Expect(insights[0].Title).To(ContainSubstring("spike"))
		})
	})

	When("a category is new this period", func() {
		BeforeEach(func() {
			totals = []CategoryTotal{{
				Category:   receipt.CategoryPersonalCare,
				Amount:     money.New(5000, "INR"),
				Percentage: 100.0,
				Change:     NewCategoryChange,
			}}
		})

		It("should generate a single info insight, not a warning", func() {
			Expect(insights).To(HaveLen(1))
			Expect(insights[0].Severity).To(Equal(SeverityInfo))
			Expect(insights[0].Title).To(ContainSubstring("New spending category"))
		})
	})

	When("a category changed moderately with a stable share", func() {
		BeforeEach(func() {
			totals = []CategoryTotal{{
				Category:            receipt.CategoryPantry,
				Amount:              money.New(10000, "INR"),
				Percentage:          20.0,
				Change:              3.0,
				ReferencePercentage: 19.0,
			}}
		})

		It("should generate nothing", func() {
			Expect(insights).To(BeEmpty())
		})
	})

	When("multiple categories trigger rules", func() {
		BeforeEach(func() {
			totals = []CategoryTotal{
				{Category: receipt.CategoryBakery, Amount: money.New(1000, "INR"), Change: 12.0},
				{Category: receipt.CategoryMeat, Amount: money.New(2000, "INR"), Change: -40.0},
				{Category: receipt.CategoryDairy, Amount: money.New(3000, "INR"), Change: 22.1},
			}
		})

		It("should order insights by descending absolute change", func() {
			Expect(insights).To(HaveLen(3))
			Expect(insights[0].Title).To(ContainSubstring("Meat"))
			Expect(insights[1].Title).To(ContainSubstring("Dairy"))
			Expect(insights[2].Title).To(ContainSubstring("Bakery"))
		})

		It("should generate at most one insight per category", func() {
			seen := map[string]bool{}
			for _, in := range insights {
				Expect(seen[in.Title]).To(BeFalse())
				seen[in.Title] = true
			}
		})
	})
})
