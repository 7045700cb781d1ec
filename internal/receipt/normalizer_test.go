package receipt

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aryansanganti/receipt-wallet/internal/money"
	"github.com/aryansanganti/receipt-wallet/internal/scanning"
)

var _ = Describe("Normalizer", func() {
	var (
		normalizer *Normalizer
		extraction *scanning.Extraction
		result     *Receipt
		err        error
	)

	BeforeEach(func() {
		normalizer = NewNormalizerWithDeps(
			NewClassifier(),
			DefaultConfidenceThreshold,
			&mockIDGenerator{id: "receipt-1"},
			&mockTimeSource{now: time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)},
		)
		extraction = &scanning.Extraction{
			StoreName:  "Local Mart",
			Date:       "2024-01-15",
			Currency:   "INR",
			Subtotal:   600.00,
			Tax:        60.00,
			Total:      660.00,
			Items:      []scanning.ExtractedItem{{Name: "Milk", Quantity: 1, UnitPrice: 600.00}},
			Confidence: 0.95,
		}
	})

	JustBeforeEach(func() {
		result, err = normalizer.Normalize(extraction, "blobs/scan-1.png")
	})

	When("the extraction is clean", func() {
		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should not need review", func() {
			Expect(result.NeedsReview).To(BeFalse())
			Expect(result.ReviewReasons).To(BeEmpty())
		})

		It("should assign an id and creation time", func() {
			Expect(result.ID).To(Equal("receipt-1"))
			Expect(result.CreatedAt).To(Equal(time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)))
		})

		It("should parse monetary fields into minor units", func() {
			Expect(result.Subtotal).To(Equal(money.New(60000, "INR")))
			Expect(result.Tax).To(Equal(money.New(6000, "INR")))
			Expect(result.Total).To(Equal(money.New(66000, "INR")))
		})

		It("should categorize items", func() {
			Expect(result.Items).To(HaveLen(1))
			Expect(result.Items[0].Category).To(Equal(CategoryDairy))
		})

		It("should recompute line totals from quantity and unit price", func() {
			Expect(result.Items[0].LineTotal()).To(Equal(money.New(60000, "INR")))
		})

		It("should carry the source reference opaquely", func() {
			Expect(result.SourceRef).To(Equal("blobs/scan-1.png"))
		})
	})

	When("the store name is missing", func() {
		BeforeEach(func() {
			extraction.StoreName = ""
		})

		It("should hard-reject with MalformedReceiptError", func() {
			Expect(result).To(BeNil())
			Expect(IsMalformed(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("store name"))
		})
	})

	When("the date is missing or unparseable", func() {
		BeforeEach(func() {
			extraction.Date = ""
		})

		It("should hard-reject with MalformedReceiptError", func() {
			Expect(IsMalformed(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("date"))
		})
	})

	When("an item quantity is zero", func() {
		BeforeEach(func() {
			extraction.Items[0].Quantity = 0
		})

		It("should clamp the quantity to 1", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Items[0].Quantity).To(Equal(1))
		})

		It("should record the clamping as a review flag", func() {
			Expect(result.NeedsReview).To(BeTrue())
			Expect(result.ReviewReasons).To(ContainElement(ContainSubstring("quantity clamped")))
		})
	})

	When("an item price cannot be parsed", func() {
		BeforeEach(func() {
			extraction.Items = append(extraction.Items, scanning.ExtractedItem{
				Name: "Mystery Item", Quantity: 2, UnitPrice: "???",
			})
		})

		It("should keep the item with a zero price", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Items).To(HaveLen(2))
			Expect(result.Items[1].UnitPrice).To(Equal(money.Zero("INR")))
		})

		It("should mark the receipt for review", func() {
			Expect(result.NeedsReview).To(BeTrue())
			Expect(result.ReviewReasons).To(ContainElement(ContainSubstring("Mystery Item")))
		})
	})

	When("an item has no name", func() {
		BeforeEach(func() {
			extraction.Items = append(extraction.Items, scanning.ExtractedItem{
				Name: "", Quantity: 1, UnitPrice: 2.50,
			})
		})

		It("should drop the item and flag review", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Items).To(HaveLen(1))
			Expect(result.ReviewReasons).To(ContainElement(ContainSubstring("unnamed")))
		})
	})

	When("the declared total disagrees with subtotal plus tax", func() {
		BeforeEach(func() {
			extraction.Total = 700.00
		})

		It("should still create the receipt", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result).NotTo(BeNil())
		})

		It("should mark the receipt for review", func() {
			Expect(result.NeedsReview).To(BeTrue())
			Expect(result.ReviewReasons).To(ContainElement(ContainSubstring("total")))
		})
	})

	When("the mismatch is within one minor unit of rounding", func() {
		BeforeEach(func() {
			extraction.Total = 660.01
		})

		It("should not need review", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NeedsReview).To(BeFalse())
		})
	})

	When("extraction confidence is below the threshold", func() {
		BeforeEach(func() {
			extraction.Confidence = 0.4
		})

		It("should force review even with consistent arithmetic", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NeedsReview).To(BeTrue())
			Expect(result.ReviewReasons).To(ContainElement(ContainSubstring("confidence")))
		})
	})

	When("the currency is missing", func() {
		BeforeEach(func() {
			extraction.Currency = ""
		})

		It("should default the currency and flag review", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Currency).To(Equal("USD"))
			Expect(result.NeedsReview).To(BeTrue())
		})
	})
})
