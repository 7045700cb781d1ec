package receipt

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aryansanganti/receipt-wallet/internal/money"
)

func testReceipt(id string, date time.Time) *Receipt {
	return &Receipt{
		ID:        id,
		StoreName: "Local Mart",
		Date:      date,
		Currency:  "USD",
		Subtotal:  money.New(1000, "USD"),
		Tax:       money.New(80, "USD"),
		Total:     money.New(1080, "USD"),
		Items: []Item{
			{Name: "Milk", Quantity: 1, UnitPrice: money.New(1000, "USD"), Category: CategoryDairy},
		},
		Confidence: 0.9,
		CreatedAt:  time.Now(),
	}
}

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveReceipt", func() {
		var (
			receipt *Receipt
			err     error
		)

		BeforeEach(func() {
			receipt = testReceipt("r-1", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
		})

		JustBeforeEach(func() {
			err = db.SaveReceipt(receipt)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the receipt round-trip intact", func() {
				saved, getErr := db.GetReceipt("r-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.StoreName).To(Equal("Local Mart"))
				Expect(saved.Items).To(HaveLen(1))
				Expect(saved.Items[0].UnitPrice).To(Equal(money.New(1000, "USD")))
			})
		})
	})

	Describe("GetReceipt", func() {
		When("the receipt does not exist", func() {
			It("should return ErrReceiptNotFound", func() {
				_, err := db.GetReceipt("missing")
				Expect(err).To(MatchError(ErrReceiptNotFound))
			})
		})
	})

	Describe("ListReceiptsByDate", func() {
		var (
			start    time.Time
			end      time.Time
			receipts []*Receipt
			err      error
		)

		BeforeEach(func() {
			for _, day := range []int{5, 10, 15, 20} {
				r := testReceipt(
					"r-"+time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC).Format("02"),
					time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
				)
				Expect(db.SaveReceipt(r)).To(Succeed())
			}
		})

		JustBeforeEach(func() {
			receipts, err = db.ListReceiptsByDate(start, end)
		})

		When("the range covers some receipts", func() {
			BeforeEach(func() {
				start = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
				end = time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
			})

			It("should return only receipts inside [start, end)", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).To(HaveLen(2))
			})

			It("should order them by date ascending", func() {
				Expect(receipts[0].Date.Before(receipts[1].Date)).To(BeTrue())
			})
		})

		When("the end bound equals a receipt date", func() {
			BeforeEach(func() {
				start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
				end = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
			})

			It("should exclude the end date", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).To(HaveLen(2))
			})
		})

		When("the range covers nothing", func() {
			BeforeEach(func() {
				start = time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
				end = time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
			})

			It("should return an empty slice", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).To(BeEmpty())
			})
		})
	})

	Describe("ListReceipts", func() {
		When("receipts exist", func() {
			BeforeEach(func() {
				Expect(db.SaveReceipt(testReceipt("a", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))).To(Succeed())
				Expect(db.SaveReceipt(testReceipt("b", time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)))).To(Succeed())
			})

			It("should return all of them", func() {
				receipts, err := db.ListReceipts()
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).To(HaveLen(2))
			})
		})

		When("the database is empty", func() {
			It("should return an empty slice", func() {
				receipts, err := db.ListReceipts()
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).To(BeEmpty())
			})
		})
	})
})
