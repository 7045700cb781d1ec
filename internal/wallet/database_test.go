package wallet

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aryansanganti/receipt-wallet/internal/money"
)

func testPass(id string) *Pass {
	amount := money.New(124783, "INR")
	return &Pass{
		ID:          id,
		Kind:        KindInsights,
		Title:       "January Spending Insights",
		Description: "Monthly financial analysis and recommendations",
		Items:       []string{"Dairy: 65.00 INR (52%)"},
		Amount:      &amount,
		Status:      StatusActive,
		CreatedAt:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
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
		dbPath = filepath.Join(tmpDir, "passes.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SavePass", func() {
		It("should save the pass round-trip intact", func() {
			Expect(db.SavePass(testPass("p-1"))).To(Succeed())

			saved, err := db.GetPass("p-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Kind).To(Equal(KindInsights))
			Expect(saved.Amount).NotTo(BeNil())
			Expect(*saved.Amount).To(Equal(money.New(124783, "INR")))
			Expect(saved.Items).To(HaveLen(1))
		})
	})

	Describe("GetPass", func() {
		When("the pass does not exist", func() {
			It("should return ErrPassNotFound", func() {
				_, err := db.GetPass("missing")
				Expect(err).To(MatchError(ErrPassNotFound))
			})
		})
	})

	Describe("ListPasses", func() {
		When("passes exist", func() {
			BeforeEach(func() {
				Expect(db.SavePass(testPass("p-1"))).To(Succeed())
				Expect(db.SavePass(testPass("p-2"))).To(Succeed())
			})

			It("should return all of them", func() {
				passes, err := db.ListPasses()
				Expect(err).NotTo(HaveOccurred())
				Expect(passes).To(HaveLen(2))
			})
		})

		When("the database is empty", func() {
			It("should return an empty slice", func() {
				passes, err := db.ListPasses()
				Expect(err).NotTo(HaveOccurred())
				Expect(passes).To(BeEmpty())
			})
		})
	})

	Describe("DeletePass", func() {
		BeforeEach(func() {
			Expect(db.SavePass(testPass("p-1"))).To(Succeed())
		})

		It("should remove the pass", func() {
			Expect(db.DeletePass("p-1")).To(Succeed())
			_, err := db.GetPass("p-1")
			Expect(err).To(MatchError(ErrPassNotFound))
		})

		It("should return ErrPassNotFound for a missing pass", func() {
			Expect(db.DeletePass("missing")).To(MatchError(ErrPassNotFound))
		})
	})
})
