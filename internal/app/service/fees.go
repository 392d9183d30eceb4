package service

import (
	"github.com/shopspring/decimal"
	"github.com/ujwegh/bookmart/internal/app/models"
)

type (
	// BorrowFees are the money snapshots stored on a borrow line at order
	// time. PromoCodeDiscount is zero when no promo code applies.
	BorrowFees struct {
		BorrowFees        decimal.Decimal
		DepositFees       decimal.Decimal
		DelayFeesPerDay   decimal.Decimal
		PromoCodeDiscount decimal.Decimal
	}
	PurchaseFees struct {
		PaidPricePerBook         decimal.Decimal
		PromoCodeDiscountPerBook decimal.Decimal
	}
)

var hundred = decimal.NewFromInt(100)
var seven = decimal.NewFromInt(7)

// CalculateBorrowFees derives the fee snapshot for one borrowed book.
// The weekly base fee is a percentage of the book price with a flat
// floor; the delay fee is the daily equivalent of the base fee plus a
// surcharge percentage on top of it. Intermediate values keep full
// precision, only the returned amounts are rounded to cents, half up.
func CalculateBorrowFees(bookPrice decimal.Decimal, borrowingWeeks int, settings *models.Settings, promoCodePerc *decimal.Decimal) BorrowFees {
	feeFromPercentage := bookPrice.Mul(settings.BorrowPerc.Div(hundred))
	baseBorrowFeePerWeek := decimal.Max(feeFromPercentage, settings.MinBorrowFee)

	originalBorrowingFees := baseBorrowFeePerWeek.Mul(decimal.NewFromInt(int64(borrowingWeeks)))
	depositFees := bookPrice.Mul(settings.DepositPerc.Div(hundred))

	dailyEquivalentBorrowFee := baseBorrowFeePerWeek.Div(seven)
	dailyDelayAmount := dailyEquivalentBorrowFee.Mul(settings.DelayPerc.Div(hundred))
	delayFeesPerDay := dailyEquivalentBorrowFee.Add(dailyDelayAmount)

	borrowFees := originalBorrowingFees
	promoCodeDiscount := decimal.Zero
	if promoCodePerc != nil {
		promoCodeDiscount = originalBorrowingFees.Mul(promoCodePerc.Div(hundred))
		borrowFees = originalBorrowingFees.Sub(promoCodeDiscount)
	}

	return BorrowFees{
		BorrowFees:        borrowFees.Round(2),
		DepositFees:       depositFees.Round(2),
		DelayFeesPerDay:   delayFeesPerDay.Round(2),
		PromoCodeDiscount: promoCodeDiscount.Round(2),
	}
}

// CalculatePurchaseFees derives the per-unit paid price for a purchased
// book, applying the promo discount when one is given.
func CalculatePurchaseFees(bookPrice decimal.Decimal, promoCodePerc *decimal.Decimal) PurchaseFees {
	promoCodeDiscountPerBook := decimal.Zero
	paidPricePerBook := bookPrice
	if promoCodePerc != nil {
		promoCodeDiscountPerBook = bookPrice.Mul(promoCodePerc.Div(hundred))
		paidPricePerBook = bookPrice.Sub(promoCodeDiscountPerBook)
	}
	return PurchaseFees{
		PaidPricePerBook:         paidPricePerBook.Round(2),
		PromoCodeDiscountPerBook: promoCodeDiscountPerBook.Round(2),
	}
}
