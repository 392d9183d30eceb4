package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/ujwegh/bookmart/internal/app/models"
)

func testSettings() *models.Settings {
	return &models.Settings{
		ID:                  1,
		DepositPerc:         decimal.NewFromInt(30),
		BorrowPerc:          decimal.NewFromInt(10),
		DelayPerc:           decimal.NewFromInt(3),
		DeliveryFees:        decimal.NewFromInt(20),
		MinBorrowFee:        decimal.NewFromInt(5),
		MaxNumOfBorrowBooks: 3,
	}
}

func TestCalculateBorrowFees(t *testing.T) {
	twenty := decimal.NewFromInt(20)
	tests := []struct {
		name              string
		bookPrice         string
		borrowingWeeks    int
		promoCodePerc     *decimal.Decimal
		wantBorrowFees    string
		wantDepositFees   string
		wantDelayPerDay   string
		wantPromoDiscount string
	}{
		{
			name:              "Percentage Fee Above Minimum",
			bookPrice:         "100.00",
			borrowingWeeks:    2,
			wantBorrowFees:    "20.00",
			wantDepositFees:   "30.00",
			wantDelayPerDay:   "1.47",
			wantPromoDiscount: "0.00",
		},
		{
			name:              "Promo Code Discount On Borrow Fees",
			bookPrice:         "100.00",
			borrowingWeeks:    2,
			promoCodePerc:     &twenty,
			wantBorrowFees:    "16.00",
			wantDepositFees:   "30.00",
			wantDelayPerDay:   "1.47",
			wantPromoDiscount: "4.00",
		},
		{
			name:              "Minimum Fee Floor For Cheap Book",
			bookPrice:         "20.00",
			borrowingWeeks:    1,
			wantBorrowFees:    "5.00",
			wantDepositFees:   "6.00",
			wantDelayPerDay:   "0.74",
			wantPromoDiscount: "0.00",
		},
		{
			name:              "Four Weeks",
			bookPrice:         "100.00",
			borrowingWeeks:    4,
			wantBorrowFees:    "40.00",
			wantDepositFees:   "30.00",
			wantDelayPerDay:   "1.47",
			wantPromoDiscount: "0.00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateBorrowFees(mustDecimal(t, tt.bookPrice), tt.borrowingWeeks, testSettings(), tt.promoCodePerc)
			if !got.BorrowFees.Equal(mustDecimal(t, tt.wantBorrowFees)) {
				t.Errorf("BorrowFees = %s, want %s", got.BorrowFees, tt.wantBorrowFees)
			}
			if !got.DepositFees.Equal(mustDecimal(t, tt.wantDepositFees)) {
				t.Errorf("DepositFees = %s, want %s", got.DepositFees, tt.wantDepositFees)
			}
			if !got.DelayFeesPerDay.Equal(mustDecimal(t, tt.wantDelayPerDay)) {
				t.Errorf("DelayFeesPerDay = %s, want %s", got.DelayFeesPerDay, tt.wantDelayPerDay)
			}
			if !got.PromoCodeDiscount.Equal(mustDecimal(t, tt.wantPromoDiscount)) {
				t.Errorf("PromoCodeDiscount = %s, want %s", got.PromoCodeDiscount, tt.wantPromoDiscount)
			}
		})
	}
}

func TestCalculatePurchaseFees(t *testing.T) {
	ten := decimal.NewFromInt(10)
	tests := []struct {
		name          string
		bookPrice     string
		promoCodePerc *decimal.Decimal
		wantPaid      string
		wantDiscount  string
	}{
		{
			name:         "No Promo Code",
			bookPrice:    "50.00",
			wantPaid:     "50.00",
			wantDiscount: "0.00",
		},
		{
			name:          "Promo Code Applied Per Book",
			bookPrice:     "50.00",
			promoCodePerc: &ten,
			wantPaid:      "45.00",
			wantDiscount:  "5.00",
		},
		{
			name:          "Discount Rounded To Cents",
			bookPrice:     "33.35",
			promoCodePerc: &ten,
			wantPaid:      "30.02",
			wantDiscount:  "3.34",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePurchaseFees(mustDecimal(t, tt.bookPrice), tt.promoCodePerc)
			if !got.PaidPricePerBook.Equal(mustDecimal(t, tt.wantPaid)) {
				t.Errorf("PaidPricePerBook = %s, want %s", got.PaidPricePerBook, tt.wantPaid)
			}
			if !got.PromoCodeDiscountPerBook.Equal(mustDecimal(t, tt.wantDiscount)) {
				t.Errorf("PromoCodeDiscountPerBook = %s, want %s", got.PromoCodeDiscountPerBook, tt.wantDiscount)
			}
		})
	}
}
