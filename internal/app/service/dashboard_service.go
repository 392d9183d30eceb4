package service

import (
	"context"

	"github.com/shopspring/decimal"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/repository"
)

const (
	lowStockThreshold = 5
	lowStockLimit     = 10
	topBooksLimit     = 5
)

type (
	OrderStats struct {
		TotalOrders        int64
		OrdersByStatus     map[string]int64
		OrdersByPickupType map[string]int64
		TotalDeliveryFees  decimal.Decimal
	}
	ReturnOrderStats struct {
		TotalReturnOrders    int64
		ReturnOrdersByStatus map[string]int64
		LostBooks            int64
		DamagedBooks         int64
	}
	FinancialStats struct {
		TotalPurchaseRevenue      decimal.Decimal
		TotalBorrowingRevenue     decimal.Decimal
		TotalDeliveryRevenue      decimal.Decimal
		TotalPromoCodeDiscounts   decimal.Decimal
		TotalWalletDeposits       decimal.Decimal
		TotalWalletWithdrawals    decimal.Decimal
		TotalCurrentWalletBalance decimal.Decimal
	}
	InventoryStats struct {
		TotalBooks           int64
		BooksByStatus        map[string]int64
		LowStockBooks        []repository.LowStockBook
		TopBestsellingBooks  []repository.TopSellingBook
		TopMostBorrowedBooks []repository.MostBorrowedBook
	}
	UserStats struct {
		TotalUsers  int64
		UsersByRole map[string]int64
	}
	DashboardStats struct {
		OrderStats       OrderStats
		ReturnOrderStats ReturnOrderStats
		FinancialStats   FinancialStats
		InventoryStats   InventoryStats
		UserStats        UserStats
	}
	// DashboardService assembles the manager dashboard from the
	// aggregate queries.
	DashboardService interface {
		GetDashboardStats(ctx context.Context) (*DashboardStats, error)
	}
	DashboardServiceImpl struct {
		statsRepo repository.StatsRepository
	}
)

func NewDashboardService(statsRepo repository.StatsRepository) *DashboardServiceImpl {
	return &DashboardServiceImpl{statsRepo: statsRepo}
}

func toCountMap(rows []repository.StatusCount) map[string]int64 {
	m := make(map[string]int64, len(rows))
	for _, row := range rows {
		m[row.Key] = row.Count
	}
	return m
}

func (ds *DashboardServiceImpl) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	totalOrders, err := ds.statsRepo.CountOrders(ctx)
	if err != nil {
		return nil, appErrors.New(err, "count orders")
	}
	ordersByStatus, err := ds.statsRepo.OrdersByStatus(ctx)
	if err != nil {
		return nil, appErrors.New(err, "orders by status")
	}
	ordersByPickupType, err := ds.statsRepo.OrdersByPickupType(ctx)
	if err != nil {
		return nil, appErrors.New(err, "orders by pickup type")
	}
	totalDeliveryFees, err := ds.statsRepo.TotalDeliveryFees(ctx)
	if err != nil {
		return nil, appErrors.New(err, "total delivery fees")
	}
	stats.OrderStats = OrderStats{
		TotalOrders:        totalOrders,
		OrdersByStatus:     toCountMap(ordersByStatus),
		OrdersByPickupType: toCountMap(ordersByPickupType),
		TotalDeliveryFees:  totalDeliveryFees,
	}

	totalReturnOrders, err := ds.statsRepo.CountReturnOrders(ctx)
	if err != nil {
		return nil, appErrors.New(err, "count return orders")
	}
	returnOrdersByStatus, err := ds.statsRepo.ReturnOrdersByStatus(ctx)
	if err != nil {
		return nil, appErrors.New(err, "return orders by status")
	}
	lostBooks, err := ds.statsRepo.CountBorrowProblems(ctx, models.ProblemLost.String())
	if err != nil {
		return nil, appErrors.New(err, "count lost books")
	}
	damagedBooks, err := ds.statsRepo.CountBorrowProblems(ctx, models.ProblemDamaged.String())
	if err != nil {
		return nil, appErrors.New(err, "count damaged books")
	}
	stats.ReturnOrderStats = ReturnOrderStats{
		TotalReturnOrders:    totalReturnOrders,
		ReturnOrdersByStatus: toCountMap(returnOrdersByStatus),
		LostBooks:            lostBooks,
		DamagedBooks:         damagedBooks,
	}

	totals, err := ds.statsRepo.FinancialTotals(ctx)
	if err != nil {
		return nil, appErrors.New(err, "financial totals")
	}
	stats.FinancialStats = FinancialStats{
		TotalPurchaseRevenue:      totals.PurchaseRevenue,
		TotalBorrowingRevenue:     totals.BorrowingRevenue,
		TotalDeliveryRevenue:      totalDeliveryFees,
		TotalPromoCodeDiscounts:   totals.PromoCodeDiscounts,
		TotalWalletDeposits:       totals.WalletDeposits,
		TotalWalletWithdrawals:    totals.WalletWithdrawals,
		TotalCurrentWalletBalance: totals.WalletBalance,
	}

	totalBooks, err := ds.statsRepo.CountBooks(ctx)
	if err != nil {
		return nil, appErrors.New(err, "count books")
	}
	booksByStatus, err := ds.statsRepo.BooksByStatus(ctx)
	if err != nil {
		return nil, appErrors.New(err, "books by status")
	}
	lowStockBooks, err := ds.statsRepo.LowStockBooks(ctx, lowStockThreshold, lowStockLimit)
	if err != nil {
		return nil, appErrors.New(err, "low stock books")
	}
	topSelling, err := ds.statsRepo.TopSellingBooks(ctx, topBooksLimit)
	if err != nil {
		return nil, appErrors.New(err, "top selling books")
	}
	mostBorrowed, err := ds.statsRepo.MostBorrowedBooks(ctx, topBooksLimit)
	if err != nil {
		return nil, appErrors.New(err, "most borrowed books")
	}
	stats.InventoryStats = InventoryStats{
		TotalBooks:           totalBooks,
		BooksByStatus:        toCountMap(booksByStatus),
		LowStockBooks:        lowStockBooks,
		TopBestsellingBooks:  topSelling,
		TopMostBorrowedBooks: mostBorrowed,
	}

	totalUsers, err := ds.statsRepo.CountUsers(ctx)
	if err != nil {
		return nil, appErrors.New(err, "count users")
	}
	usersByRole, err := ds.statsRepo.UsersByRole(ctx)
	if err != nil {
		return nil, appErrors.New(err, "users by role")
	}
	stats.UserStats = UserStats{
		TotalUsers:  totalUsers,
		UsersByRole: toCountMap(usersByRole),
	}

	return stats, nil
}
