package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/ujwegh/bookmart/internal/app/handlers"
	middlware "github.com/ujwegh/bookmart/internal/app/middleware"
	"github.com/ujwegh/bookmart/internal/app/models"
)

func NewAppRouter(uh *handlers.UserHandler,
	bh *handlers.BooksHandler,
	ch *handlers.CartHandler,
	oh *handlers.OrdersHandler,
	rh *handlers.ReturnOrdersHandler,
	wh *handlers.WalletHandler,
	mh *handlers.ManagerHandler,
	am middlware.AuthMiddleware) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middlware.RequestLogger)
	r.Use(middlware.ResponseLogger)

	r.Post("/api/user/register", uh.Register)
	r.Post("/api/user/login", uh.Login)

	r.Group(func(r chi.Router) {
		r.Use(am.Authenticate)

		r.Get("/api/user/profile", uh.GetProfile)

		r.Get("/api/books", bh.ListBooks)

		r.Get("/api/cart", ch.GetCart)
		r.Post("/api/cart", ch.AddItem)
		r.Delete("/api/cart/{bookDetailsID}", ch.RemoveItem)

		r.Post("/api/orders", oh.CreateOrder)
		r.Get("/api/orders", oh.GetOrders)
		r.Get("/api/orders/{orderID}", oh.GetOrderDetails)

		r.Get("/api/return-orders/borrowed-books", rh.GetBorrowedBooks)
		r.Post("/api/return-orders", rh.CreateReturnOrder)
		r.Get("/api/return-orders", rh.GetReturnOrders)
		r.Get("/api/return-orders/{returnOrderID}", rh.GetReturnOrderDetails)

		r.Get("/api/wallet/balance", wh.GetBalance)
		r.Post("/api/wallet/top-up", wh.TopUp)
		r.Get("/api/wallet/transactions", wh.GetTransactions)

		r.Group(func(r chi.Router) {
			r.Use(middlware.RequireRoles(models.EMPLOYEE, models.COURIER, models.MANAGER))

			r.Get("/api/staff/orders", oh.GetStaffOrders)
			r.Patch("/api/staff/orders/order-status", oh.UpdateOrderStatus)
			r.Patch("/api/staff/orders/borrow-book-problem", oh.UpdateBorrowProblem)
			r.Get("/api/staff/return-orders", rh.GetStaffReturnOrders)
			r.Patch("/api/staff/return-orders/status", rh.UpdateReturnStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(middlware.RequireRoles(models.MANAGER))

			r.Get("/api/manager/settings", mh.GetSettings)
			r.Put("/api/manager/settings", mh.UpdateSettings)
			r.Get("/api/manager/promo-codes", mh.ListPromoCodes)
			r.Post("/api/manager/promo-codes", mh.CreatePromoCode)
			r.Put("/api/manager/promo-codes", mh.UpdatePromoCode)
			r.Get("/api/manager/dashboard", mh.GetDashboardStats)
			r.Post("/api/manager/staff", mh.AddStaff)
			r.Post("/api/manager/books", bh.CreateBook)
		})
	})
	return r
}
