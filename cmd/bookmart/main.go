package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ujwegh/bookmart/internal/app/config"
	"github.com/ujwegh/bookmart/internal/app/handlers"
	"github.com/ujwegh/bookmart/internal/app/logger"
	middlware "github.com/ujwegh/bookmart/internal/app/middleware"
	"github.com/ujwegh/bookmart/internal/app/repository"
	"github.com/ujwegh/bookmart/internal/app/router"
	"github.com/ujwegh/bookmart/internal/app/service"
	"github.com/ujwegh/bookmart/internal/app/service/clients"
)

func main() {
	// Server run context
	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	c := config.ParseFlags()
	logger.InitLogger(c.LogLevel)

	//setup repositories
	ts := service.NewTokenService(c)
	s := repository.NewDBStorage(c)
	ur := repository.NewUserRepository(s.DBConn)
	br := repository.NewBookRepository(s.DBConn)
	cr := repository.NewCartRepository(s.DBConn)
	or := repository.NewOrderRepository(s.DBConn)
	ror := repository.NewReturnOrderRepository(s.DBConn)
	tr := repository.NewTransactionRepository(s.DBConn)
	pr := repository.NewPromoCodeRepository(s.DBConn)
	sr := repository.NewSettingsRepository(s.DBConn)
	nr := repository.NewNotificationRepository(s.DBConn)
	str := repository.NewStatsRepository(s.DBConn)

	//setup services
	nc := clients.NewNotificationClient(c)
	notifier := service.NewNotifier(nr, nc, time.Duration(c.NotificationDispatchIntervalSec)*time.Second)
	ws := service.NewWalletService(ur, tr)
	ss := service.NewSettingsService(sr, time.Duration(c.SettingsCacheTTLSec)*time.Second)
	cs := service.NewCartService(cr, br)
	bs := service.NewBookService(br)
	ps := service.NewPromoCodeService(pr)
	ds := service.NewDashboardService(str)
	ors := service.NewOrderService(or, br, cr, ur, pr, ws, ss, notifier)
	rors := service.NewReturnOrderService(ror, or, br, ur, ws, ss, notifier)
	us := service.NewUserService(ur)
	reminder := service.NewReminderJob(or, notifier, time.Duration(c.ReminderScanIntervalSec)*time.Second)

	// setup handlers
	uh := handlers.NewUserHandler(us, ts, c.ContextTimeoutSec)
	bh := handlers.NewBooksHandler(bs, c.ContextTimeoutSec)
	ch := handlers.NewCartHandler(cs, c.ContextTimeoutSec)
	oh := handlers.NewOrdersHandler(ors, c.ContextTimeoutSec)
	rh := handlers.NewReturnOrdersHandler(rors, c.ContextTimeoutSec)
	wh := handlers.NewWalletHandler(ws, c.ContextTimeoutSec)
	mh := handlers.NewManagerHandler(ss, ps, ds, us, c.ContextTimeoutSec)

	am := middlware.NewAuthMiddleware(ts, us, c.ContextTimeoutSec)

	r := router.NewAppRouter(uh, bh, ch, oh, rh, wh, mh, am)

	// Start the background workers
	go notifier.Run(serverCtx)
	go reminder.Run(serverCtx)

	// The HTTP Server
	server := &http.Server{Addr: c.ServerAddr, Handler: r}

	// Listen for syscall signals for process to interrupt/quit
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		// Shutdown signal with grace period of 30 seconds
		shutdownCtx, cancelFunc := context.WithTimeout(serverCtx, 30*time.Second)
		cancelFunc()
		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		// Trigger graceful shutdown
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	// Run the server
	fmt.Printf("Starting server on port %s...\n", strings.Split(c.ServerAddr, ":")[1])
	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	// Wait for server context to be stopped
	<-serverCtx.Done()
}
