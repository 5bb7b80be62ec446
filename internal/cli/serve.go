package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/Ashwinpatel7/Eazyvenue/internal/config"
	"github.com/Ashwinpatel7/Eazyvenue/internal/handler"
	"github.com/Ashwinpatel7/Eazyvenue/internal/middleware"
	"github.com/Ashwinpatel7/Eazyvenue/internal/router"
	"github.com/Ashwinpatel7/Eazyvenue/internal/service"
	"github.com/Ashwinpatel7/Eazyvenue/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelService, cfg.OTelEndpoint)
			if err != nil {
				return err
			}
			defer func() {
				sctx, scancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
				defer scancel()
				if err := shutdownTracing(sctx); err != nil {
					log.Printf("telemetry shutdown: %v", err)
				}
			}()

			st, err := openStores(ctx, cfg, migrateUp)
			if err != nil {
				return err
			}
			defer st.Close()

			rc, err := config.LoadRedisConfig()
			if err != nil {
				return err
			}
			rdb := config.NewRedisClient(rc)
			if rdb != nil {
				defer rdb.Close()
			} else {
				log.Printf("WARN: redis unreachable at %s; cache and rate limiting disabled", rc.Address())
			}

			locker, err := newLocker(cfg, rdb)
			if err != nil {
				return err
			}

			opts, closeEvents := eventOptions(cfg)
			defer closeEvents()

			reservations := service.NewReservationService(st.venues, st.bookings, locker, opts...)
			venues := service.NewVenueService(st.venues, locker, opts...)

			cc, err := config.LoadCacheConfig()
			if err != nil {
				return err
			}
			rl, err := config.LoadRateLimitConfig()
			if err != nil {
				return err
			}

			e := echo.New()
			e.HideBanner = true
			e.Use(echomw.Recover())
			e.Use(echomw.Logger())

			mw := router.Middlewares{
				Cache:      middleware.NewResponseCache(cc, rdb),
				Invalidate: middleware.NewCacheInvalidator(cc, rdb),
				RateLimit:  middleware.NewRateLimiter(rl, rdb),
			}
			router.RegisterRoutes(e)
			router.RegisterVenues(e, &handler.VenueHandler{Venues: venues, Reservations: reservations}, mw)
			router.RegisterBookings(e, &handler.BookingHandler{Reservations: reservations}, mw)

			return serveUntilDone(ctx, e, cfg)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	return cmd
}

// serveUntilDone runs e until ctx is cancelled, then drains in-flight
// requests for at most cfg.ShutdownGrace.
func serveUntilDone(ctx context.Context, e *echo.Echo, cfg config.Config) error {
	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, db=%s, lock=%s)", addr, cfg.Env, cfg.DBDriver, cfg.LockBackend)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		return err
	}
	return <-errCh
}
