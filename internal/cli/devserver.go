package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smartretail/storefront/internal/api"
	"github.com/smartretail/storefront/internal/sandbox"
	"github.com/smartretail/storefront/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func (rt *runtime) devserverCommand() *cobra.Command {
	var addr string
	var demo bool
	cmd := &cobra.Command{
		Use:         "devserver",
		Short:       "Serve every storefront endpoint from memory for local development",
		Long:        "Serves auth, products, orders, payments and analytics on one address.\nPoint every *_BASE variable at it.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := rt.cfg.Sandbox
			if addr == "" {
				addr = cfg.Addr
			}
			log := logger.Component("devserver")

			store := sandbox.NewStore()
			auth := sandbox.NewAuthenticator(store, cfg.JWTSecret, sandbox.DefaultTokenTTL)
			if cfg.SeedAdminEmail != "" {
				if _, err := auth.SeedAdmin(cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
					return fmt.Errorf("seed admin: %w", err)
				}
				log.Info().Str("email", cfg.SeedAdminEmail).Msg("admin account ready")
			}
			if demo {
				if err := seedCatalog(store); err != nil {
					return err
				}
			}

			e := api.NewRouter(store, auth, api.Options{JWTSecret: cfg.JWTSecret, Logger: log})
			return serve(cmd.Context(), e, addr, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default SANDBOX_ADDR)")
	cmd.Flags().BoolVar(&demo, "demo", false, "start with a small demo catalog")
	return cmd
}

type server interface {
	Start(address string) error
	Shutdown(ctx context.Context) error
}

func serve(ctx context.Context, srv server, addr string, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("devserver listening")
		errCh <- srv.Start(addr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown devserver: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("devserver exited: %w", err)
	}
}

func seedCatalog(store *sandbox.Store) error {
	admin := sandbox.Caller{UserID: 1, Role: "admin"}
	demo := []struct {
		name  string
		price float64
		stock int
	}{
		{"Espresso Beans 1kg", 24.9, 40},
		{"Ceramic Pour-Over", 18.5, 8},
		{"Gooseneck Kettle", 59, 0},
	}
	for _, d := range demo {
		price, stock := d.price, d.stock
		if _, err := store.CreateProduct(admin, sandbox.NewProduct{Name: d.name, Price: &price, Stock: &stock}); err != nil {
			return fmt.Errorf("seed %s: %w", d.name, err)
		}
	}
	return nil
}
