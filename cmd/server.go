/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/caddyserver/certmagic"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/landledger/landledger/api"
	"github.com/landledger/landledger/config"
	trace "github.com/landledger/landledger/internal/traces"
)

/*
tlsServer builds an HTTPS server with certificates managed by CertMagic.
If no domain is specified, the certificate is issued for localhost.
*/
func tlsServer(ctx context.Context, r *gin.Engine, conf config.ServerConfig) (*http.Server, error) {
	certmagic.DefaultACME.Agreed = true
	certmagic.DefaultACME.Email = conf.Email
	cfg := certmagic.NewDefault()
	cfg.Storage = &certmagic.FileStorage{Path: "./certmagic"}

	domains := []string{conf.Domain}
	if conf.Domain == "" {
		log.Println("No domain specified, defaulting to localhost")
		domains = []string{"localhost"}
	}

	if err := cfg.ManageSync(ctx, domains); err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:      ":" + conf.Port,
		Handler:   r,
		TLSConfig: cfg.TLSConfig(),
	}, nil
}

func initializeTracing(ctx context.Context, cfg *config.Configuration) (func(context.Context) error, error) {
	shutdown, err := trace.SetupOTelSDK(ctx, cfg.ProjectName, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	return shutdown, nil
}

// startServer serves until ctx is cancelled, then drains in-flight requests so
// no unit of work is cut off between its commit and its response.
func startServer(ctx context.Context, router *gin.Engine, cfg config.ServerConfig) error {
	var srv *http.Server
	if cfg.SSL {
		var err error
		srv, err = tlsServer(ctx, router, cfg)
		if err != nil {
			return err
		}
	} else {
		srv = &http.Server{Addr: ":" + cfg.Port, Handler: router}
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.SSL {
			log.Printf("Starting HTTPS server on %s\n", cfg.Port)
			err = srv.ListenAndServeTLS("", "")
		} else {
			log.Printf("Starting server on http://localhost:%s", cfg.Port)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logrus.Info("shutting down server")
	return srv.Shutdown(shutdownCtx)
}

// serverCommands returns the `start` command, which serves the HTTP API.
func serverCommands(app *landledgerInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start landledger server",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mustSetup(app)
			defer app.close()

			shutdown, err := initializeTracing(ctx, app.cnf)
			if err != nil {
				log.Fatal(err)
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
			}()

			a, err := api.NewAPI(app.landledger)
			if err != nil {
				log.Fatal(err)
			}

			if err := startServer(ctx, a.Router(), app.cnf.Server); err != nil {
				logrus.Error(err)
			}

			drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := app.landledger.Shutdown(drainCtx); err != nil {
				logrus.WithError(err).Warn("notifications still in flight at shutdown")
			}
		},
	}

	return cmd
}
