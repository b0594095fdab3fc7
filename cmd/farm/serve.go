// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/marsfarm/farm/api"
	"github.com/marsfarm/farm/builtin/chef"
	"github.com/marsfarm/farm/deploy"
	"github.com/marsfarm/farm/metrics"
	"github.com/marsfarm/farm/runtime"
	"github.com/marsfarm/farm/xenv"
)

func serveAction(ctx *cli.Context) error {
	initLogger(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing database..."); db.Close() }()

	rt, err := runtime.New(db)
	if err != nil {
		return err
	}
	d, err := loadDeployment(rt, cfg)
	if err != nil {
		return err
	}

	handler := api.New(rt, d, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
	})
	listener, err := net.Listen("tcp", ctx.String(apiAddrFlag.Name))
	if err != nil {
		return errors.Wrap(err, "listen API addr")
	}
	return serve(handleExitSignal(), listener, handler)
}

// loadDeployment resolves the ledgers cfg deployed into rt, and checks they are there.
func loadDeployment(rt *runtime.Runtime, cfg *deploy.Config) (*deploy.Deployment, error) {
	d := deploy.Plan(cfg)
	err := rt.View(func(env *xenv.Environment) error {
		c := chef.New(d.Chef, env)
		owner, err := c.Owner()
		if err != nil {
			return err
		}
		if owner.IsZero() {
			return errors.New("farm not deployed, run the deploy command first")
		}
		n, err := c.PoolLength()
		if err != nil {
			return err
		}
		for pid := range n {
			d.Pools = append(d.Pools, pid)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// serve runs the API server until ctx is done.
func serve(ctx context.Context, listener net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		WriteTimeout:      10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("API started", "url", "http://"+listener.Addr().String()+"/")
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("stopping API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
