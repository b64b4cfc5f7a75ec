// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/computemarket/capstake/api"
	"github.com/computemarket/capstake/api/admin"
	"github.com/computemarket/capstake/api/node"
	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/config"
	"github.com/computemarket/capstake/ledger"
	"github.com/computemarket/capstake/ledger/balance"
	"github.com/computemarket/capstake/ledger/commitment"
	"github.com/computemarket/capstake/ledger/pool"
	"github.com/computemarket/capstake/metrics"
	"github.com/computemarket/capstake/state"
)

// openLedger opens the data dir and a ledger whose clock stands at the stored head.
func openLedger(ctx *cli.Context, withSink bool) (*dataDir, *state.State, *ledger.Ledger, *ledger.ManualClock, error) {
	dir, err := openDataDir(ctx.GlobalString(dataDirFlag.Name), ctx.GlobalInt(cacheFlag.Name))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	params, err := dir.params(ctx.GlobalString(paramsFlag.Name))
	if err != nil {
		dir.Close()
		return nil, nil, nil, nil, err
	}
	head, err := dir.head()
	if err != nil {
		dir.Close()
		return nil, nil, nil, nil, err
	}

	st := state.New(dir.db)
	clock := ledger.NewManualClock(head)
	var opts []ledger.Option
	if withSink {
		opts = append(opts, ledger.WithEventSink(dir.events))
	}
	return dir, st, ledger.New(st, params, clock, opts...), clock, nil
}

func applyAction(ctx *cli.Context) error {
	file, err := requireArg(ctx, "the scenario file")
	if err != nil {
		return err
	}
	scenario, err := LoadScenario(file)
	if err != nil {
		return err
	}

	dir, st, l, clock, err := openLedger(ctx, true)
	if err != nil {
		return err
	}
	defer dir.Close()

	bar := pb.New(len(scenario.Steps)).
		SetMaxWidth(90)
	bar.Output = os.Stderr
	bar.NotPrint = ctx.GlobalBool(jsonLogsFlag.Name) || !isatty.IsTerminal(os.Stderr.Fd())
	bar.Start()

	r := newRunner(l, clock)
	r.afterStep = func(height uint32) error {
		if n := l.DeliveryFailures(); n > 0 {
			return errors.Errorf("event db out of sync with the ledger after %d failed deliveries", n)
		}
		if err := st.Commit(); err != nil {
			return errors.Wrap(err, "commit state")
		}
		bar.Increment()
		return dir.setHead(height)
	}

	start := time.Now()
	n, err := r.Run(scenario)
	bar.Finish()
	logger.Info("scenario applied", "steps", n, "of", len(scenario.Steps), "head", clock.Height(), "elapsed", time.Since(start))
	return err
}

func serveAction(ctx *cli.Context) error {
	exit, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	dir, _, l, _, err := openLedger(ctx, false)
	if err != nil {
		return err
	}
	defer dir.Close()

	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))
	shared := ledger.NewShared(l)
	handler := api.New(shared, dir.events, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		EventsLimit:          ctx.Uint64(apiEventsLimitFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger:      apiLogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Info: node.Info{
			Version: fullVersion(),
			DataDir: dir.path,
		},
	})

	group, gctx := errgroup.WithContext(exit)
	group.Go(func() error {
		return serveHTTP(gctx, "api", ctx.String(apiAddrFlag.Name), handler)
	})
	if ctx.Bool(enableMetricsFlag.Name) {
		group.Go(func() error {
			return serveHTTP(gctx, "metrics", ctx.String(metricsAddrFlag.Name), metricsHandler())
		})
	}
	if ctx.Bool(enableAdminFlag.Name) {
		adminHandler := admin.New(logLevel, apiLogs, admin.NewHealth(shared, dir.events))
		group.Go(func() error {
			return serveHTTP(gctx, "admin", ctx.String(adminAddrFlag.Name), adminHandler)
		})
	}
	return group.Wait()
}

type accountDump struct {
	Address    capstake.Address
	Account    *balance.Account
	Commitment *commitment.Commitment
}

type ledgerDump struct {
	Head                 uint32
	Cycle                capstake.Cycle
	Params               *config.Params
	Pools                []*pool.Pool
	TotalLocked          string
	ManagerRewardReserve string
	Accounts             []accountDump
}

func inspectAction(ctx *cli.Context) error {
	dir, _, l, clock, err := openLedger(ctx, false)
	if err != nil {
		return err
	}
	defer dir.Close()

	dump := ledgerDump{
		Head:   clock.Height(),
		Cycle:  l.Cycle(),
		Params: l.Params(),
	}
	ids, err := l.PoolIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		p, err := l.Pool(id)
		if err != nil {
			return err
		}
		dump.Pools = append(dump.Pools, p)
	}
	locked, err := l.TotalLocked()
	if err != nil {
		return err
	}
	dump.TotalLocked = capstake.FormatUnits(locked)
	reserve, err := l.ManagerRewardReserve()
	if err != nil {
		return err
	}
	dump.ManagerRewardReserve = capstake.FormatUnits(reserve)

	r := newRunner(l, clock)
	for _, name := range ctx.StringSlice(accountFlag.Name) {
		addr, err := r.address(name)
		if err != nil {
			return err
		}
		acc, err := l.Account(addr)
		if err != nil {
			return err
		}
		entry := accountDump{Address: addr, Account: acc}
		if _, c, err := l.Commitment(addr); err == nil {
			entry.Commitment = c
		}
		dump.Accounts = append(dump.Accounts, entry)
	}

	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
	cfg.Fdump(os.Stdout, dump)
	return nil
}
