// Command pgpool is the thin executable wrapper around the pooler core:
// load configuration, wire up logging, admission control, the route
// pool, the Router and Periodic task, and the accept loop, then run
// until SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sbgrid/pgpool/internal/admission"
	"github.com/sbgrid/pgpool/internal/config"
	"github.com/sbgrid/pgpool/internal/log"
	"github.com/sbgrid/pgpool/internal/periodic"
	"github.com/sbgrid/pgpool/internal/pooler"
	"github.com/sbgrid/pgpool/internal/route"
	"github.com/sbgrid/pgpool/internal/router"
	"github.com/sbgrid/pgpool/internal/system"
)

func main() {
	configFile := flag.String("config", "pgpool.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pgpool: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(log.Options{
		Level:    levelFromString(cfg.LogLevel),
		Console:  cfg.LogConsole,
		Filename: cfg.LogFile,
	})
	defer logger.Sync()

	sys := system.New()
	logger.Info("pgpool: starting", zap.String("machine_id", sys.MachineID))

	upstreams := buildUpstreamTable(cfg)
	for _, rc := range cfg.Routes {
		r := route.New(route.ID{Database: rc.Database, User: rc.User}, route.Policy{
			TTLSeconds:   rc.PoolTTL,
			PoolSize:     rc.PoolSize,
			PendingLimit: cfg.PendingLimit,
			Static:       true,
		})
		sys.Routes.AddStatic(r)
	}

	useAdmission := true
	if err := admission.Init("pgpool"); err != nil {
		logger.Warn("pgpool: admission control disabled", zap.Error(err))
		useAdmission = false
	}

	defaultPolicy := route.Policy{
		TTLSeconds:   cfg.PoolTTL,
		PoolSize:     cfg.PoolSize,
		PendingLimit: cfg.PendingLimit,
	}

	rt := router.New(sys.Routes, dialUpstream(upstreams, cfg), logger, defaultPolicy, cfg.AllowDynamicRoutes, useAdmission)

	p := pooler.New(pooler.Options{
		Host:      cfg.Host,
		Port:      cfg.Port,
		Backlog:   cfg.Backlog,
		NoDelay:   cfg.NoDelay,
		KeepAlive: cfg.KeepAlive,
		ReadAhead: cfg.ReadAhead,
	}, rt, identifyStartupPacket, logger)

	task := periodic.New(sys.Routes, logger, time.Duration(cfg.PeriodicIntervalMS)*time.Millisecond, statsPeriodTicks(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go pooler.WatchSignals(ctx, logger)
	go task.Run(ctx)

	if err := p.Run(ctx); err != nil {
		logger.Error("pgpool: accept loop exited", zap.Error(err))
		os.Exit(1)
	}
}

// statsPeriodTicks converts cfg.LogStatistics, a period in seconds, into
// the number of Periodic ticks it spans given the configured tick
// interval. A LogStatistics of 0 disables statistics (returns 0); an
// interval of 0 would make the division meaningless, so it also disables
// statistics rather than panicking.
func statsPeriodTicks(cfg config.Config) int {
	if cfg.LogStatistics <= 0 || cfg.PeriodicIntervalMS <= 0 {
		return 0
	}
	ticks := (cfg.LogStatistics * 1000) / cfg.PeriodicIntervalMS
	if ticks <= 0 {
		ticks = 1
	}
	return ticks
}

func levelFromString(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// buildUpstreamTable maps a (database, user) identity to the "host:port"
// string its static RouteConfig named, for dialUpstream's lookup.
func buildUpstreamTable(cfg config.Config) map[route.ID]string {
	table := make(map[route.ID]string, len(cfg.Routes))
	for _, rc := range cfg.Routes {
		id := route.ID{Database: rc.Database, User: rc.User}
		table[id] = fmt.Sprintf("%s:%d", rc.UpstreamHost, rc.UpstreamPort)
	}
	return table
}

// dialUpstream resolves a route identity to an upstream address — the
// static table if the route was configured, otherwise the pooler-wide
// default — and dials it. The PostgreSQL startup handshake itself is a
// Non-goal; this only establishes the TCP connection Periodic and Router
// then manage.
func dialUpstream(table map[route.ID]string, cfg config.Config) router.DialFunc {
	return func(ctx context.Context, database, user string) (net.Conn, error) {
		addr, ok := table[route.ID{Database: database, User: user}]
		if !ok {
			addr = fmt.Sprintf("%s:%d", cfg.DefaultUpstreamHost, cfg.DefaultUpstreamPort)
		}
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}
}

// identifyStartupPacket would parse the PostgreSQL startup packet to
// extract the requested database and user; that parsing is out of scope
// here, so cmd/pgpool fails closed rather than guessing. Embedders that
// need a working accept loop supply their own pooler.IdentifyFunc built
// on a real startup-packet parser.
func identifyStartupPacket(conn net.Conn) (route.ID, error) {
	_ = conn
	return route.ID{}, fmt.Errorf("pgpool: startup packet parsing is out of scope for the pooler core")
}
