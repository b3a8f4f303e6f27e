package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/psusim/psusim/internal/api"
	"github.com/psusim/psusim/internal/console"
	"github.com/psusim/psusim/internal/history"
	"github.com/psusim/psusim/internal/host"
	"github.com/psusim/psusim/internal/infrastructure/config"
	"github.com/psusim/psusim/internal/infrastructure/database"
	"github.com/psusim/psusim/internal/infrastructure/influxdb"
	"github.com/psusim/psusim/internal/infrastructure/logging"
	"github.com/psusim/psusim/internal/infrastructure/mqtt"
	"github.com/psusim/psusim/internal/supply"
	"github.com/psusim/psusim/migrations"
)

// retentionInterval is how often the journal is pruned.
const retentionInterval = time.Hour

// stack is every component of a running simulator.
type stack struct {
	cfg     *config.Config
	log     *logging.Logger
	host    *host.Host
	sim     *supply.Simulator
	db      *database.DB
	journal *history.Journal
	mqtt    *mqtt.Client
	influx  *influxdb.Client
	api     *api.Server

	// closers run in reverse order on close.
	closers []func()
}

// stackOptions tweaks a stack for tests.
type stackOptions struct {
	sleep func(time.Duration)
}

// identityFromConfig maps the supply section onto the simulator's names.
func identityFromConfig(cfg config.SupplyConfig) supply.Identity {
	return supply.Identity{
		ACName:       cfg.ACName,
		BatteryName:  cfg.BatteryName,
		ModelName:    cfg.BatteryModelName,
		Manufacturer: cfg.BatteryManufacturer,
		SerialNumber: cfg.BatterySerialNumber,
	}
}

// newStack connects the enabled infrastructure and wires every sink. The
// simulator is created but not started.
func newStack(ctx context.Context, cfg *config.Config, log *logging.Logger, opts stackOptions) (*stack, error) {
	s := &stack{cfg: cfg, log: log}
	if err := s.wire(ctx, opts); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *stack) wire(ctx context.Context, opts stackOptions) error {
	cfg, log := s.cfg, s.log

	s.host = host.New(host.Options{
		QueueSize: cfg.Notify.QueueSize,
		Logger:    log.With("component", "host"),
	})
	s.sim = supply.New(s.host, s.host, supply.Options{
		Identity: identityFromConfig(cfg.Supply),
		Grace:    cfg.GetShutdownGrace(),
		Sleep:    opts.sleep,
		Logger:   log.With("component", "supply"),
	})

	if cfg.Database.Enabled {
		if err := s.openJournal(ctx); err != nil {
			return err
		}
	} else {
		log.Info("change journal disabled")
	}

	if cfg.InfluxDB.Enabled {
		if err := s.connectInflux(); err != nil {
			return err
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	if cfg.MQTT.Enabled {
		if err := s.connectMQTT(); err != nil {
			return err
		}
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.API.Enabled {
		if err := s.newAPI(); err != nil {
			return err
		}
	} else {
		log.Info("API disabled")
	}

	return nil
}

func (s *stack) openJournal(ctx context.Context) error {
	db, err := database.Open(database.Config{
		Path:        s.cfg.Database.Path,
		WALMode:     s.cfg.Database.WALMode,
		BusyTimeout: s.cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	s.db = db
	s.closers = append(s.closers, func() {
		s.log.Info("closing database")
		if err := db.Close(); err != nil {
			s.log.Error("error closing database", "error", err)
		}
	})

	if err := db.Migrate(ctx, migrations.FS, migrations.Dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	s.journal = history.NewJournal(db.DB)
	s.journal.SetLogger(s.log.With("component", "history"))
	s.host.AddSink("journal", s.journal)
	s.log.Info("change journal ready", "path", db.Path())
	return nil
}

func (s *stack) connectInflux() error {
	client, err := influxdb.Connect(s.cfg.InfluxDB)
	if err != nil {
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	s.influx = client
	client.SetOnError(func(err error) {
		s.log.Error("InfluxDB write error", "error", err)
	})
	s.closers = append(s.closers, func() {
		s.log.Info("closing InfluxDB connection")
		if err := client.Close(); err != nil {
			s.log.Error("error closing InfluxDB", "error", err)
		}
	})
	s.host.AddSink("telemetry", host.NewTelemetrySink(client))
	s.log.Info("InfluxDB connected", "url", s.cfg.InfluxDB.URL, "bucket", s.cfg.InfluxDB.Bucket)
	return nil
}

func (s *stack) connectMQTT() error {
	codec, err := host.NewCodec(s.cfg.Notify.PayloadFormat)
	if err != nil {
		return err
	}
	client, err := mqtt.Connect(s.cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	s.mqtt = client
	client.SetLogger(s.log.With("component", "mqtt"))
	s.closers = append(s.closers, func() {
		s.log.Info("disconnecting from MQTT")
		if err := client.Close(); err != nil {
			s.log.Error("error closing MQTT", "error", err)
		}
	})
	s.host.AddSink("mqtt", host.NewMQTTSink(client, codec))
	s.log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", s.cfg.MQTT.Broker.Host, s.cfg.MQTT.Broker.Port),
		"client_id", s.cfg.MQTT.Broker.ClientID,
		"payload", codec.ContentType(),
	)
	return nil
}

func (s *stack) newAPI() error {
	deps := api.Deps{
		Config:    s.cfg.API,
		WS:        s.cfg.WebSocket,
		Security:  s.cfg.Security,
		Logger:    s.log.With("component", "api"),
		Simulator: s.sim,
		Version:   version,
	}
	if s.journal != nil {
		deps.History = s.journal
	}
	srv, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	s.api = srv
	s.host.AddSink("websocket", srv.Hub().Sink())
	return nil
}

// historyReader returns the journal as a console.HistoryReader, or nil.
func (s *stack) historyReader() console.HistoryReader {
	if s.journal == nil {
		return nil
	}
	return s.journal
}

// healthCheck verifies every connected component.
func (s *stack) healthCheck(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if s.mqtt != nil {
		if err := s.mqtt.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if s.influx != nil {
		if err := s.influx.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// run starts the simulator and blocks until ctx is cancelled or fg returns.
// It then shuts the simulator down, lets the host deliver the final events,
// and stops the background workers. fg may be nil.
func (s *stack) run(ctx context.Context, fg func(ctx context.Context, cancel context.CancelFunc) error) error {
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	// The host outlives runCtx so shutdown events still reach the sinks.
	hostCtx, stopHost := context.WithCancel(context.Background())
	defer stopHost()

	g, gctx := errgroup.WithContext(hostCtx)
	g.Go(func() error { return s.host.Run(gctx) })
	if s.journal != nil && s.cfg.Database.Retention > 0 {
		retention := time.Duration(s.cfg.Database.Retention) * time.Hour
		g.Go(func() error {
			s.journal.RunRetention(gctx, retentionInterval, retention)
			return nil
		})
	}

	if err := s.healthCheck(ctx); err != nil {
		stopHost()
		_ = g.Wait()
		return fmt.Errorf("health check failed: %w", err)
	}

	if err := s.sim.Start(runCtx); err != nil {
		stopHost()
		_ = g.Wait()
		return fmt.Errorf("starting simulator: %w", err)
	}
	s.log.Info("supplies online", "registered", s.host.Registered())

	if s.mqtt != nil {
		cmds := host.NewCommands(s.sim, s.log.With("component", "commands"))
		if err := cmds.Bind(s.mqtt, byte(s.cfg.MQTT.QoS)); err != nil {
			s.log.Warn("MQTT commands unavailable", "error", err)
		}
	}
	if s.api != nil {
		// The API stays up through the grace period and is closed once the
		// final events have been delivered.
		if err := s.api.Start(context.WithoutCancel(ctx)); err != nil {
			s.log.Error("API server failed to start", "error", err)
		}
	}

	var fgErr error
	if fg != nil {
		fgErr = fg(runCtx, cancelRun)
		cancelRun()
	}
	<-runCtx.Done()

	s.log.Info("shutting down supplies", "grace", s.cfg.GetShutdownGrace())
	s.sim.Shutdown()

	// Drain the host before closing the API so WebSocket observers get the
	// offline event.
	stopHost()
	waitErr := g.Wait()
	if s.api != nil {
		if err := s.api.Close(); err != nil {
			s.log.Error("error closing API server", "error", err)
		}
	}
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return waitErr
	}
	if dropped := s.host.Dropped(); dropped > 0 {
		s.log.Warn("change events were dropped", "count", dropped)
	}
	if s.influx != nil {
		s.influx.Flush()
	}
	return fgErr
}

// close releases the infrastructure in reverse order of acquisition.
func (s *stack) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
