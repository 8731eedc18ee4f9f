package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/open-teleop/keyboard-teleop/domain/teleop"
	"github.com/open-teleop/keyboard-teleop/pkg/api"
	"github.com/open-teleop/keyboard-teleop/pkg/config"
	"github.com/open-teleop/keyboard-teleop/pkg/keyboard"
	customlog "github.com/open-teleop/keyboard-teleop/pkg/log"
	"github.com/open-teleop/keyboard-teleop/pkg/zeromq"
)

const shutdownTimeout = 5 * time.Second

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "keyboard_teleop: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "keyboard_teleop",
		Usage: "drive a robot from the keyboard by publishing cmd_vel commands",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "config",
				Usage:   "directory containing " + config.ConfigFileName,
				EnvVars: []string{"TELEOP_CONFIG_DIR"},
			},
			&cli.Float64Flag{
				Name:    "speed",
				Usage:   "initial linear speed multiplier (overrides params.speed)",
				EnvVars: []string{"TELEOP_SPEED"},
			},
			&cli.Float64Flag{
				Name:    "turn",
				Usage:   "initial angular speed multiplier (overrides params.turn)",
				EnvVars: []string{"TELEOP_TURN"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error (overrides logging.level)",
				EnvVars: []string{"TELEOP_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:  "no-server",
				Usage: "do not start the monitor HTTP server",
			},
			&cli.BoolFlag{
				Name:  "stdin",
				Usage: "read keys from a non-terminal stdin, e.g. a pipe",
			},
		},
		Action: run,
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, bool, error) {
	cfg, found, err := config.LoadBootstrapConfig(c.String("config-dir"))
	if err != nil {
		return nil, false, err
	}

	if c.IsSet("speed") {
		cfg.Params.Speed = c.Float64("speed")
	}
	if c.IsSet("turn") {
		cfg.Params.Turn = c.Float64("turn")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.Bool("no-server") {
		cfg.Server.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return cfg, found, nil
}

func run(c *cli.Context) error {
	cfg, found, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if !found {
		logger.Warnf("No %s in %s, using defaults", config.ConfigFileName, c.String("config-dir"))
	}
	logger.Debugf("Effective config: %+v", *cfg)

	// closers run in reverse order during shutdown.
	var closers []func() error
	shutdown := func() {
		var err error
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
		for _, e := range multierr.Errors(err) {
			logger.Errorf("Shutdown: %v", e)
		}
	}
	defer shutdown()

	var input keyboard.Source
	if c.Bool("stdin") {
		reader := keyboard.NewReaderSource(os.Stdin)
		closers = append(closers, reader.Close)
		input = reader
	} else {
		term, err := keyboard.NewTerminalSource(os.Stdin, logger)
		if err != nil {
			return fmt.Errorf("cannot read keys: %w", err)
		}
		closers = append(closers, term.Close)
		input = term
	}

	zmqPub, err := zeromq.NewVelocityPublisher(zeromq.Options{
		BindAddress: cfg.ZeroMQ.PublishBindAddress,
		Topic:       cfg.ZeroMQ.Topic,
		SendHWM:     cfg.ZeroMQ.SendHWM,
		Linger:      time.Duration(cfg.ZeroMQ.LingerMs) * time.Millisecond,
	}, clock.New(), logger.WithField("component", "zeromq"))
	if err != nil {
		return fmt.Errorf("failed to start velocity publisher: %w", err)
	}
	closers = append(closers, zmqPub.Close)

	bindings := teleop.DefaultBindings()
	if cfg.Params.ForceStopKey {
		bindings = bindings.WithForceStop()
		logger.Infof("Force stop key enabled: s zeroes the direction")
	}
	controller := teleop.NewController(bindings, cfg.Params.Speed, cfg.Params.Turn)

	publisher := teleop.FanOut{zmqPub}
	if cfg.Server.Enabled {
		hub := api.NewCommandHub(logger.WithField("component", "ws"))
		server := api.NewServer(controller, hub, logger.WithField("component", "http"))
		go func() {
			if err := server.Listen(cfg.Server.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("Monitor server failed: %v", err)
			}
		}()
		closers = append(closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(ctx)
		})
		publisher = append(publisher, hub)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	go func() {
		select {
		case sig := <-quit:
			logger.Infof("Received %s, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprint(os.Stdout, teleop.Banner)
	logger.Infof("Teleop ready: speed=%v turn=%v topic=%s", cfg.Params.Speed, cfg.Params.Turn, cfg.ZeroMQ.Topic)

	driver := teleop.NewDriver(controller, input, publisher, os.Stdout, logger.WithField("component", "teleop"))
	return driver.Run(ctx)
}
