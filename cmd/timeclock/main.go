package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alexanderramin/timeclock/internal/broadcast"
	"github.com/alexanderramin/timeclock/internal/cli"
	"github.com/alexanderramin/timeclock/internal/config"
	"github.com/alexanderramin/timeclock/internal/db"
	"github.com/alexanderramin/timeclock/internal/metadata"
	"github.com/alexanderramin/timeclock/internal/notify"
	"github.com/alexanderramin/timeclock/internal/repository"
	"github.com/alexanderramin/timeclock/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func main() {
	app := &cli.App{}
	app.Bootstrap = func(cmd *cobra.Command) error { return bootstrap(app, cmd) }

	// Detect interactive terminal for confirmation prompts.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	if err := cli.NewRootCmd(app).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FriendlyError(err))
		os.Exit(1)
	}
}

// bootstrap loads configuration after flag parsing and wires the services.
func bootstrap(app *cli.App, cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	loc, _ := cfg.Location()

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	device := metadata.NewCollector(cfg.DeviceID, cfg.DeviceLocation).Collect()
	hub := broadcast.NewHub()

	// Wire repositories
	sessionRepo := repository.NewSQLiteAttendanceRepo(database)
	employeeRepo := repository.NewSQLiteEmployeeRepo(database)
	shiftRepo := repository.NewSQLiteShiftRepo(database)
	heartbeatRepo := repository.NewSQLiteHeartbeatRepo(database)
	notificationRepo := repository.NewSQLiteNotificationRepo(database)

	notifier := notify.NewAsync(notify.Multi{
		notify.LogDispatcher{Logger: logger},
		notify.NewSQLiteOutbox(notificationRepo),
	}, logger)

	deps := service.Deps{
		Attendance:             sessionRepo,
		Employees:              employeeRepo,
		Shifts:                 shiftRepo,
		Heartbeats:             heartbeatRepo,
		UoW:                    db.NewSQLiteUnitOfWork(database),
		Hub:                    hub,
		Notifier:               notifier,
		Device:                 device,
		Location:               loc,
		StandardWorkdayMinutes: cfg.StandardWorkdayMinutes,
		Logger:                 logger,
	}

	brokers := cfg.KafkaBrokersList()
	publisher := broadcast.NewKafkaPublisher(brokers, cfg.KafkaTopic)
	var remote *broadcast.Async
	if publisher != nil {
		remote = broadcast.NewAsync(publisher, logger)
		deps.Remote = remote
		// Each device reads the whole topic, so it needs its own consumer group.
		groupID := cfg.KafkaGroupID + "-" + device.DeviceIdentifier
		app.RemoteSync = func(ctx context.Context) error {
			return broadcast.NewKafkaSource(brokers, cfg.KafkaTopic, groupID, device.DeviceIdentifier, hub, logger).Run(ctx)
		}
	}

	var observers []service.UseCaseObserver
	if cfg.LogUseCases {
		observers = append(observers, service.NewSlogUseCaseObserver(logger))
	}

	app.Attendance = service.NewAttendanceService(deps, observers...)
	app.Resolver = service.NewResolverService(deps, observers...)
	app.Directory = service.NewDirectoryService(employeeRepo, shiftRepo)
	app.Notifier = notifier
	app.Config = cfg
	app.Location = loc
	app.Logger = logger
	app.Device = device
	app.Shutdown = func() error {
		remote.Wait()
		notifier.Wait()
		return errors.Join(publisher.Close(), database.Close())
	}
	return nil
}
