// FilePath: cmd/loader/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/itsatony/sensorhub/internal/config"
	"github.com/itsatony/sensorhub/internal/database"
	"github.com/itsatony/sensorhub/internal/hubservice"
	"github.com/itsatony/sensorhub/internal/loader"
	"github.com/itsatony/sensorhub/internal/monitoring"
	"github.com/itsatony/sensorhub/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	nuts "github.com/vaudience/go-nuts"
)

// app carries what every subcommand needs once the root command has run
type app struct {
	v          *viper.Viper
	db         database.DB
	monitoring *monitoring.Service
	loader     *loader.Loader
}

func main() {
	nuts.InitVersion()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{v: viper.New()}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		nuts.L.Errorf("[Loader] %v", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {

	root := &cobra.Command{
		Use:           "sensorhub-loader",
		Short:         "Bulk import and seeding tools for SensorHub",
		Version:       nuts.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
	}

	root.PersistentFlags().String("driver", config.DriverPostgres, "storage driver (postgres or memory)")
	root.PersistentFlags().String("db-host", "", "postgres host")
	root.PersistentFlags().String("db-name", "", "postgres database name")
	bindFlag(a.v, "database.driver", root.PersistentFlags().Lookup("driver"))
	bindFlag(a.v, "database.postgres.host", root.PersistentFlags().Lookup("db-host"))
	bindFlag(a.v, "database.postgres.dbname", root.PersistentFlags().Lookup("db-name"))

	root.AddCommand(
		a.loadReadingsCmd(),
		a.seedCmd(),
		a.seedSensorsCmd(),
	)
	return root
}

func (a *app) loadReadingsCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "load-readings <csv_path>",
		Short: "Import readings from a long-format CSV, updating existing timestamps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.loader.LoadFile(cmd.Context(), args[0], loader.Options{Owner: owner})
			if err != nil {
				return err
			}
			logResult(res)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "only resolve sensor names owned by this username")
	return cmd
}

func (a *app) seedCmd() *cobra.Command {
	var opts loader.SeedOptions
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo user and sensors, then import the seed CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.loader.Seed(cmd.Context(), opts)
			if err != nil {
				return err
			}
			logResult(res)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.CSVPath, "csv", loader.DefaultSeedCSV, "path to the readings CSV")
	cmd.Flags().StringVar(&opts.Username, "username", loader.DefaultSeedUsername, "demo username")
	cmd.Flags().StringVar(&opts.Password, "password", loader.DefaultSeedPassword, "demo password")
	return cmd
}

func (a *app) seedSensorsCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "seed-sensors",
		Short: "Create the default sensors for a user (the first user when omitted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.loader.SeedSensorsFor(cmd.Context(), username)
			if err != nil {
				return err
			}
			nuts.L.Infof("[Loader] %d sensor(s) created", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "owner of the sensors")
	return cmd
}

func (a *app) open() error {
	cfg, err := config.LoadWith(a.v)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	svc, db, err := server.OpenHubService(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	if cfg.Database.Driver == config.DriverMemory {
		nuts.L.Warnf("[Loader] Memory driver selected; imported data is discarded on exit")
	}
	a.db = db
	a.monitoring = monitoring.NewService(cfg.Redis)
	if err := svc.On(hubservice.EventReadingsImported, func(count string) {
		a.monitoring.RecordEvent("readings_import", map[string]string{"count": count})
	}); err != nil {
		return err
	}
	a.loader = loader.New(svc)
	return nil
}

func (a *app) close() {
	if a.monitoring != nil {
		if err := a.monitoring.Close(); err != nil {
			nuts.L.Warnf("[Loader] Failed to close monitoring: %v", err)
		}
		a.monitoring = nil
	}
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		nuts.L.Warnf("[Loader] Failed to close database: %v", err)
	}
	a.db = nil
}

func logResult(res loader.Result) {
	nuts.L.Infof("[Loader] Imported %d row(s): %d created, %d updated, %d skipped",
		res.Imported(), res.Created, res.Updated, res.Skipped)
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		nuts.L.Fatalf("[Loader] Failed to bind flag %s: %v", key, err)
	}
}
