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
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/landledger/landledger"
	"github.com/landledger/landledger/config"
	"github.com/landledger/landledger/database"
	"github.com/landledger/landledger/database/memory"
	"github.com/landledger/landledger/internal/notification"
	redis_db "github.com/landledger/landledger/internal/redis-db"
)

// LandLedger represents the CLI application, encapsulating the root Cobra command.
type LandLedger struct {
	cmd *cobra.Command
}

// landledgerInstance holds the service and configuration shared by every command.
type landledgerInstance struct {
	landledger *landledger.LandLedger
	cnf        *config.Configuration
	closers    []func() error
}

func (app *landledgerInstance) close() {
	for _, fn := range app.closers {
		if err := fn(); err != nil {
			logrus.WithError(err).Warn("failed to release resource")
		}
	}
	app.closers = nil
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration before any command runs. Commands that need
// the service call setupLandLedger themselves so `migrate` and `config` work
// without redis or a notification sink.
func preRun(configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := config.InitConfig(*configFile); err != nil {
			return errors.Wrap(err, "error loading config")
		}
		return nil
	}
}

// newDataSource picks the in-memory store for memory:// and Postgres otherwise.
func newDataSource(cfg *config.Configuration) (database.IDataSource, error) {
	if cfg.DataSource.Dns == config.MemoryDataSource {
		logrus.Warn("using the in-memory datastore, data is lost on restart")
		return memory.New(), nil
	}
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "error getting datasource")
	}
	return db, nil
}

// setupLandLedger wires the datasource, redis, notifier and metrics into a service.
func setupLandLedger(app *landledgerInstance) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	db, err := newDataSource(cfg)
	if err != nil {
		return err
	}

	rdb, err := redis_db.NewRedisClient([]string{cfg.Redis.Dns}, cfg.Redis.SkipTLSVerify)
	if err != nil {
		return errors.Wrap(err, "error connecting to redis")
	}
	app.closers = append(app.closers, rdb.Client().Close)

	notifier, closeNotifier, err := landledger.NewNotifierFromConfig(cfg)
	if err != nil {
		return errors.Wrap(err, "error creating notifier")
	}
	app.closers = append(app.closers, closeNotifier)

	l, err := landledger.NewLandLedger(db,
		landledger.WithRedis(rdb.Client()),
		landledger.WithNotifier(notifier),
	)
	if err != nil {
		return errors.Wrap(err, "error creating landledger")
	}

	app.landledger = l
	app.cnf = cfg
	return nil
}

// mustSetup is used by long running commands, which cannot do anything useful
// without a working service.
func mustSetup(app *landledgerInstance) {
	if err := setupLandLedger(app); err != nil {
		notification.NotifyError(err)
		logrus.Fatal(err)
	}
}

// NewCLI creates the command-line interface with the server, workers, migrate
// and config commands.
func NewCLI() *LandLedger {
	var configFile string
	app := &landledgerInstance{}

	var rootCmd = &cobra.Command{
		Use:   "landledger",
		Short: "Land account ledger and loan repayment engine",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./landledger.json", "Configuration file for landledger")
	rootCmd.PersistentPreRunE = preRun(&configFile)

	rootCmd.AddCommand(serverCommands(app))
	rootCmd.AddCommand(workerCommands())
	rootCmd.AddCommand(migrateCommands())
	rootCmd.AddCommand(configCommands())

	return &LandLedger{cmd: rootCmd}
}

func (w LandLedger) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
