package main

import (
	"testing"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landledger/landledger/config"
	"github.com/landledger/landledger/database/memory"
)

func TestNewCLICommands(t *testing.T) {
	cli := NewCLI()

	names := []string{}
	for _, c := range cli.cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"start", "workers", "migrate", "config"}, names)

	flag := cli.cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "./landledger.json", flag.DefValue)
}

func TestNewDataSourceMemory(t *testing.T) {
	db, err := newDataSource(&config.Configuration{
		DataSource: config.DataSourceConfig{Dns: config.MemoryDataSource},
	})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, db)
}

func TestRunMigrationsMemoryIsNoop(t *testing.T) {
	config.MockConfig(&config.Configuration{
		DataSource: config.DataSourceConfig{Dns: config.MemoryDataSource},
		Redis:      config.RedisConfig{Dns: "localhost:6379"},
	})

	n, err := runMigrations(migrate.Up)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMigrationSourceFindsEmbeddedFiles(t *testing.T) {
	migrations, err := migrationSource().FindMigrations()
	require.NoError(t, err)
	assert.NotEmpty(t, migrations)
	assert.Equal(t, "1700000001_accounts.sql", migrations[0].Id)
}

func TestInitializeWorkerServer(t *testing.T) {
	config.MockConfig(&config.Configuration{
		DataSource: config.DataSourceConfig{Dns: config.MemoryDataSource},
		Redis:      config.RedisConfig{Dns: "localhost:6379"},
	})
	cfg, err := config.Fetch()
	require.NoError(t, err)

	srv, err := initializeWorkerServer(cfg)
	require.NoError(t, err)
	assert.NotNil(t, srv)
}
