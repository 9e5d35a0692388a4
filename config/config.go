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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5005"

	// MemoryDataSource selects the in-process transactional store instead of Postgres.
	MemoryDataSource = "memory://"

	SinkWebhook = "webhook"
	SinkKafka   = "kafka"
	SinkNone    = "none"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"LANDLEDGER_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"LANDLEDGER_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"LANDLEDGER_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"LANDLEDGER_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"LANDLEDGER_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"LANDLEDGER_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"LANDLEDGER_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"LANDLEDGER_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"LANDLEDGER_REDIS_SKIP_TLS_VERIFY"`
}

// TransactionConfig bounds every ledger/loan unit of work.
type TransactionConfig struct {
	TimeoutSeconds int    `json:"timeout_seconds" envconfig:"LANDLEDGER_TRANSACTION_TIMEOUT_SECONDS"`
	Isolation      string `json:"isolation" envconfig:"LANDLEDGER_TRANSACTION_ISOLATION"`
}

type LoanConfig struct {
	LockTTLSeconds  int `json:"lock_ttl_seconds" envconfig:"LANDLEDGER_LOAN_LOCK_TTL_SECONDS"`
	LockWaitSeconds int `json:"lock_wait_seconds" envconfig:"LANDLEDGER_LOAN_LOCK_WAIT_SECONDS"`
}

type SequenceConfig struct {
	MaxAttempts    int      `json:"max_attempts" envconfig:"LANDLEDGER_SEQUENCE_MAX_ATTEMPTS"`
	DocumentDigits int      `json:"document_digits" envconfig:"LANDLEDGER_SEQUENCE_DOCUMENT_DIGITS"`
	PhonePrefixes  []string `json:"phone_prefixes" envconfig:"LANDLEDGER_SEQUENCE_PHONE_PREFIXES"`
	PhoneDigits    int      `json:"phone_digits" envconfig:"LANDLEDGER_SEQUENCE_PHONE_DIGITS"`
}

type ReportConfig struct {
	CacheTTLSeconds int `json:"cache_ttl_seconds" envconfig:"LANDLEDGER_REPORT_CACHE_TTL_SECONDS"`
}

// RateLimitConfig is disabled when both RequestsPerSecond and Burst are nil.
type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"LANDLEDGER_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"LANDLEDGER_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"LANDLEDGER_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type TracingConfig struct {
	Enabled  bool   `json:"enabled" envconfig:"LANDLEDGER_TRACING_ENABLED"`
	Endpoint string `json:"endpoint" envconfig:"LANDLEDGER_TRACING_ENDPOINT"`
	Insecure bool   `json:"insecure" envconfig:"LANDLEDGER_TRACING_INSECURE"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type KafkaConfig struct {
	Brokers []string `json:"brokers" envconfig:"LANDLEDGER_KAFKA_BROKERS"`
	Topic   string   `json:"topic" envconfig:"LANDLEDGER_KAFKA_TOPIC"`
}

type Notification struct {
	Sink           string       `json:"sink" envconfig:"LANDLEDGER_NOTIFICATION_SINK"`
	TimeoutSeconds int          `json:"timeout_seconds" envconfig:"LANDLEDGER_NOTIFICATION_TIMEOUT_SECONDS"`
	Slack          SlackWebhook `json:"slack"`
	Kafka          KafkaConfig  `json:"kafka"`
	Webhook        struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type QueueConfig struct {
	NotificationQueue string `json:"notification_queue" envconfig:"LANDLEDGER_QUEUE_NOTIFICATION"`
	Concurrency       int    `json:"concurrency" envconfig:"LANDLEDGER_QUEUE_CONCURRENCY"`
	MaxRetryAttempts  int    `json:"max_retry_attempts" envconfig:"LANDLEDGER_QUEUE_MAX_RETRY_ATTEMPTS"`
	MonitoringPort    string `json:"monitoring_port" envconfig:"LANDLEDGER_QUEUE_MONITORING_PORT"`
}

type Configuration struct {
	ProjectName  string            `json:"project_name" envconfig:"LANDLEDGER_PROJECT_NAME"`
	Server       ServerConfig      `json:"server"`
	DataSource   DataSourceConfig  `json:"data_source"`
	Redis        RedisConfig       `json:"redis"`
	Transaction  TransactionConfig `json:"transaction"`
	Loan         LoanConfig        `json:"loan"`
	Sequence     SequenceConfig    `json:"sequence"`
	Report       ReportConfig      `json:"report"`
	Notification Notification      `json:"notification"`
	Queue        QueueConfig       `json:"queue"`
	RateLimit    RateLimitConfig   `json:"rate_limit"`
	Tracing      TracingConfig     `json:"tracing"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("landledger", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called landledger.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		cnf.ProjectName = "LandLedger"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	cnf.applyDefaults()
	return nil
}

// applyDefaults fills every tunable that has a safe default. It is also used by
// MockConfig so tests only need to set what they care about.
func (cnf *Configuration) applyDefaults() {
	if cnf.Transaction.TimeoutSeconds <= 0 {
		cnf.Transaction.TimeoutSeconds = 10
	}
	if cnf.Transaction.Isolation == "" {
		cnf.Transaction.Isolation = "read_committed"
	}
	if cnf.Loan.LockTTLSeconds <= 0 {
		cnf.Loan.LockTTLSeconds = 30
	}
	if cnf.Loan.LockWaitSeconds <= 0 {
		cnf.Loan.LockWaitSeconds = 10
	}
	if cnf.Sequence.MaxAttempts <= 0 {
		cnf.Sequence.MaxAttempts = 5
	}
	if cnf.Sequence.DocumentDigits <= 0 {
		cnf.Sequence.DocumentDigits = 5
	}
	if len(cnf.Sequence.PhonePrefixes) == 0 {
		cnf.Sequence.PhonePrefixes = []string{"10", "20", "30"}
	}
	if cnf.Sequence.PhoneDigits <= 0 {
		cnf.Sequence.PhoneDigits = 8
	}
	if cnf.Report.CacheTTLSeconds <= 0 {
		cnf.Report.CacheTTLSeconds = 30
	}
	if cnf.Notification.Sink == "" {
		cnf.Notification.Sink = SinkWebhook
	}
	if cnf.Notification.TimeoutSeconds <= 0 {
		cnf.Notification.TimeoutSeconds = 5
	}
	if cnf.Notification.Kafka.Topic == "" {
		cnf.Notification.Kafka.Topic = "landledger_events"
	}
	if cnf.Queue.NotificationQueue == "" {
		cnf.Queue.NotificationQueue = "notifications"
	}
	if cnf.Queue.Concurrency <= 0 {
		cnf.Queue.Concurrency = 2
	}
	if cnf.Queue.MaxRetryAttempts <= 0 {
		cnf.Queue.MaxRetryAttempts = 5
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = "5004"
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}
}

func (cnf *Configuration) TransactionTimeout() time.Duration {
	return time.Duration(cnf.Transaction.TimeoutSeconds) * time.Second
}

func (cnf *Configuration) NotificationTimeout() time.Duration {
	return time.Duration(cnf.Notification.TimeoutSeconds) * time.Second
}

func (cnf *Configuration) ReportCacheTTL() time.Duration {
	return time.Duration(cnf.Report.CacheTTLSeconds) * time.Second
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	mockConfig.applyDefaults()
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
