package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Pipeline PipelineConfig    `yaml:"pipeline"`
	Ethereum EthereumConfig    `yaml:"ethereum"`
	Elastic  ElasticConfig     `yaml:"elastic"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if err := c.Ethereum.Validate(); err != nil {
		return err
	}
	return c.Elastic.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// PipelineConfig holds the batching and queueing parameters.
type PipelineConfig struct {
	// QueueCapacity bounds each of the three stage queues.
	QueueCapacity int `yaml:"queue_capacity"`
	// BatchSize is the number of documents per full batch.
	BatchSize int `yaml:"batch_size"`
	// Workers is the number of competing consumer instances spawned
	// for each stage.
	Workers int `yaml:"workers"`
}

// Validate validates the pipeline configuration.
func (c *PipelineConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.QueueCapacity, validation.Required, validation.Min(1)),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
	)
}

// EthereumConfig holds the ledger connection settings. With Disable
// set, the in-memory ledger is used instead and the other fields are
// ignored.
type EthereumConfig struct {
	URL           string `yaml:"url"`
	Contract      string `yaml:"contract"`
	PrivateKey    string `yaml:"private_key"`
	MaxPendingTxs int    `yaml:"max_pending_txs"`
	Disable       bool   `yaml:"disable"`
}

// Validate validates the ledger configuration.
func (c *EthereumConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.MaxPendingTxs, validation.Required, validation.Min(1)),
	); err != nil {
		return err
	}
	if c.Disable {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.Contract, validation.Required),
		validation.Field(&c.PrivateKey, validation.Required),
	)
}

// ElasticConfig holds the document store connection settings. With
// Disable set, the in-memory repository is used instead.
type ElasticConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// IndexLayout is a Go time layout producing the date-partitioned
	// index name at write time.
	IndexLayout string `yaml:"index_layout"`
	Disable     bool   `yaml:"disable"`
}

// Validate validates the document store configuration.
func (c *ElasticConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.IndexLayout, validation.Required),
	); err != nil {
		return err
	}
	if c.Disable {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Pipeline: PipelineConfig{
			QueueCapacity: 1024,
			BatchSize:     10,
			Workers:       1,
		},
		Ethereum: EthereumConfig{
			MaxPendingTxs: 8,
			Disable:       true,
		},
		Elastic: ElasticConfig{
			IndexLayout: "audita-2006.01.02",
			Disable:     true,
		},
	}
}
