package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/notelens/notelens/pkg/usecase"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Chat holds tuning parameters for the chat pipeline. Values come from
// flags, with an optional TOML file as a base layer. An explicitly set
// flag always wins over the file.
type Chat struct {
	configPath     string
	historyWindow  int
	resyncInterval time.Duration
	embedTimeout   time.Duration
	turnTimeout    time.Duration
}

// chatFile is the TOML shape of the optional configuration file.
// Durations are written as strings like "5m" or "30s".
type chatFile struct {
	HistoryWindow    *int    `toml:"history_window"`
	ResyncInterval   *string `toml:"resync_interval"`
	EmbeddingTimeout *string `toml:"embedding_timeout"`
	TurnTimeout      *string `toml:"turn_timeout"`
}

// Flags returns CLI flags for chat configuration
func (c *Chat) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "chat-config",
			Usage:       "Path to a TOML file with chat tuning parameters",
			Category:    "Chat",
			Sources:     cli.EnvVars("NOTELENS_CHAT_CONFIG"),
			Destination: &c.configPath,
		},
		&cli.IntFlag{
			Name:        "history-window",
			Usage:       "Number of recent messages sent to the model",
			Category:    "Chat",
			Value:       usecase.DefaultHistoryWindow,
			Sources:     cli.EnvVars("NOTELENS_HISTORY_WINDOW"),
			Destination: &c.historyWindow,
		},
		&cli.DurationFlag{
			Name:        "resync-interval",
			Usage:       "How often the background worker re-indexes notes without chunks",
			Category:    "Chat",
			Value:       10 * time.Minute,
			Sources:     cli.EnvVars("NOTELENS_RESYNC_INTERVAL"),
			Destination: &c.resyncInterval,
		},
		&cli.DurationFlag{
			Name:        "embedding-timeout",
			Usage:       "Deadline for a single embedding provider call",
			Category:    "Chat",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("NOTELENS_EMBEDDING_TIMEOUT"),
			Destination: &c.embedTimeout,
		},
		&cli.DurationFlag{
			Name:        "turn-timeout",
			Usage:       "Deadline for one whole chat turn",
			Category:    "Chat",
			Value:       usecase.DefaultTurnTimeout,
			Sources:     cli.EnvVars("NOTELENS_TURN_TIMEOUT"),
			Destination: &c.turnTimeout,
		},
	}
}

// Configure merges the optional TOML file into the flag values and
// validates the result
func (c *Chat) Configure(cmd *cli.Command) error {
	if c.configPath != "" {
		file, err := loadChatFile(c.configPath)
		if err != nil {
			return err
		}

		if file.HistoryWindow != nil && !cmd.IsSet("history-window") {
			c.historyWindow = *file.HistoryWindow
		}
		if file.ResyncInterval != nil && !cmd.IsSet("resync-interval") {
			d, err := time.ParseDuration(*file.ResyncInterval)
			if err != nil {
				return goerr.Wrap(err, "invalid resync_interval in chat config", goerr.V("path", c.configPath))
			}
			c.resyncInterval = d
		}
		if file.EmbeddingTimeout != nil && !cmd.IsSet("embedding-timeout") {
			d, err := time.ParseDuration(*file.EmbeddingTimeout)
			if err != nil {
				return goerr.Wrap(err, "invalid embedding_timeout in chat config", goerr.V("path", c.configPath))
			}
			c.embedTimeout = d
		}
		if file.TurnTimeout != nil && !cmd.IsSet("turn-timeout") {
			d, err := time.ParseDuration(*file.TurnTimeout)
			if err != nil {
				return goerr.Wrap(err, "invalid turn_timeout in chat config", goerr.V("path", c.configPath))
			}
			c.turnTimeout = d
		}
	}

	if c.historyWindow < 1 {
		return goerr.New("history window must be at least 1", goerr.V("window", c.historyWindow))
	}
	if c.resyncInterval <= 0 {
		return goerr.New("resync interval must be positive", goerr.V("interval", c.resyncInterval))
	}
	if c.embedTimeout <= 0 {
		return goerr.New("embedding timeout must be positive", goerr.V("timeout", c.embedTimeout))
	}
	if c.turnTimeout <= 0 {
		return goerr.New("turn timeout must be positive", goerr.V("timeout", c.turnTimeout))
	}

	return nil
}

func loadChatFile(path string) (*chatFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read chat config file", goerr.V("path", path))
	}

	var file chatFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML chat config", goerr.V("path", path))
	}

	return &file, nil
}

// HistoryWindow returns the configured recency window size
func (c *Chat) HistoryWindow() int {
	return c.historyWindow
}

// ResyncInterval returns the background re-index interval
func (c *Chat) ResyncInterval() time.Duration {
	return c.resyncInterval
}

// EmbeddingTimeout returns the embedding call deadline
func (c *Chat) EmbeddingTimeout() time.Duration {
	return c.embedTimeout
}

// TurnTimeout returns the per-turn chat deadline
func (c *Chat) TurnTimeout() time.Duration {
	return c.turnTimeout
}
