package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

type Config struct {
	App
	PostgreSQL
	HTTP
	OCR
	LLM
}

type App struct {
	ReportsDirectory string
	QueueBuffer      int
}

type PostgreSQL struct {
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
}

type HTTP struct {
	Host         string
	Port         string
	IdleTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type OCR struct {
	InferenceURL string
	Language     string
	// Per-engine wall-clock budgets. Neural backends are materially slower
	// than classical OCR and get a longer leash.
	ClassicalTimeout time.Duration
	NeuralTimeout    time.Duration
}

type LLM struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

func Load(cmd *cli.Command) *Config {
	return &Config{
		App: App{
			ReportsDirectory: cmd.String("reports-dir"),
			QueueBuffer:      int(cmd.Int("queue-buffer")),
		},
		PostgreSQL: PostgreSQL{
			Host:     cmd.String("pg-host"),
			Port:     cmd.String("pg-port"),
			Username: cmd.String("pg-username"),
			Password: cmd.String("pg-password"),
			DBName:   cmd.String("pg-dbname"),
		},
		HTTP: HTTP{
			Host:         cmd.String("http-host"),
			Port:         cmd.String("http-port"),
			IdleTimeout:  cmd.Duration("http-idle-timeout"),
			ReadTimeout:  cmd.Duration("http-read-timeout"),
			WriteTimeout: cmd.Duration("http-write-timeout"),
		},
		OCR: OCR{
			InferenceURL:     cmd.String("ocr-inference-url"),
			Language:         cmd.String("ocr-language"),
			ClassicalTimeout: cmd.Duration("ocr-classical-timeout"),
			NeuralTimeout:    cmd.Duration("ocr-neural-timeout"),
		},
		LLM: LLM{
			BaseURL:    cmd.String("llm-url"),
			Timeout:    cmd.Duration("llm-timeout"),
			MaxRetries: int(cmd.Int("llm-max-retries")),
		},
	}
}
