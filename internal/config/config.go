package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr       string   `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL    string   `env:"DATABASE_URL"`
	RunMigrations  bool     `env:"RUN_MIGRATIONS" envDefault:"true"`
	WordsCSV       string   `env:"WORDS_CSV"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty      bool     `env:"LOG_PRETTY" envDefault:"false"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	Game Game `envPrefix:"GAME_"`

	MessageRate  float64 `env:"MESSAGE_RATE" envDefault:"5"`
	MessageBurst int     `env:"MESSAGE_BURST" envDefault:"10"`
}

// Game holds the limits and defaults applied to start_game requests.
type Game struct {
	PointsPerCorrect    int `env:"POINTS_PER_CORRECT" envDefault:"10"`
	DefaultRounds       int `env:"DEFAULT_ROUNDS" envDefault:"3"`
	MaxRounds           int `env:"MAX_ROUNDS" envDefault:"20"`
	DefaultRoundSeconds int `env:"DEFAULT_ROUND_SECONDS" envDefault:"60"`
	MaxRoundSeconds     int `env:"MAX_ROUND_SECONDS" envDefault:"300"`
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load(envFiles...)

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	g := c.Game
	switch {
	case g.PointsPerCorrect <= 0:
		return fmt.Errorf("GAME_POINTS_PER_CORRECT must be positive, got %d", g.PointsPerCorrect)
	case g.MaxRounds < 1 || g.DefaultRounds < 1 || g.DefaultRounds > g.MaxRounds:
		return fmt.Errorf("GAME_DEFAULT_ROUNDS must be within 1..%d, got %d", g.MaxRounds, g.DefaultRounds)
	case g.MaxRoundSeconds < 1 || g.DefaultRoundSeconds < 1 || g.DefaultRoundSeconds > g.MaxRoundSeconds:
		return fmt.Errorf("GAME_DEFAULT_ROUND_SECONDS must be within 1..%d, got %d", g.MaxRoundSeconds, g.DefaultRoundSeconds)
	case c.MessageRate <= 0 || c.MessageBurst < 1:
		return fmt.Errorf("MESSAGE_RATE and MESSAGE_BURST must be positive")
	}
	return nil
}
