package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the service configuration loaded from environment variables
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	GinMode     string `env:"GIN_MODE" envDefault:"release"`
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET"`
	CORSOrigin  string `env:"CORS_ORIGIN" envDefault:"http://localhost:3000"`

	Interpreter InterpreterConfig `envPrefix:"INTERPRETER_"`
}

// InterpreterConfig describes the external chatbot process.
// It is read-only once loaded and shared by every invocation.
type InterpreterConfig struct {
	// Bin is the interpreter executable, e.g. the python inside the backend venv.
	Bin string `env:"BIN" envDefault:"libs/venv/bin/python"`
	// Script is passed as the interpreter's sole argument.
	Script string `env:"SCRIPT" envDefault:"chatBot.py"`
	// WorkDir is the service root; relative Bin and Script resolve against it.
	WorkDir string `env:"WORKDIR" envDefault:"."`
	// Timeout bounds a single invocation. Zero disables it.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"0s"`
}

// Load parses the environment into a Config and resolves interpreter paths
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Interpreter.resolve(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *InterpreterConfig) resolve() error {
	workDir, err := filepath.Abs(c.WorkDir)
	if err != nil {
		return fmt.Errorf("resolve interpreter workdir: %w", err)
	}
	c.WorkDir = workDir

	if !filepath.IsAbs(c.Bin) && filepath.Base(c.Bin) != c.Bin {
		c.Bin = filepath.Join(workDir, c.Bin)
	}
	if !filepath.IsAbs(c.Script) {
		c.Script = filepath.Join(workDir, c.Script)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("INTERPRETER_TIMEOUT must not be negative, got %s", c.Timeout)
	}
	return nil
}
