package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"lottery/internal/blockchain"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
)

const (
	DefaultDatabasePath = "persistent.db"
	DefaultListenAddr   = ":8080"
	DefaultLogLevel     = "info"
)

type Config struct {
	DatabasePath string
	ProgramID    solana.PublicKey
	Admin        solana.PublicKey
	ListenAddr   string
	LogLevel     string
	LogFile      string
	ErrorFile    string
	LogConsole   bool
	AllowAirdrop bool
}

// Load reads envFile into the process environment when it exists, then builds the
// configuration from LOTTERY_* variables. Variables already set win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabasePath: os.Getenv("LOTTERY_DATABASE"),
		ListenAddr:   os.Getenv("LOTTERY_LISTEN_ADDR"),
		LogLevel:     os.Getenv("LOTTERY_LOG_LEVEL"),
		LogFile:      os.Getenv("LOTTERY_LOG_FILE"),
		ErrorFile:    os.Getenv("LOTTERY_ERROR_FILE"),
		LogConsole:   true,
	}

	var err error
	if cfg.ProgramID, err = blockchain.ParseAddress(os.Getenv("LOTTERY_PROGRAM_ID")); err != nil {
		return nil, fmt.Errorf("config: LOTTERY_PROGRAM_ID: %w", err)
	}
	if cfg.Admin, err = blockchain.ParseAddress(os.Getenv("LOTTERY_ADMIN")); err != nil {
		return nil, fmt.Errorf("config: LOTTERY_ADMIN: %w", err)
	}
	if cfg.LogConsole, err = parseBool("LOTTERY_LOG_CONSOLE", true); err != nil {
		return nil, err
	}
	if cfg.AllowAirdrop, err = parseBool("LOTTERY_ALLOW_AIRDROP", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg.ProgramID.IsZero() {
		return errors.New("config: program id is required")
	}
	if cfg.Admin.IsZero() {
		return errors.New("config: admin is required")
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = DefaultDatabasePath
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	return nil
}

func parseBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return value, nil
}
