package main

import (
	"errors"
	"fmt"
	"github.com/ardanlabs/conf"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
	"io"
	"os"
	"time"
)

// envPrefix prefixes every environment variable, i.e. USOF_AUTH_SECRET
const envPrefix = "USOF"

// WebAPIConfiguration describes the web API configuration. This structure is automatically parsed by
// loadConfiguration and values from flags, environment variables or configuration file will be loaded.
type WebAPIConfiguration struct {
	Config struct {
		Path    string `conf:"default:/conf/config.yml"`
		EnvFile string `conf:"default:.env"`
	}
	Web struct {
		APIHost         string        `conf:"default:0.0.0.0:3234"`
		ReadTimeout     time.Duration `conf:"default:5s"`
		WriteTimeout    time.Duration `conf:"default:5s"`
		ShutdownTimeout time.Duration `conf:"default:5s"`
		AllowedOrigins  []string      `conf:"default:http://localhost:3000"`
		MaxBodyBytes    int64         `conf:"default:1048576"`
	}
	DB struct {
		Filename string `conf:"default:/tmp/usof.db"`
	}
	Auth struct {
		Secret        string        `conf:"noprint"`
		TokenLifetime time.Duration `conf:"default:5h"`
		BcryptCost    int           `conf:"default:13"`
		ResetLifetime time.Duration `conf:"default:1h"`
		SecureCookie  bool
	}
	Mail struct {
		Host     string
		Port     int `conf:"default:587"`
		Username string
		Password string `conf:"noprint"`
		From     string
		ResetURL string `conf:"default:http://localhost:3000/reset-password"`
	}
	Policy struct {
		CommentOwnership   bool
		AdminCategories    bool
		ExposePasswordHash bool
		RevalidateRole     bool `conf:"default:true"`
	}
	Debug bool
}

// loadConfiguration creates a WebAPIConfiguration starting from flags, environment variables and configuration file.
// It works this way:
//   - variables found in a .env file are exported, unless already set in the environment
//   - flags and environment variables are parsed, falling back on defaults
//   - the YAML configuration file, when found, overrides the values above
//
// If the user asks for help, it prints the usage and returns conf.ErrHelpWanted.
func loadConfiguration(args []string) (WebAPIConfiguration, error) {
	var cfg WebAPIConfiguration

	// the .env path can only be changed through the environment, as flags haven't been parsed yet
	var envFile = os.Getenv(envPrefix + "_CONFIG_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("can't load environment file %q: %w", envFile, err)
	}

	// try to load configuration from environment variables and command line switches
	if err := conf.Parse(args, envPrefix, &cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			usage, err := conf.Usage(envPrefix, &cfg)
			if err != nil {
				return cfg, fmt.Errorf("generating config usage: %w", err)
			}
			fmt.Println(usage) //nolint:forbidigo
			return cfg, conf.ErrHelpWanted
		}
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	// override values from YAML if specified and if it exists (useful in k8s/compose)
	fp, err := os.Open(cfg.Config.Path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("can't read the config file, while it exists: %w", err)
	} else if err == nil {
		defer fp.Close()
		yamlFile, err := io.ReadAll(fp)
		if err != nil {
			return cfg, fmt.Errorf("can't read config file: %w", err)
		}
		if err = yaml.Unmarshal(yamlFile, &cfg); err != nil {
			return cfg, fmt.Errorf("can't unmarshal config file: %w", err)
		}
	}

	return cfg, nil
}
