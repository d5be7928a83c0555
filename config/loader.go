package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "semkb.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/semkb"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
	// EnvFile is the optional dotenv file read from the working directory
	EnvFile = ".env"
)

// envOverrides maps environment variables onto config fields.
var envOverrides = []struct {
	name  string
	apply func(c *Config, v string)
}{
	{"SEMKB_LOG_LEVEL", func(c *Config, v string) { c.Log.Level = v }},
	{"SEMKB_LOG_FORMAT", func(c *Config, v string) { c.Log.Format = v }},
	{"SEMKB_KB_STRATEGY", func(c *Config, v string) { c.KB.Strategy = v }},
	{"SEMKB_NATS_URL", func(c *Config, v string) { c.NATS.URL = v }},
	{"SEMKB_NEO4J_URI", func(c *Config, v string) { c.Neo4j.URI = v }},
	{"SEMKB_NEO4J_USERNAME", func(c *Config, v string) { c.Neo4j.Username = v }},
	{"SEMKB_NEO4J_PASSWORD", func(c *Config, v string) { c.Neo4j.Password = v }},
	{"SEMKB_NEO4J_DATABASE", func(c *Config, v string) { c.Neo4j.Database = v }},
}

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger

	// Overridable for tests; zero values use the process environment.
	homeDir   string
	workDir   string
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, lookupEnv: os.LookupEnv}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/semkb/config.yaml)
// 3. Project config (semkb.yaml in current or parent directories)
// 4. .env in the current directory
// 5. SEMKB_* environment variables
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	if userConfigPath := l.userConfigPath(); userConfigPath != "" {
		if userConfig, err := LoadFromFile(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" {
		projectConfig, err := LoadFromFile(projectConfigPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
		config.Merge(projectConfig)
	} else {
		l.logger.Debug("No project config found")
	}

	l.applyEnv(config, l.readEnvFile())

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	if _, err := os.Stat(userConfigPath); err == nil {
		return nil
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// readEnvFile returns the variables of ./.env, or nil when there is none.
func (l *Loader) readEnvFile() map[string]string {
	dir := l.cwd()
	if dir == "" {
		return nil
	}
	path := filepath.Join(dir, EnvFile)
	vars, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("Failed to read env file", slog.String("path", path), slog.String("error", err.Error()))
		}
		return nil
	}
	l.logger.Debug("Loaded env file", slog.String("path", path))
	return vars
}

// applyEnv applies overrides; the process environment wins over the file.
func (l *Loader) applyEnv(c *Config, fileVars map[string]string) {
	for _, o := range envOverrides {
		v, ok := l.lookupEnv(o.name)
		if !ok {
			v, ok = fileVars[o.name]
		}
		if ok && v != "" {
			o.apply(c, v)
		}
	}
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home := l.homeDir
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

func (l *Loader) cwd() string {
	if l.workDir != "" {
		return l.workDir
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return cwd
}

// findProjectConfig searches for semkb.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	dir := l.cwd()
	if dir == "" {
		return ""
	}

	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
