package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vinv-group/vinv-go/internal/paths"
	"github.com/vinv-group/vinv-go/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "VINV"
)

// Config keys.
const (
	cfgKeyDataDir          = "data_dir"
	cfgKeySchemaDir        = "schema_dir"
	cfgKeyLogLevel         = "log_level"
	cfgKeyTransactionalAdd = "transactional_add"
	cfgKeyArchiveDriver    = "archive.driver"
	cfgKeyArchiveDSN       = "archive.dsn"
	cfgKeyExchangeDriver   = "exchange.driver"
	cfgKeyExchangeDir      = "exchange.dir"
	cfgKeyExchangeBucket   = "exchange.bucket"
	cfgKeyExchangeRegion   = "exchange.region"
	cfgKeyExchangeEndpoint = "exchange.endpoint"
	cfgKeyExchangePath     = "exchange.path_style"
	cfgKeyExchangeKeyID    = "exchange.access_key_id"
	cfgKeyExchangeSecret   = "exchange.secret_access_key"
)

const defaultConfigHeader = `# vinv configuration
# Every key can be overridden with a VINV_ environment variable,
# e.g. VINV_ARCHIVE_DSN or VINV_EXCHANGE_BUCKET.
`

// defaultConfig is written to config.yaml on first run.
var defaultConfig = types.Config{
	LogLevel: types.LogWarn,
	Archive:  types.ArchiveConfig{Driver: types.ArchiveSQLite},
	Exchange: types.ExchangeConfig{Driver: types.ExchangeFS},
}

// env is the resolved configuration of one invocation.
type env struct {
	configDir string
	dataDir   string
	cfg       types.Config
}

// loadEnv resolves directories, reads config.yaml and sets up logging.
func (a *app) loadEnv(cmd *cobra.Command) (*env, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return nil, sysErrorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return nil, err
	}
	cfg := configFromViper(v)
	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", filepath.Join(configDir, paths.ConfigFile), err)
	}

	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return nil, sysErrorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir
	cfg.SchemaDir = paths.SchemaDir(configDir, cfg.SchemaDir)

	a.logger = newLogger(cmd, cfg.LogLevel)
	a.logger.Debug("configuration loaded", "config_dir", configDir, "data_dir", dataDir,
		"archive", cfg.Archive.Driver, "exchange", cfg.Exchange.Driver)
	return &env{configDir: configDir, dataDir: dataDir, cfg: cfg}, nil
}

// loadConfig reads config.yaml from configDir using Viper, creating the
// directory and a default file on first run. A missing config.yaml is not
// an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, sysErrorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, sysErrorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, defaultConfig.LogLevel)
	v.SetDefault(cfgKeyArchiveDriver, defaultConfig.Archive.Driver)
	v.SetDefault(cfgKeyExchangeDriver, defaultConfig.Exchange.Driver)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func configFromViper(v *viper.Viper) types.Config {
	return types.Config{
		DataDir:          v.GetString(cfgKeyDataDir),
		SchemaDir:        v.GetString(cfgKeySchemaDir),
		LogLevel:         strings.ToLower(v.GetString(cfgKeyLogLevel)),
		TransactionalAdd: v.GetBool(cfgKeyTransactionalAdd),
		Archive: types.ArchiveConfig{
			Driver: v.GetString(cfgKeyArchiveDriver),
			DSN:    v.GetString(cfgKeyArchiveDSN),
		},
		Exchange: types.ExchangeConfig{
			Driver:          v.GetString(cfgKeyExchangeDriver),
			Dir:             v.GetString(cfgKeyExchangeDir),
			Bucket:          v.GetString(cfgKeyExchangeBucket),
			Region:          v.GetString(cfgKeyExchangeRegion),
			Endpoint:        v.GetString(cfgKeyExchangeEndpoint),
			PathStyle:       v.GetBool(cfgKeyExchangePath),
			AccessKeyID:     v.GetString(cfgKeyExchangeKeyID),
			SecretAccessKey: v.GetString(cfgKeyExchangeSecret),
		},
	}
}

// ensureDefaultConfigFile writes config.yaml with defaults if the file does
// not exist yet.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, paths.ConfigFile)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(defaultConfigHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(defaultConfig); err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// newLogger returns a text logger on the command's stderr.
func newLogger(cmd *cobra.Command, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
}
