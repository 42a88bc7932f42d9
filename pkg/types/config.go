package types

import "errors"

// Config holds the settings of a vinv session: where the working copy lives,
// which extra schema sets to load, and the archive and exchange backends.
type Config struct {
	DataDir          string         `json:"data_dir" yaml:"data_dir"`
	SchemaDir        string         `json:"schema_dir,omitempty" yaml:"schema_dir,omitempty"`
	LogLevel         string         `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	TransactionalAdd bool           `json:"transactional_add,omitempty" yaml:"transactional_add,omitempty"`
	Archive          ArchiveConfig  `json:"archive" yaml:"archive"`
	Exchange         ExchangeConfig `json:"exchange" yaml:"exchange"`
}

// ArchiveConfig selects the revision archive backend.
type ArchiveConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// ExchangeConfig selects where exported .vinv files are written and imported
// files are read from.
type ExchangeConfig struct {
	Driver    string `json:"driver" yaml:"driver"`
	Dir       string `json:"dir,omitempty" yaml:"dir,omitempty"`
	Bucket    string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	PathStyle bool   `json:"path_style,omitempty" yaml:"path_style,omitempty"`

	// Static credentials; when empty the default AWS credential chain is used.
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty"`
}

// Archive drivers.
const (
	ArchiveSQLite   = "sqlite"
	ArchivePostgres = "postgres"
	ArchiveNone     = "none"
)

// Exchange drivers.
const (
	ExchangeFS = "fs"
	ExchangeS3 = "s3"
)

// Log levels accepted by LogLevel.
const (
	LogDebug = "debug"
	LogInfo  = "info"
	LogWarn  = "warn"
	LogError = "error"
)

// Config validation errors.
var (
	ErrArchiveDriverUnknown  = errors.New("unknown archive driver")
	ErrArchiveDSNMissing     = errors.New("archive dsn must not be empty for postgres")
	ErrExchangeDriverUnknown = errors.New("unknown exchange driver")
	ErrExchangeBucketMissing = errors.New("exchange bucket must not be empty for s3")
	ErrLogLevelUnknown       = errors.New("unknown log level")
)

var knownArchiveDrivers = map[string]bool{
	"":              true,
	ArchiveSQLite:   true,
	ArchivePostgres: true,
	ArchiveNone:     true,
}

var knownExchangeDrivers = map[string]bool{
	"":         true,
	ExchangeFS: true,
	ExchangeS3: true,
}

var knownLogLevels = map[string]bool{
	"":       true,
	LogDebug: true,
	LogInfo:  true,
	LogWarn:  true,
	LogError: true,
}

// Validate checks that the Config is well-formed. Empty drivers select the
// defaults (sqlite archive, fs exchange).
func (c Config) Validate() error {
	if !knownArchiveDrivers[c.Archive.Driver] {
		return ErrArchiveDriverUnknown
	}
	if c.Archive.Driver == ArchivePostgres && c.Archive.DSN == "" {
		return ErrArchiveDSNMissing
	}
	if !knownExchangeDrivers[c.Exchange.Driver] {
		return ErrExchangeDriverUnknown
	}
	if c.Exchange.Driver == ExchangeS3 && c.Exchange.Bucket == "" {
		return ErrExchangeBucketMissing
	}
	if !knownLogLevels[c.LogLevel] {
		return ErrLogLevelUnknown
	}
	return nil
}
