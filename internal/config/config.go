package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "MEDIAIDX"

	DefaultScanRoot    = "/Volumes"
	DefaultArchiveName = "Media_Archive"
	DefaultOutputName  = "Media_Index_v1.0.csv"
	DefaultTable       = "media_archive_index"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ModeShared   = "shared"
	ModeNumbered = "numbered"
)

var (
	defaultSearchPaths = []string{"config.json", "/etc/mediaidx.json"}
	tableNameRegexp    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Config describes one indexing run.
type Config struct {
	ScanRoot        string         `mapstructure:"scan_root"`
	ArchiveName     string         `mapstructure:"archive_name"`
	BaseDir         string         `mapstructure:"base_dir"`
	OutputFile      string         `mapstructure:"output_file"`
	ReservedNames   []string       `mapstructure:"reserved_names"`
	DuplicateSuffix string         `mapstructure:"duplicate_suffix"`
	DuplicateMode   string         `mapstructure:"duplicate_mode"`
	Workers         int            `mapstructure:"workers"`
	Timeout         time.Duration  `mapstructure:"timeout"`
	Strict          bool           `mapstructure:"strict"`
	Log             LogConfig      `mapstructure:"log"`
	Database        DatabaseConfig `mapstructure:"database"`
	S3              S3Config       `mapstructure:"s3"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DatabaseConfig holds the relational sink options.
type DatabaseConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Name        string `mapstructure:"name"`
	SSLMode     string `mapstructure:"sslmode"`
	Table       string `mapstructure:"table"`
	CreateTable bool   `mapstructure:"create_table"`
}

// S3Config holds the options for publishing the index to object storage.
type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	Key             string `mapstructure:"key"`
}

// LoadOptions selects where configuration comes from.
type LoadOptions struct {
	// ConfigFile is used exclusively when set and must exist.
	ConfigFile string
	// SearchPaths are tried in order when ConfigFile is empty. Nil means the
	// default list; an empty slice disables file lookup.
	SearchPaths []string
}

// Load merges defaults, the first config file found and MEDIAIDX_* environment
// variables, then validates the result.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	path, err := resolveConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("json")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file or environment is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.applyDerived()
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scan_root", DefaultScanRoot)
	v.SetDefault("archive_name", DefaultArchiveName)
	v.SetDefault("base_dir", "")
	v.SetDefault("output_file", "")
	v.SetDefault("reserved_names", []string{".DS_Store"})
	v.SetDefault("duplicate_suffix", "_DUPLICATE")
	v.SetDefault("duplicate_mode", ModeShared)
	v.SetDefault("workers", 4)
	v.SetDefault("timeout", 30*time.Minute)
	v.SetDefault("strict", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.table", DefaultTable)
	v.SetDefault("database.create_table", true)
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.host", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.session_token", "")
	v.SetDefault("s3.force_path_style", false)
	v.SetDefault("s3.key", "media-index/"+DefaultOutputName)
}

// legacyEnv maps config keys to environment names used by older deployments.
var legacyEnv = map[string]string{
	"base_dir":          "TORBASE",
	"database.user":     "PG_username",
	"database.password": "PG_password",
	"database.name":     "PG_database",
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		primary := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, primary, legacy); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

func resolveConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", fmt.Errorf("config file %s: %w", opts.ConfigFile, err)
		}
		return opts.ConfigFile, nil
	}
	paths := opts.SearchPaths
	if paths == nil {
		paths = defaultSearchPaths
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("stat config %s: %w", p, err)
		}
		if info.IsDir() {
			continue
		}
		return p, nil
	}
	return "", nil
}

func (c *Config) applyDerived() {
	if strings.TrimSpace(c.OutputFile) == "" {
		c.OutputFile = filepath.Join(c.BaseDir, DefaultOutputName)
	}
}

// Validate performs basic validation of the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ScanRoot) == "" {
		return errors.New("config.scan_root must be set")
	}
	if strings.TrimSpace(c.ArchiveName) == "" {
		return errors.New("config.archive_name must be set")
	}
	if strings.ContainsRune(c.ArchiveName, '/') || strings.ContainsRune(c.ArchiveName, filepath.Separator) {
		return fmt.Errorf("config.archive_name %q must be a single path segment", c.ArchiveName)
	}
	switch c.DuplicateMode {
	case ModeShared, ModeNumbered:
	default:
		return fmt.Errorf("config.duplicate_mode %q must be %q or %q", c.DuplicateMode, ModeShared, ModeNumbered)
	}
	if c.DuplicateSuffix == "" {
		return errors.New("config.duplicate_suffix must be set")
	}
	if c.Workers < 1 {
		return fmt.Errorf("config.workers must be positive, got %d", c.Workers)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config.timeout must not be negative, got %s", c.Timeout)
	}
	if c.Database.Enabled {
		if err := c.Database.validate(); err != nil {
			return err
		}
	}
	if c.S3.Enabled {
		if c.S3.Host == "" {
			return errors.New("config.s3.host must be set")
		}
		if c.S3.Bucket == "" {
			return errors.New("config.s3.bucket must be set")
		}
		if c.S3.Key == "" {
			return errors.New("config.s3.key must be set")
		}
	}
	return nil
}

func (d DatabaseConfig) validate() error {
	switch d.Driver {
	case DriverPostgres:
	case DriverSQLite:
		if d.DSN == "" && d.Name == "" {
			return errors.New("config.database.name must point to the sqlite file")
		}
	default:
		return fmt.Errorf("config.database.driver %q must be %q or %q", d.Driver, DriverPostgres, DriverSQLite)
	}
	if !tableNameRegexp.MatchString(d.Table) {
		return fmt.Errorf("config.database.table %q is not a valid identifier", d.Table)
	}
	return nil
}

// DataSource returns the driver-specific connection string.
func (d DatabaseConfig) DataSource() string {
	if d.DSN != "" {
		return d.DSN
	}
	if d.Driver == DriverSQLite {
		return d.Name
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{d.SSLMode}}.Encode()
	}
	return u.String()
}

// Redacted returns the connection string with the password masked, for logs.
func (d DatabaseConfig) Redacted() string {
	dsn := d.DataSource()
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
