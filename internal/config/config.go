package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

// DefaultPath is the config file read when no --config flag is given.
const DefaultPath = "parcelsales.json5"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

var usState = regexp.MustCompile(`^[A-Z]{2}$`)

// Projections understood by the parcel transform.
const (
	ProjectionNone           = "none"
	ProjectionARNorth        = "ar_north_ftus"
	ProjectionTXNorthCentral = "tx_north_central_ftus"
)

// Config is every setting of a run.
type Config struct {
	Parcels ParcelsConfig `json:"parcels"`
	Crawl   CrawlConfig   `json:"crawl"`
	Report  ReportConfig  `json:"report"`
	Log     LogConfig     `json:"log"`
}

// ParcelsConfig locates the raw shapefile and the chunked parcel CSVs derived from it.
type ParcelsConfig struct {
	Shapefile     string `json:"shapefile"`
	Projection    string `json:"projection"`
	ChunkDir      string `json:"chunk_dir"`
	ChunkBasename string `json:"chunk_basename"`
	ChunkCount    int    `json:"chunk_count"`

	// Files overrides the chunk naming scheme with an explicit list.
	Files []string `json:"files"`

	LandValueColumn string `json:"land_value_column"`
}

// CrawlConfig controls where pages are fetched from and how politely.
type CrawlConfig struct {
	BaseURL     string            `json:"base_url"`
	ParcelParam string            `json:"parcel_param"`
	Query       map[string]string `json:"query"`
	Headers     map[string]string `json:"headers"`
	Proxies     []string          `json:"proxies"`

	Groups    []string `json:"groups"`
	OutputDir string   `json:"output_dir"`

	TimeoutSeconds         float64 `json:"timeout_seconds"`
	RetryLimit             int     `json:"retry_limit"`
	RetryBackoffSeconds    float64 `json:"retry_backoff_seconds"`
	RequestIntervalSeconds float64 `json:"request_interval_seconds"`
	FlushEvery             int     `json:"flush_every"`
}

// Timeout is the per-request timeout.
func (c CrawlConfig) Timeout() time.Duration      { return seconds(c.TimeoutSeconds) }
func (c CrawlConfig) RetryBackoff() time.Duration { return seconds(c.RetryBackoffSeconds) }
func (c CrawlConfig) RequestInterval() time.Duration {
	return seconds(c.RequestIntervalSeconds)
}

// SalesPath is the append-only sales CSV for a group.
func (c CrawlConfig) SalesPath(group string) string {
	return filepath.Join(c.OutputDir, group+".csv")
}

// ProgressPath is the completed-parcel set for a group.
func (c CrawlConfig) ProgressPath(group string) string {
	return filepath.Join(c.OutputDir, group+"_progress.json")
}

// ReportConfig controls the joined report and its optional database copy.
type ReportConfig struct {
	OutputPath string   `json:"output_path"`
	DeedPrefix string   `json:"deed_prefix"`
	HomeState  string   `json:"home_state"`
	Database   DBConfig `json:"database"`
}

// DBConfig selects where the finished report is mirrored. An empty Driver disables it.
type DBConfig struct {
	Driver         string `json:"driver"`
	Path           string `json:"path"`
	Host           string `json:"host"`
	Port           string `json:"port"`
	Service        string `json:"service"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	WalletLocation string `json:"wallet_location"`
}

// LogConfig sets the level and the rotated log file. An empty File logs to stderr only.
type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Default returns the settings the crawler has always run with.
func Default() Config {
	return Config{
		Parcels: ParcelsConfig{
			Shapefile:       filepath.Join("input", "rawGeoDB_20250613", "Parcels.shp"),
			Projection:      ProjectionNone,
			ChunkDir:        filepath.Join("input", "transformedGeoDB"),
			ChunkBasename:   "benton_parcels_with_coords_20250613",
			ChunkCount:      3,
			LandValueColumn: "LAND_VAL",
		},
		Crawl: CrawlConfig{
			BaseURL:     "https://www.arcountydata.com/parcel_sponsor.asp",
			ParcelParam: "parcelid",
			Query: map[string]string{
				"county": "Benton",
				"AISGIS": "Benton",
			},
			Headers: map[string]string{
				"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
				"Accept":          "*/*",
				"Accept-Language": "en-US,en;q=0.9",
			},
			Groups: []string{
				"36-21-31", "01-20-31", "06-20-30", "31-21-30", "12-20-31", "07-20-30",
				"08-20-30", "09-20-30", "35-21-31", "27-21-31", "10-20-31",
			},
			OutputDir:              "output",
			TimeoutSeconds:         10,
			RetryLimit:             3,
			RetryBackoffSeconds:    4,
			RequestIntervalSeconds: 4,
			FlushEvery:             5,
		},
		Report: ReportConfig{
			OutputPath: filepath.Join("output", "reporting", "final_looker_ready_report.csv"),
			DeedPrefix: "WD",
			HomeState:  "AR",
		},
		Log: LogConfig{
			Level: "info",
			File:  "process_log.log",
		},
	}
}

// Load layers <path> and <path>.local over the defaults, then applies .env and
// PARCELSALES_DB_* overrides. An empty path means DefaultPath, which may be absent.
// Zero and empty values in a file are ignored, except for
// crawl.retry_backoff_seconds and crawl.request_interval_seconds where 0 turns
// the wait off.
func Load(path string) (Config, error) {
	cfg := Default()

	optional := path == ""
	if optional {
		path = DefaultPath
	}

	found := false
	for _, p := range []string{path, localPath(path)} {
		ok, err := mergeFile(&cfg, p)
		if err != nil {
			return cfg, err
		}
		found = found || ok
	}
	if !found && !optional {
		return cfg, fmt.Errorf("config %s: %w", path, os.ErrNotExist)
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg.Report.Database)
	cfg.Report.HomeState = strings.ToUpper(strings.TrimSpace(cfg.Report.HomeState))

	return cfg, cfg.Validate()
}

func mergeFile(cfg *Config, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}

	var override Config
	if err := json5.Unmarshal(data, &override); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := mergo.Merge(cfg, override, mergo.WithOverride); err != nil {
		return false, fmt.Errorf("merge %s: %w", path, err)
	}

	// mergo never copies zero values, so tunables where 0 means "off" are
	// applied from the file directly.
	var zeroable struct {
		Crawl struct {
			RetryBackoffSeconds    *float64 `json:"retry_backoff_seconds"`
			RequestIntervalSeconds *float64 `json:"request_interval_seconds"`
		} `json:"crawl"`
	}
	if err := json5.Unmarshal(data, &zeroable); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	if v := zeroable.Crawl.RetryBackoffSeconds; v != nil {
		cfg.Crawl.RetryBackoffSeconds = *v
	}
	if v := zeroable.Crawl.RequestIntervalSeconds; v != nil {
		cfg.Crawl.RequestIntervalSeconds = *v
	}
	return true, nil
}

// localPath turns "dir/name.ext" into "dir/name.local.ext".
func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func applyEnv(db *DBConfig) {
	db.Driver = getEnvOrDefault("PARCELSALES_DB_DRIVER", db.Driver)
	db.Path = getEnvOrDefault("PARCELSALES_DB_PATH", db.Path)
	db.Host = getEnvOrDefault("PARCELSALES_DB_HOST", db.Host)
	db.Port = getEnvOrDefault("PARCELSALES_DB_PORT", db.Port)
	db.Service = getEnvOrDefault("PARCELSALES_DB_SERVICE", db.Service)
	db.Username = getEnvOrDefault("PARCELSALES_DB_USERNAME", db.Username)
	db.Password = getEnvOrDefault("PARCELSALES_DB_PASSWORD", db.Password)
	db.WalletLocation = getEnvOrDefault("PARCELSALES_DB_WALLET_LOCATION", db.WalletLocation)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate reports settings that would make a run meaningless.
func (c Config) Validate() error {
	switch {
	case len(c.Crawl.Groups) == 0:
		return fmt.Errorf("%w: crawl.groups is empty", ErrInvalid)
	case c.Crawl.RetryLimit < 1:
		return fmt.Errorf("%w: crawl.retry_limit must be at least 1", ErrInvalid)
	case c.Crawl.FlushEvery < 1:
		return fmt.Errorf("%w: crawl.flush_every must be at least 1", ErrInvalid)
	case c.Crawl.BaseURL == "":
		return fmt.Errorf("%w: crawl.base_url is empty", ErrInvalid)
	case len(c.Parcels.Files) == 0 && c.Parcels.ChunkCount < 1:
		return fmt.Errorf("%w: parcels.chunk_count must be at least 1", ErrInvalid)
	case c.Crawl.RetryBackoffSeconds < 0 || c.Crawl.RequestIntervalSeconds < 0:
		return fmt.Errorf("%w: crawl intervals must not be negative", ErrInvalid)
	case c.Report.DeedPrefix == "":
		return fmt.Errorf("%w: report.deed_prefix is empty", ErrInvalid)
	case !usState.MatchString(c.Report.HomeState):
		return fmt.Errorf("%w: report.home_state %q is not an upper-case state code", ErrInvalid, c.Report.HomeState)
	}

	switch c.Parcels.Projection {
	case "", ProjectionNone, ProjectionARNorth, ProjectionTXNorthCentral:
	default:
		return fmt.Errorf("%w: unknown projection %q", ErrInvalid, c.Parcels.Projection)
	}

	switch c.Report.Database.Driver {
	case "", "oracle", "sqlite":
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalid, c.Report.Database.Driver)
	}
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
