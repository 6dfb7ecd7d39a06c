package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Config represents the complete panel configuration.
type Config struct {
	Display   DisplayConfig   `json:"display" yaml:"display"`
	Map       MapConfig       `json:"map" yaml:"map"`
	Sprites   SpriteConfig    `json:"sprites" yaml:"sprites"`
	Legend    LegendConfig    `json:"legend" yaml:"legend"`
	Banner    BannerConfig    `json:"banner" yaml:"banner"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// Display drivers
const (
	DriverST7789   = "st7789"
	DriverTerminal = "terminal"
	DriverPNG      = "png"
)

// Telemetry sources
const (
	SourceDump1090      = "dump1090"
	SourceAirplanesLive = "airplanes.live"
	SourcePostgres      = "postgres"
)

// DisplayConfig describes the output panel and the frame rate.
type DisplayConfig struct {
	// Driver selects the display sink: "st7789", "terminal" or "png"
	Driver string `json:"driver" yaml:"driver"`

	// Width and Height are the scene resolution in pixels
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// FPS is the number of ticks per second (1-60, typically 10-30)
	FPS int `json:"fps" yaml:"fps"`

	// SPIPort is the periph SPI port name (e.g., "/dev/spidev0.1" or "SPI0.1")
	SPIPort string `json:"spi_port" yaml:"spi_port"`

	// SPISpeedHz is the SPI clock in hertz (default: 80 MHz)
	SPISpeedHz int64 `json:"spi_speed_hz" yaml:"spi_speed_hz"`

	// DCPin is the data/command GPIO (default: "GPIO9")
	DCPin string `json:"dc_pin" yaml:"dc_pin"`

	// BacklightPin is the backlight GPIO, empty to leave it alone
	BacklightPin string `json:"backlight_pin" yaml:"backlight_pin"`

	// ResetPin is the hardware reset GPIO, empty if not wired
	ResetPin string `json:"reset_pin" yaml:"reset_pin"`

	// Rotation is the panel rotation in degrees (0, 90, 180, 270)
	Rotation int `json:"rotation" yaml:"rotation"`

	// OffsetLeft and OffsetTop shift the window into controller RAM
	// for panels smaller than the 240x320 frame memory
	OffsetLeft int `json:"offset_left" yaml:"offset_left"`
	OffsetTop  int `json:"offset_top" yaml:"offset_top"`

	// Invert enables colour inversion (most IPS ST7789 panels need it)
	Invert bool `json:"invert" yaml:"invert"`

	// OutputPath is the file written by the png driver
	OutputPath string `json:"output_path" yaml:"output_path"`
}

// Point is a calibration anchor in decimal degrees.
type Point struct {
	Latitude  float64 `json:"lat" yaml:"lat"`
	Longitude float64 `json:"lon" yaml:"lon"`
}

// CalibrationConfig holds the two map corners.
// P0 maps to the top-left pixel, P1 to the bottom-right.
type CalibrationConfig struct {
	P0 Point `json:"p0" yaml:"p0"`
	P1 Point `json:"p1" yaml:"p1"`
}

// MapConfig describes the background map.
type MapConfig struct {
	// Image is the background map asset, scaled to the display size
	Image string `json:"image" yaml:"image"`

	// Calibration anchors the map image to geographic coordinates
	Calibration CalibrationConfig `json:"calibration" yaml:"calibration"`
}

// SpriteConfig describes aircraft icons.
type SpriteConfig struct {
	// Icon is the aircraft icon asset; only its alpha channel is used
	Icon string `json:"icon" yaml:"icon"`

	// Size is the square sprite size in pixels
	Size int `json:"size" yaml:"size"`

	// IconHeading is the direction the nose points in the asset,
	// in degrees clockwise from north
	IconHeading float64 `json:"icon_heading" yaml:"icon_heading"`

	// CacheSize is the number of rotated/tinted bitmaps kept between ticks
	CacheSize int `json:"cache_size" yaml:"cache_size"`
}

// LegendConfig describes the optional altitude legend bar.
type LegendConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// MinAltitude and MaxAltitude are the span covered by the bar, in feet
	MinAltitude float64 `json:"min_altitude" yaml:"min_altitude"`
	MaxAltitude float64 `json:"max_altitude" yaml:"max_altitude"`
}

// BannerConfig describes the "no data" banner.
type BannerConfig struct {
	Text string `json:"text" yaml:"text"`

	// FontPath is a TrueType/OpenType font; empty uses the embedded Go Bold font
	FontPath string `json:"font_path" yaml:"font_path"`

	// FontSize in points at 72 DPI
	FontSize float64 `json:"font_size" yaml:"font_size"`

	// Color is a hex colour such as "#000000"
	Color string `json:"color" yaml:"color"`

	// Height of the banner strip at the bottom of the screen
	Height int `json:"height" yaml:"height"`
}

// TelemetryConfig selects and configures the aircraft data source.
type TelemetryConfig struct {
	// Source is "dump1090", "airplanes.live" or "postgres"
	Source string `json:"source" yaml:"source"`

	// FilePath is the dump1090 aircraft.json file
	FilePath string `json:"file_path" yaml:"file_path"`

	// MaxPositionAgeSeconds drops aircraft whose last position is older; 0 disables
	MaxPositionAgeSeconds float64 `json:"max_position_age_seconds" yaml:"max_position_age_seconds"`

	// BaseURL is the airplanes.live API base URL
	BaseURL string `json:"base_url" yaml:"base_url"`

	// RateLimitSeconds is the minimum time between API calls
	RateLimitSeconds float64 `json:"rate_limit_seconds" yaml:"rate_limit_seconds"`

	// TimeoutSeconds bounds a single poll
	TimeoutSeconds float64 `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// DatabaseConfig contains database connection settings for the postgres source.
type DatabaseConfig struct {
	// Host is the database server hostname
	Host string `json:"host" yaml:"host"`

	// Port is the database server port
	Port int `json:"port" yaml:"port"`

	// Database is the database name
	Database string `json:"database" yaml:"database"`

	// Username for database authentication
	Username string `json:"username" yaml:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password" yaml:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode" yaml:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns" yaml:"max_idle_conns"`
}

// LoggingConfig controls log level and destination.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// File enables JSON logs written to a rotating file
	File string `json:"file" yaml:"file"`

	// MaxSizeMB is the size at which the log file is rotated
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
}

// Load reads configuration from a JSON or YAML file, chosen by extension.
// If the file doesn't exist, returns a default configuration.
// Values present in the file override the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := unmarshal(path, data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	return cfg, nil
}

// Save writes the configuration to a file, as YAML for .yaml/.yml paths
// and JSON otherwise.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

// DefaultConfig returns a configuration for a 240x240 ST7789 panel showing
// the London area from a local dump1090 receiver.
func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			Driver:       DriverST7789,
			Width:        240,
			Height:       240,
			FPS:          10,
			SPIPort:      "/dev/spidev0.1",
			SPISpeedHz:   80 * 1000 * 1000,
			DCPin:        "GPIO9",
			BacklightPin: "GPIO19",
			Rotation:     270,
			Invert:       true,
			OutputPath:   "frame.png",
		},
		Map: MapConfig{
			Image: "resources/map.png",
			Calibration: CalibrationConfig{
				P0: Point{Latitude: 51.748699, Longitude: -0.531184},
				P1: Point{Latitude: 51.229317, Longitude: 0.300493},
			},
		},
		Sprites: SpriteConfig{
			Icon:        "resources/plane.png",
			Size:        30,
			IconHeading: 45, // the bundled icon points north-east
			CacheSize:   256,
		},
		Legend: LegendConfig{
			Enabled:     false,
			X:           10,
			Y:           4,
			Width:       220,
			Height:      6,
			MinAltitude: 0,
			MaxAltitude: 45000,
		},
		Banner: BannerConfig{
			Text:     "CAN'T READ DATA!",
			FontSize: 20,
			Color:    "#000000",
			Height:   40,
		},
		Telemetry: TelemetryConfig{
			Source:           SourceDump1090,
			FilePath:         "/run/dump1090-fa/aircraft.json",
			BaseURL:          "https://api.airplanes.live/v2",
			RateLimitSeconds: 3.0,
			TimeoutSeconds:   2.0,
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "adsbscope",
			Username:     "adsbscope",
			SSLMode:      "disable",
			MaxOpenConns: 2,
			MaxIdleConns: 1,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  16,
			MaxBackups: 2,
		},
	}
}

// Validate checks the configuration for values the panel cannot start with.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	switch c.Display.Driver {
	case DriverST7789, DriverTerminal, DriverPNG:
	default:
		errs = append(errs, fmt.Errorf("display.driver: unknown driver %q", c.Display.Driver))
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, fmt.Errorf("display: invalid size %dx%d", c.Display.Width, c.Display.Height))
	}
	if c.Display.FPS < 1 || c.Display.FPS > 60 {
		errs = append(errs, fmt.Errorf("display.fps: %d out of range 1-60", c.Display.FPS))
	}
	if c.Display.Rotation%90 != 0 {
		errs = append(errs, fmt.Errorf("display.rotation: %d is not a multiple of 90", c.Display.Rotation))
	}

	cal := c.Map.Calibration
	if cal.P0.Latitude == cal.P1.Latitude || cal.P0.Longitude == cal.P1.Longitude {
		errs = append(errs, errors.New("map.calibration: p0 and p1 must differ in both latitude and longitude"))
	}

	if c.Sprites.Size <= 0 {
		errs = append(errs, fmt.Errorf("sprites.size: %d must be positive", c.Sprites.Size))
	}

	if c.Legend.Enabled {
		if c.Legend.Width <= 0 || c.Legend.Height <= 0 {
			errs = append(errs, fmt.Errorf("legend: invalid size %dx%d", c.Legend.Width, c.Legend.Height))
		}
		if c.Legend.MaxAltitude <= c.Legend.MinAltitude {
			errs = append(errs, errors.New("legend: max_altitude must exceed min_altitude"))
		}
	}

	if c.Banner.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("banner.font_size: %v must be positive", c.Banner.FontSize))
	}
	if _, err := colorful.Hex(c.Banner.Color); err != nil {
		errs = append(errs, fmt.Errorf("banner.color: %w", err))
	}

	switch c.Telemetry.Source {
	case SourceDump1090:
		if c.Telemetry.FilePath == "" {
			errs = append(errs, errors.New("telemetry.file_path: required for dump1090 source"))
		}
	case SourceAirplanesLive:
		if c.Telemetry.BaseURL == "" {
			errs = append(errs, errors.New("telemetry.base_url: required for airplanes.live source"))
		}
	case SourcePostgres:
	default:
		errs = append(errs, fmt.Errorf("telemetry.source: unknown source %q", c.Telemetry.Source))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows secrets and per-host settings to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if driver := os.Getenv("ADS_PANEL_DISPLAY_DRIVER"); driver != "" {
		c.Display.Driver = driver
	}
	if source := os.Getenv("ADS_PANEL_TELEMETRY_SOURCE"); source != "" {
		c.Telemetry.Source = source
	}
	if path := os.Getenv("ADS_PANEL_TELEMETRY_FILE"); path != "" {
		c.Telemetry.FilePath = path
	}
	if dbPassword := os.Getenv("ADS_PANEL_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if level := os.Getenv("ADS_PANEL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}
