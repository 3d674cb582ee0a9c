package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	appdefaults "github.com/saker-ai/live-interpreter/config"
	"github.com/saker-ai/live-interpreter/internal/logger"
)

const (
	envPrefix  = "interp"
	rootDirEnv = "INTERP_ROOT_DIR"
	confFile   = "conf.yaml"
	dotEnvFile = ".env"
)

// SessionConfig selects the languages sent once the connection opens.
type SessionConfig struct {
	Language       string `mapstructure:"language"`
	SourceLanguage string `mapstructure:"source_language"`
	SourceField    string `mapstructure:"source_field"`
}

// TranscriptConfig controls how transcript lines are rendered and kept.
type TranscriptConfig struct {
	Format     string `mapstructure:"format"`
	Stdout     bool   `mapstructure:"stdout"`
	Persist    bool   `mapstructure:"persist"`
	HistoryDir string `mapstructure:"history_dir"`
}

// AudioConfig controls decoding and playback of inbound audio clips.
type AudioConfig struct {
	Output           string `mapstructure:"output"`
	Format           string `mapstructure:"format"`
	SampleRate       int    `mapstructure:"sample_rate"`
	Channels         int    `mapstructure:"channels"`
	DeviceSampleRate int    `mapstructure:"device_sample_rate"`
	DeviceChannels   int    `mapstructure:"device_channels"`
	ArchiveDir       string `mapstructure:"archive_dir"`
}

// ControlConfig configures the optional local HTTP control surface.
type ControlConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

// Config is the full client configuration.
type Config struct {
	RootDir            string           `mapstructure:"-"`
	EndpointURL        string           `mapstructure:"endpoint_url"`
	HandshakeTimeoutMs int              `mapstructure:"handshake_timeout_ms"`
	Session            SessionConfig    `mapstructure:"session"`
	Transcript         TranscriptConfig `mapstructure:"transcript"`
	Audio              AudioConfig      `mapstructure:"audio"`
	Control            ControlConfig    `mapstructure:"control"`
	LanguagesFile      string           `mapstructure:"languages_file"`
	Log                logger.Config    `mapstructure:"log"`
}

// HandshakeTimeout returns the dial handshake timeout.
func (c Config) HandshakeTimeout() time.Duration {
	if c.HandshakeTimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.HandshakeTimeoutMs) * time.Millisecond
}

// Load reads the embedded defaults, then conf.yaml from the resolved root dir
// if one exists, then INTERP_* environment overrides. A .env file in the root
// dir fills variables that are not already set.
func Load() (Config, error) {
	rootDir, err := resolveRootDir()
	if err != nil {
		return Config{}, err
	}
	if err := loadDotEnv(rootDir); err != nil {
		return Config{}, err
	}

	v, err := newViper()
	if err != nil {
		return Config{}, err
	}
	v.SetConfigName(strings.TrimSuffix(confFile, filepath.Ext(confFile)))
	v.AddConfigPath(rootDir)

	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}
	return decode(v, rootDir)
}

// LoadConfig reads an explicit configuration file. An empty path falls back to Load.
func LoadConfig(configPath string) (Config, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		return Load()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, err
	}

	rootDir := strings.TrimSpace(os.Getenv(rootDirEnv))
	if rootDir == "" {
		rootDir = filepath.Dir(absPath)
		if filepath.Base(rootDir) == "config" {
			rootDir = filepath.Dir(rootDir)
		}
	}

	if err := loadDotEnv(rootDir); err != nil {
		return Config{}, err
	}

	v, err := newViper()
	if err != nil {
		return Config{}, err
	}
	v.SetConfigFile(absPath)
	if err := v.MergeInConfig(); err != nil {
		return Config{}, err
	}
	return decode(v, rootDir)
}

func loadDotEnv(rootDir string) error {
	path := filepath.Join(rootDir, dotEnvFile)
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(appdefaults.Default)); err != nil {
		return nil, fmt.Errorf("load embedded config: %w", err)
	}
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint_url", "ws://localhost:8765")
	v.SetDefault("handshake_timeout_ms", 10000)
	v.SetDefault("session.language", "")
	v.SetDefault("session.source_language", "")
	v.SetDefault("session.source_field", "source_language")
	v.SetDefault("transcript.format", "plain")
	v.SetDefault("transcript.stdout", true)
	v.SetDefault("transcript.persist", false)
	v.SetDefault("transcript.history_dir", filepath.Join("data", "transcripts"))
	v.SetDefault("audio.output", "device")
	v.SetDefault("audio.format", "auto")
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("audio.device_sample_rate", 48000)
	v.SetDefault("audio.device_channels", 2)
	v.SetDefault("audio.archive_dir", filepath.Join("data", "audio"))
	v.SetDefault("control.http_addr", "")
	v.SetDefault("languages_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.stdout", false)
	v.SetDefault("log.file.enabled", true)
	v.SetDefault("log.file.path", "./data/logs")
	v.SetDefault("log.file.name", "live-interpreter.log")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.max_age_days", 30)
	v.SetDefault("log.file.compress", true)
}

func decode(v *viper.Viper, rootDir string) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.RootDir = rootDir
	normalize(&cfg)
	derivePaths(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func normalize(cfg *Config) {
	cfg.EndpointURL = strings.TrimSpace(cfg.EndpointURL)
	cfg.Session.Language = strings.TrimSpace(cfg.Session.Language)
	cfg.Session.SourceLanguage = strings.TrimSpace(cfg.Session.SourceLanguage)
	cfg.Session.SourceField = strings.ToLower(strings.TrimSpace(cfg.Session.SourceField))
	cfg.Transcript.Format = strings.ToLower(strings.TrimSpace(cfg.Transcript.Format))
	cfg.Audio.Output = strings.ToLower(strings.TrimSpace(cfg.Audio.Output))
	cfg.Audio.Format = strings.ToLower(strings.TrimSpace(cfg.Audio.Format))
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.DeviceSampleRate <= 0 {
		cfg.Audio.DeviceSampleRate = 48000
	}
	if cfg.Audio.DeviceChannels <= 0 {
		cfg.Audio.DeviceChannels = 2
	}
}

// Validate rejects values the client cannot act on.
func (c Config) Validate() error {
	if c.EndpointURL == "" {
		return fmt.Errorf("endpoint_url is empty")
	}
	if !strings.HasPrefix(c.EndpointURL, "ws://") && !strings.HasPrefix(c.EndpointURL, "wss://") {
		return fmt.Errorf("endpoint_url %q: scheme must be ws or wss", c.EndpointURL)
	}
	switch c.Session.SourceField {
	case "", "source_language", "recognition_language":
	default:
		return fmt.Errorf("session.source_field %q: want source_language, recognition_language or empty", c.Session.SourceField)
	}
	switch c.Transcript.Format {
	case "plain", "html":
	default:
		return fmt.Errorf("transcript.format %q: want plain or html", c.Transcript.Format)
	}
	switch c.Audio.Output {
	case "device", "archive", "none":
	default:
		return fmt.Errorf("audio.output %q: want device, archive or none", c.Audio.Output)
	}
	switch c.Audio.Format {
	case "auto", "wav", "pcm_s16le", "opus":
	default:
		return fmt.Errorf("audio.format %q: want auto, wav, pcm_s16le or opus", c.Audio.Format)
	}
	if c.Audio.DeviceChannels > 2 {
		return fmt.Errorf("audio.device_channels %d: at most 2 supported", c.Audio.DeviceChannels)
	}
	return nil
}

func resolveRootDir() (string, error) {
	if root := strings.TrimSpace(os.Getenv(rootDirEnv)); root != "" {
		return filepath.Abs(root)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := wd
	for i := 0; i < 6; i++ {
		if fileExists(filepath.Join(dir, confFile)) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return wd, nil
}

func derivePaths(cfg *Config) {
	cfg.Transcript.HistoryDir = resolvePath(cfg.RootDir, cfg.Transcript.HistoryDir, filepath.Join("data", "transcripts"))
	cfg.Audio.ArchiveDir = resolvePath(cfg.RootDir, cfg.Audio.ArchiveDir, filepath.Join("data", "audio"))
	if strings.TrimSpace(cfg.LanguagesFile) != "" {
		cfg.LanguagesFile = resolvePath(cfg.RootDir, cfg.LanguagesFile, "")
	}
	if cfg.Log.File.Path != "" && !filepath.IsAbs(cfg.Log.File.Path) {
		cfg.Log.File.Path = filepath.Join(cfg.RootDir, cfg.Log.File.Path)
	}
}

func resolvePath(rootDir string, configured string, fallback string) string {
	path := strings.TrimSpace(configured)
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
