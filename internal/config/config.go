package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appDirName = "tubepost"
	fileName   = "config.yml"
)

// Config is the root configuration for the server and CLI.
type Config struct {
	Listen        string              `yaml:"listen"`
	DataDir       string              `yaml:"data_dir"`
	Cookies       CookiesConfig       `yaml:"cookies"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Blog          BlogConfig          `yaml:"blog"`
	Recovery      RecoveryConfig      `yaml:"recovery"`
}

// CookiesConfig controls where the yt-dlp cookie file lives and how it is
// provisioned at startup. Remote blob wins over inline base64, which wins
// over a pre-existing local file.
type CookiesConfig struct {
	Path        string `yaml:"path"`
	InlineB64   string `yaml:"inline_b64"`
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key"`
	Bucket      string `yaml:"bucket"`
	Object      string `yaml:"object"`
}

// TranscriptionConfig selects the speech-to-text backend.
type TranscriptionConfig struct {
	Provider      string `yaml:"provider"` // auto, whisper, assemblyai, deepgram
	Language      string `yaml:"language"`
	WhisperModel  string `yaml:"whisper_model"`
	AssemblyAIKey string `yaml:"assemblyai_key"`
	DeepgramKey   string `yaml:"deepgram_key"`
}

// BlogConfig selects the chat-completion backend used for blog assembly.
type BlogConfig struct {
	Provider string `yaml:"provider"` // openai, groq
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// RecoveryConfig bounds the human-assisted challenge solve.
type RecoveryConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:  ":8080",
		DataDir: defaultDataDir(),
		Cookies: CookiesConfig{
			Path: filepath.Join(defaultDataDir(), "cookies.txt"),
		},
		Transcription: TranscriptionConfig{
			Provider:     "auto",
			Language:     "en",
			WhisperModel: "ggml-base.en.bin",
		},
		Blog: BlogConfig{
			Provider: "groq",
			Model:    "llama-3.3-70b-versatile",
		},
		Recovery: RecoveryConfig{
			Timeout: 5 * time.Minute,
		},
	}
}

// ConfigDir returns the directory holding the config file, creating it if
// needed.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	dir := filepath.Join(base, appDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// SavePath returns the full path of the config file.
func SavePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Exists reports whether a config file has been saved.
func Exists() bool {
	path, err := SavePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the config file from disk.
func Load() (*Config, error) {
	path, err := SavePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault returns the saved config when present, defaults otherwise.
// Environment overrides are applied in both cases.
func LoadOrDefault() *Config {
	cfg := Default()
	if Exists() {
		if loaded, err := Load(); err == nil {
			cfg = loaded
		}
	}
	cfg.applyEnv()
	return cfg
}

// Save writes the config file.
func (c *Config) Save() error {
	path, err := SavePath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setIfEnv(&c.Listen, "TUBEPOST_LISTEN")
	setIfEnv(&c.DataDir, "TUBEPOST_DATA_DIR")
	setIfEnv(&c.Cookies.Path, "YTDLP_COOKIES_PATH")
	setIfEnv(&c.Cookies.InlineB64, "YTDLP_COOKIES_B64")
	setIfEnv(&c.Cookies.SupabaseURL, "SUPABASE_URL")
	setIfEnv(&c.Cookies.SupabaseKey, "SUPABASE_KEY")
	setIfEnv(&c.Cookies.Bucket, "SUPABASE_COOKIES_BUCKET")
	setIfEnv(&c.Cookies.Object, "SUPABASE_COOKIES_OBJECT")
	setIfEnv(&c.Transcription.Provider, "TRANSCRIPTION_PROVIDER")
	setIfEnv(&c.Transcription.AssemblyAIKey, "ASSEMBLYAI_API_KEY")
	setIfEnv(&c.Transcription.DeepgramKey, "DEEPGRAM_API_KEY")
	// Groq wins when both keys are present.
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Blog.Provider = "openai"
		c.Blog.APIKey = v
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		c.Blog.Provider = "groq"
		c.Blog.APIKey = v
	}
	if v := os.Getenv("RECOVERY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Recovery.Timeout = d
		}
	}
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(base, appDirName)
}
