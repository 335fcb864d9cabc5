package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host             string   `json:"host" yaml:"host"`
	Port             int      `json:"port" yaml:"port"`
	RequestTimeoutMS int      `json:"request_timeout_ms" yaml:"request_timeout_ms"`
	AllowedOrigins   []string `json:"allowed_origins" yaml:"allowed_origins"`
}

type ProviderConfig struct {
	BaseURL     string  `json:"base_url" yaml:"base_url"`
	Model       string  `json:"model" yaml:"model"`
	TimeoutMS   int     `json:"timeout_ms" yaml:"timeout_ms"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	TopP        float64 `json:"top_p" yaml:"top_p"`
}

type PromptConfig struct {
	HistoryWindow    int `json:"history_window" yaml:"history_window"`
	FileContextLimit int `json:"file_context_limit" yaml:"file_context_limit"`
	// EscapeTags 对用户输入中的 [[ ]] 做转义，防止指令注入；默认关闭以保持原有行为。
	// EscapeTags defuses [[ and ]] in user text and file context; off by default.
	EscapeTags bool `json:"escape_tags" yaml:"escape_tags"`
	// IgnoreBlankDirectives skips [[ADD_TODO: ]] / [[DEL_TODO:  ]] with an
	// empty or whitespace-only payload; off by default.
	IgnoreBlankDirectives bool `json:"ignore_blank_directives" yaml:"ignore_blank_directives"`
}

type StorageConfig struct {
	Backend string `json:"backend" yaml:"backend"`
	Path    string `json:"path" yaml:"path"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Prompt   PromptConfig   `json:"prompt" yaml:"prompt"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

type fileProviderConfig struct {
	BaseURL     string   `json:"base_url" yaml:"base_url"`
	Model       string   `json:"model" yaml:"model"`
	TimeoutMS   int      `json:"timeout_ms" yaml:"timeout_ms"`
	Temperature *float64 `json:"temperature" yaml:"temperature"`
	TopP        *float64 `json:"top_p" yaml:"top_p"`
}

type filePromptConfig struct {
	HistoryWindow    *int  `json:"history_window" yaml:"history_window"`
	FileContextLimit *int  `json:"file_context_limit" yaml:"file_context_limit"`
	EscapeTags       *bool `json:"escape_tags" yaml:"escape_tags"`
	IgnoreBlank      *bool `json:"ignore_blank_directives" yaml:"ignore_blank_directives"`
}

type fileConfig struct {
	Server   *ServerConfig       `json:"server" yaml:"server"`
	Provider *fileProviderConfig `json:"provider" yaml:"provider"`
	Prompt   *filePromptConfig   `json:"prompt" yaml:"prompt"`
	Storage  *StorageConfig      `json:"storage" yaml:"storage"`
	Log      *LogConfig          `json:"log" yaml:"log"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:             DefaultServerHost,
			Port:             DefaultServerPort,
			RequestTimeoutMS: DefaultServerRequestTimeoutMS,
			AllowedOrigins:   []string{"*"},
		},
		Provider: ProviderConfig{
			BaseURL:     DefaultProviderBaseURL,
			Model:       DefaultProviderModel,
			TimeoutMS:   DefaultProviderTimeoutMS,
			Temperature: DefaultProviderTemperature,
			TopP:        DefaultProviderTopP,
		},
		Prompt: PromptConfig{
			HistoryWindow:    DefaultPromptHistoryWindow,
			FileContextLimit: DefaultPromptFileContextLimit,
		},
		Storage: StorageConfig{
			Backend: StorageBackendMemory,
			Path:    DefaultStoragePath,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load 按 默认值 → 全局配置 → 项目配置 → 环境变量 的顺序合并配置
// Load merges defaults, the global file, the project file and env vars, in
// that order.
func Load(path string) (Config, error) {
	cfg := Default()

	for _, globalPath := range globalConfigPaths() {
		if err := mergeFromFile(&cfg, globalPath); err != nil {
			return Config{}, err
		}
	}

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("CODERX_CONFIG_PATH")); envPath != "" {
		resolvedPath = envPath
	}
	if resolvedPath == "" {
		resolvedPath = findProjectConfigPath()
	}
	if err := mergeFromFile(&cfg, resolvedPath); err != nil {
		return Config{}, err
	}

	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return applyEnv(cfg)
}

// Addr returns host:port for net.Listen.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func globalConfigPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".coderx", "config.json")}
}

func findProjectConfigPath() string {
	candidates := []string{
		"coderx.config.json",
		"coderx.config.yaml",
		"coderx.config.yml",
		".coderx/config.json",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	var fileCfg fileConfig
	if isYAML(resolved) {
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return fmt.Errorf("parse config %q: %w", resolved, err)
		}
	} else {
		if err := json.Unmarshal(stripJSONComments(data), &fileCfg); err != nil {
			return fmt.Errorf("parse config %q: %w", resolved, err)
		}
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Server != nil {
		cfg.Server = mergeServer(cfg.Server, *fc.Server)
	}
	if fc.Provider != nil {
		cfg.Provider = mergeProvider(cfg.Provider, *fc.Provider)
	}
	if fc.Prompt != nil {
		if fc.Prompt.HistoryWindow != nil {
			cfg.Prompt.HistoryWindow = *fc.Prompt.HistoryWindow
		}
		if fc.Prompt.FileContextLimit != nil {
			cfg.Prompt.FileContextLimit = *fc.Prompt.FileContextLimit
		}
		if fc.Prompt.EscapeTags != nil {
			cfg.Prompt.EscapeTags = *fc.Prompt.EscapeTags
		}
		if fc.Prompt.IgnoreBlank != nil {
			cfg.Prompt.IgnoreBlankDirectives = *fc.Prompt.IgnoreBlank
		}
	}
	if fc.Storage != nil {
		if strings.TrimSpace(fc.Storage.Backend) != "" {
			cfg.Storage.Backend = fc.Storage.Backend
		}
		if strings.TrimSpace(fc.Storage.Path) != "" {
			cfg.Storage.Path = fc.Storage.Path
		}
	}
	if fc.Log != nil {
		if strings.TrimSpace(fc.Log.Level) != "" {
			cfg.Log.Level = fc.Log.Level
		}
		if strings.TrimSpace(fc.Log.Format) != "" {
			cfg.Log.Format = fc.Log.Format
		}
	}
}

func mergeServer(base ServerConfig, override ServerConfig) ServerConfig {
	if strings.TrimSpace(override.Host) != "" {
		base.Host = override.Host
	}
	if override.Port > 0 {
		base.Port = override.Port
	}
	if override.RequestTimeoutMS > 0 {
		base.RequestTimeoutMS = override.RequestTimeoutMS
	}
	if len(override.AllowedOrigins) > 0 {
		base.AllowedOrigins = append([]string(nil), override.AllowedOrigins...)
	}
	return base
}

func mergeProvider(base ProviderConfig, override fileProviderConfig) ProviderConfig {
	if strings.TrimSpace(override.BaseURL) != "" {
		base.BaseURL = override.BaseURL
	}
	if strings.TrimSpace(override.Model) != "" {
		base.Model = override.Model
	}
	if override.TimeoutMS > 0 {
		base.TimeoutMS = override.TimeoutMS
	}
	if override.Temperature != nil {
		base.Temperature = *override.Temperature
	}
	if override.TopP != nil {
		base.TopP = *override.TopP
	}
	return base
}

func normalize(cfg *Config) error {
	def := Default()
	cfg.Server.Host = strings.TrimSpace(cfg.Server.Host)
	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeoutMS <= 0 {
		cfg.Server.RequestTimeoutMS = def.Server.RequestTimeoutMS
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = def.Server.AllowedOrigins
	}

	cfg.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Provider.BaseURL), "/")
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = def.Provider.BaseURL
	}
	cfg.Provider.Model = strings.TrimSpace(cfg.Provider.Model)
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = def.Provider.Model
	}
	if cfg.Provider.TimeoutMS <= 0 {
		cfg.Provider.TimeoutMS = def.Provider.TimeoutMS
	}
	if cfg.Provider.Temperature < 0 || cfg.Provider.Temperature > 2 {
		return fmt.Errorf("invalid provider.temperature: %v", cfg.Provider.Temperature)
	}
	if cfg.Provider.TopP <= 0 || cfg.Provider.TopP > 1 {
		return fmt.Errorf("invalid provider.top_p: %v", cfg.Provider.TopP)
	}

	if cfg.Prompt.HistoryWindow <= 0 {
		cfg.Prompt.HistoryWindow = def.Prompt.HistoryWindow
	}
	if cfg.Prompt.FileContextLimit <= 0 {
		cfg.Prompt.FileContextLimit = def.Prompt.FileContextLimit
	}

	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	switch cfg.Storage.Backend {
	case "":
		cfg.Storage.Backend = StorageBackendMemory
	case StorageBackendMemory, StorageBackendSQLite:
	default:
		return fmt.Errorf("invalid storage.backend: %q", cfg.Storage.Backend)
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		cfg.Storage.Path = def.Storage.Path
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	switch cfg.Log.Format {
	case "":
		cfg.Log.Format = def.Log.Format
	case "json", "console":
	default:
		return fmt.Errorf("invalid log.format: %q", cfg.Log.Format)
	}
	return nil
}

func applyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("CODERX_HOST")); v != "" {
		cfg.Server.Host = v
	}
	// PORT 兼容 PaaS 平台约定，CODERX_PORT 优先
	// PORT follows the PaaS convention; CODERX_PORT wins when both are set.
	for _, key := range []string{"PORT", "CODERX_PORT"} {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid %s: %q", key, v)
		}
		cfg.Server.Port = n
	}
	if v := strings.TrimSpace(os.Getenv("CODERX_BASE_URL")); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CODERX_MODEL")); v != "" {
		cfg.Provider.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("CODERX_STORAGE_BACKEND")); v != "" {
		cfg.Storage.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("CODERX_DB_PATH")); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("CODERX_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}

	return cfg, normalize(&cfg)
}

// ExpandPath resolves ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}

func stripJSONComments(data []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	escaped := false
	out := bytes.Buffer{}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}

		switch state {
		case stateNormal:
			if c == '"' {
				state = stateString
				out.WriteByte(c)
				continue
			}
			if c == '/' && next == '/' {
				state = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				state = stateBlockComment
				i++
				continue
			}
			out.WriteByte(c)
		case stateString:
			out.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.Bytes()
}
