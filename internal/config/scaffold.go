package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const projectConfigTemplate = `{
  // CODER-X relay configuration. Environment variables override these values.
  "server": {
    "host": "0.0.0.0",
    "port": 5000,
    "allowed_origins": ["*"]
  },
  "provider": {
    "base_url": "https://api.perplexity.ai",
    "model": "llama-3.1-sonar-large-128k-online",
    "temperature": 0.15,
    "top_p": 0.9
  },
  "prompt": {
    "history_window": 8,
    "file_context_limit": 2000,
    "escape_tags": false,
    "ignore_blank_directives": false
  },
  "storage": {
    // "memory" or "sqlite"
    "backend": "memory",
    "path": "~/.coderx/sessions.db"
  },
  "log": {
    "level": "info",
    "format": "json"
  }
}
`

// InitProjectConfigScaffold 在 workspace/.coderx/config.json 写入默认配置
// InitProjectConfigScaffold writes a commented default config to
// <workspace>/.coderx/config.json. An existing file is left alone and
// created reports false.
func InitProjectConfigScaffold(workspace string) (path string, created bool, err error) {
	root := strings.TrimSpace(workspace)
	if root == "" {
		root = "."
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return "", false, fmt.Errorf("resolve workspace: %w", err)
	}
	dir := filepath.Join(root, ".coderx")
	path = filepath.Join(dir, "config.json")

	if _, statErr := os.Stat(path); statErr == nil {
		return path, false, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(projectConfigTemplate), 0o644); err != nil {
		return "", false, fmt.Errorf("write config: %w", err)
	}
	return path, true, nil
}
