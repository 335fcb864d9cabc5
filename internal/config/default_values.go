package config

const (
	DefaultServerHost             = "0.0.0.0"
	DefaultServerPort             = 5000
	DefaultServerRequestTimeoutMS = 300000

	DefaultProviderBaseURL     = "https://api.perplexity.ai"
	DefaultProviderModel       = "llama-3.1-sonar-large-128k-online"
	DefaultProviderTimeoutMS   = 120000
	DefaultProviderTemperature = 0.15
	DefaultProviderTopP        = 0.9

	DefaultPromptHistoryWindow    = 8
	DefaultPromptFileContextLimit = 2000

	StorageBackendMemory = "memory"
	StorageBackendSQLite = "sqlite"
	DefaultStoragePath   = "~/.coderx/sessions.db"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
