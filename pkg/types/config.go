package types

import "time"

// EngineBackend identifies how the ffmpeg engine is provided.
type EngineBackend string

const (
	// BackendNative runs a local ffmpeg binary.
	BackendNative EngineBackend = "native"
	// BackendContainer runs ffmpeg inside a docker or podman container.
	BackendContainer EngineBackend = "container"
)

// Strategy selects the argument list the orchestrator hands to the engine.
type Strategy string

const (
	// StrategyRemux copies the encoded stream into the new container
	// (-vcodec copy). Fast and lossless, but it does not change codecs.
	StrategyRemux Strategy = "remux"
	// StrategyTranscode lets the engine pick encoders for the target
	// container.
	StrategyTranscode Strategy = "transcode"
)

// EngineConfig holds settings for loading the transcoding engine.
type EngineConfig struct {
	// Backend selects native or container execution (default native).
	Backend EngineBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// CorePath is the ffmpeg binary to run. Empty means look it up on PATH.
	CorePath string `json:"core_path" yaml:"core_path" mapstructure:"core_path"`

	// CoreURL is fetched once into CacheDir when no local binary is found.
	CoreURL string `json:"core_url,omitempty" yaml:"core_url,omitempty" mapstructure:"core_url"`

	// CacheDir stores fetched engine assets (default the user cache dir).
	CacheDir string `json:"cache_dir" yaml:"cache_dir" mapstructure:"cache_dir"`

	// Image is the ffmpeg container image for the container backend.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// ContainerMemory caps the container's memory (e.g. "2g"). Empty means
	// no limit.
	ContainerMemory string `json:"container_memory,omitempty" yaml:"container_memory,omitempty" mapstructure:"container_memory"`

	// MinFreeMemory is the available memory, in bytes, required to load the
	// engine. Zero disables the check.
	MinFreeMemory uint64 `json:"min_free_memory" yaml:"min_free_memory" mapstructure:"min_free_memory"`

	// FetchTimeout bounds the engine asset download, retries included
	// (default 5m).
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout" mapstructure:"fetch_timeout"`

	// Log tees engine stderr to the logger at debug level.
	Log bool `json:"log" yaml:"log" mapstructure:"log"`
}

// ConversionConfig holds settings for the conversion stage.
type ConversionConfig struct {
	// Strategy is remux (default) or transcode.
	Strategy Strategy `json:"strategy" yaml:"strategy" mapstructure:"strategy"`
}

// DownloadConfig holds settings for delivering converted files.
type DownloadConfig struct {
	// Dir is where converted files are written (default ~/Downloads).
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// HistoryConfig holds settings for the optional conversion history.
type HistoryConfig struct {
	// Enabled turns history recording on. Off by default.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Dir holds history.db and exports.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default number of records listed (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is debug, info, warn, or error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is console (default) or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings read from the config file and environment.
type Config struct {
	Engine     EngineConfig     `json:"engine" yaml:"engine" mapstructure:"engine"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Download   DownloadConfig   `json:"download" yaml:"download" mapstructure:"download"`
	History    HistoryConfig    `json:"history" yaml:"history" mapstructure:"history"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}
