package types

import "time"

// HTTPConfig holds shared HTTP settings used by providers that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	// StageTimeout bounds each provider call. Zero disables the timeout.
	StageTimeout time.Duration `json:"stage_timeout" yaml:"stage_timeout" mapstructure:"stage_timeout"`
}

// AIConfig holds shared settings for providers that call a Generative AI API.
type AIConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxTokens caps each model response (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// RequestsPerMinute throttles API calls across concurrent runs (default 50).
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// SearchConfig holds settings for the reference resolution provider.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the per-backend result cap (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// EnableOpenAlex controls whether the OpenAlex backend is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex" mapstructure:"enable_openalex"`

	// EnableSemanticScholar controls whether the Semantic Scholar backend is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar" mapstructure:"enable_semantic_scholar"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`

	// RecencyBiasWindow boosts papers published within the window (default 2 years).
	RecencyBiasWindow time.Duration `json:"recency_bias_window" yaml:"recency_bias_window" mapstructure:"recency_bias_window"`
}

// IngestionConfig holds settings for the data ingestion provider.
type IngestionConfig struct {
	// DataDir is the base directory of stored records
	// (contains lab_notebook/, experiment/, research_data/).
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// MaxRows caps the number of tabular rows kept in a dataset (default 10000).
	MaxRows int `json:"max_rows" yaml:"max_rows" mapstructure:"max_rows"`
}

// OutputFormat selects the rendered paper format.
type OutputFormat string

const (
	OutputMarkdown OutputFormat = "markdown"
	OutputLaTeX    OutputFormat = "latex"
)

// OutputConfig holds settings for writing generated papers.
type OutputConfig struct {
	// OutputDir is the directory for generated papers (e.g. "output/papers").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Format selects the output format: markdown or latex.
	Format OutputFormat `json:"format" yaml:"format" mapstructure:"format"`
}

// RunLogConfig holds settings for the run telemetry ledger.
type RunLogConfig struct {
	// Dir is the directory containing runs.db.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Disabled turns off run recording.
	Disabled bool `json:"disabled" yaml:"disabled" mapstructure:"disabled"`
}

// EngineConfig groups every configuration section of paper-engine.
type EngineConfig struct {
	Pipeline  PipelineConfig  `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	AI        AIConfig        `json:"ai" yaml:"ai" mapstructure:"ai"`
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Ingestion IngestionConfig `json:"ingestion" yaml:"ingestion" mapstructure:"ingestion"`
	Output    OutputConfig    `json:"output" yaml:"output" mapstructure:"output"`
	RunLog    RunLogConfig    `json:"run_log" yaml:"run_log" mapstructure:"run_log"`
}
