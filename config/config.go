package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the work directory when
// no explicit path is given.
const DefaultFileName = "newsletter.yaml"

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderQwen   = "qwen"

	ModePipeline = "pipeline"
	ModeAgent    = "agent"
)

// Config is the full runtime configuration of the newsletter workflow.
type Config struct {
	WorkDir    string           `yaml:"workdir"`
	Paths      Paths            `yaml:"paths"`
	Model      ModelConfig      `yaml:"model"`
	Retry      RetryConfig      `yaml:"retry"`
	PDFReader  MCPServerConfig  `yaml:"pdf_reader"`
	ImageGen   MCPServerConfig  `yaml:"image_gen"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
}

// Paths locates the inputs and artifacts of a run. Relative entries are
// resolved against WorkDir.
type Paths struct {
	ProductData  string `yaml:"product_data"`
	StyleSamples string `yaml:"style_samples"`
	Output       string `yaml:"output"`
	ContentFile  string `yaml:"content_file"`
	HTMLFile     string `yaml:"html_file"`
	ImagesDir    string `yaml:"images_dir"`
}

// ModelConfig selects the chat model backing every agent.
type ModelConfig struct {
	Provider string `yaml:"provider"`
	Name     string `yaml:"name"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// RetryConfig controls backoff for transient LLM API failures.
type RetryConfig struct {
	Attempts     int           `yaml:"attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	ExpBase      float64       `yaml:"exp_base"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	StatusCodes  []int         `yaml:"status_codes"`
}

// MCPServerConfig describes an MCP server launched as a stdio subprocess.
type MCPServerConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Command    string        `yaml:"command"`
	Args       []string      `yaml:"args"`
	Timeout    time.Duration `yaml:"timeout"`
	ExcludeEnv []string      `yaml:"exclude_env"`
}

// PipelineConfig tunes the coordinator.
type PipelineConfig struct {
	// Topic is the industry the trend research and copy focus on.
	Topic            string `yaml:"topic"`
	Mode             string `yaml:"mode"`
	ParallelResearch bool   `yaml:"parallel_research"`
	MaxIterations    int    `yaml:"max_iterations"`
	Transcript       bool   `yaml:"transcript"`
	// ApproveCopy stops the writer before it saves the content file until a
	// reviewer approves the draft. Pipeline mode only.
	ApproveCopy bool `yaml:"approve_copy"`
}

// CheckpointConfig selects where agent checkpoints are kept. An empty
// RedisAddr keeps them in memory.
type CheckpointConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		WorkDir: ".",
		Paths: Paths{
			ProductData:  "./product_data",
			StyleSamples: "./style_samples",
			Output:       "./output",
			ContentFile:  "newsletter_content.txt",
			HTMLFile:     "newsletter.html",
			ImagesDir:    "images",
		},
		Model: ModelConfig{
			Provider: ProviderGemini,
			Name:     "gemini-2.5-flash-lite",
		},
		Retry: RetryConfig{
			Attempts:     5,
			InitialDelay: time.Second,
			ExpBase:      7,
			MaxDelay:     time.Minute,
			StatusCodes:  []int{429, 500, 503, 504},
		},
		PDFReader: MCPServerConfig{
			Enabled: true,
			Command: "uvx",
			Args: []string{
				"--from=pdf-reader-mcp",
				"pdf-reader-mcp",
				"--transport=stdio",
			},
			Timeout:    120 * time.Second,
			ExcludeEnv: []string{"GOOGLE_API_KEY"},
		},
		ImageGen: MCPServerConfig{
			Enabled:    false,
			Timeout:    120 * time.Second,
			ExcludeEnv: []string{"GOOGLE_API_KEY"},
		},
		Pipeline: PipelineConfig{
			Topic:         "ECAD libraries, PCB layout, and PCB design",
			Mode:          ModePipeline,
			MaxIterations: 50,
		},
		Checkpoint: CheckpointConfig{
			TTL: 24 * time.Hour,
		},
	}
}

// Load reads the YAML file at path on top of the defaults. A missing file is
// not an error: the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("MODEL_PROVIDER"); v != "" {
		c.Model.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("MODEL"); v != "" {
		c.Model.Name = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		c.Model.BaseURL = v
	}
	if c.Model.APIKey == "" {
		c.Model.APIKey = c.apiKeyFromEnv()
	}
	if v := os.Getenv("NEWSLETTER_MODE"); v != "" {
		c.Pipeline.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Checkpoint.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Checkpoint.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Checkpoint.RedisDB = db
		}
	}
}

func (c *Config) apiKeyFromEnv() string {
	var keys []string
	switch c.Model.Provider {
	case ProviderGemini:
		keys = []string{"GOOGLE_API_KEY", "GEMINI_API_KEY", "API_KEY"}
	case ProviderQwen:
		keys = []string{"DASHSCOPE_API_KEY", "API_KEY"}
	default:
		keys = []string{"API_KEY", "OPENAI_API_KEY"}
	}
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderQwen:
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	switch c.Pipeline.Mode {
	case ModePipeline, ModeAgent:
	default:
		return fmt.Errorf("unknown pipeline mode %q", c.Pipeline.Mode)
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", c.Retry.Attempts)
	}
	if c.Paths.ContentFile == "" || c.Paths.HTMLFile == "" {
		return errors.New("content_file and html_file must not be empty")
	}
	if c.PDFReader.Enabled && c.PDFReader.Command == "" {
		return errors.New("pdf_reader is enabled but has no command")
	}
	if c.ImageGen.Enabled && c.ImageGen.Command == "" {
		return errors.New("image_gen is enabled but has no command")
	}
	return nil
}

// Resolve makes p absolute relative to the work directory.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	root := c.WorkDir
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(filepath.Join(root, p))
	if err != nil {
		return filepath.Join(root, p)
	}
	return abs
}

// OutputDir is the absolute output directory.
func (c *Config) OutputDir() string {
	return c.Resolve(c.Paths.Output)
}

// ContentPath is the absolute path of the intermediate content artifact.
func (c *Config) ContentPath() string {
	return filepath.Join(c.OutputDir(), c.Paths.ContentFile)
}

// HTMLPath is the absolute path of the final newsletter.
func (c *Config) HTMLPath() string {
	return filepath.Join(c.OutputDir(), c.Paths.HTMLFile)
}

// ImagesPath is the absolute directory for generated images.
func (c *Config) ImagesPath() string {
	return filepath.Join(c.OutputDir(), c.Paths.ImagesDir)
}
