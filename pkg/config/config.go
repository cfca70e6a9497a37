package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL        string  `yaml:"base_url"`
		Model          string  `yaml:"model"`
		EmbeddingModel string  `yaml:"embedding_model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
		TimeoutSecs    int     `yaml:"timeout_secs"`
		RateLimit      float64 `yaml:"rate_limit"`
	} `yaml:"llm"`

	Index struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
		BatchSize int    `yaml:"batch_size"`
		TopK      int    `yaml:"top_k"`
	} `yaml:"index"`

	Loader struct {
		DocumentsDir string `yaml:"documents_dir"`
		PDFToText    string `yaml:"pdftotext_path"`
	} `yaml:"loader"`

	Processor struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"processor"`

	Agent struct {
		ExpirationWindowDays int `yaml:"expiration_window_days"`
	} `yaml:"agent"`

	Email struct {
		Enabled    bool   `yaml:"enabled"`
		From       string `yaml:"from"`
		To         string `yaml:"to"`
		SMTPServer string `yaml:"smtp_server"`
		SMTPPort   int    `yaml:"smtp_port"`
		Username   string `yaml:"username"`
		Password   string `yaml:"password"`
	} `yaml:"email"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/docsentry/config.yaml"),
			"/etc/docsentry/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.EmbeddingModel == "" {
		config.LLM.EmbeddingModel = "nomic-embed-text:latest"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.1
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.TimeoutSecs == 0 {
		config.LLM.TimeoutSecs = 120
	}
	if config.LLM.RateLimit == 0 {
		config.LLM.RateLimit = 10
	}

	if config.Index.TableName == "" {
		config.Index.TableName = "contract_chunks"
	}
	if config.Index.VectorDim == 0 {
		config.Index.VectorDim = 768
	}
	if config.Index.BatchSize == 0 {
		config.Index.BatchSize = 100
	}
	if config.Index.TopK == 0 {
		config.Index.TopK = 5
	}

	if config.Loader.DocumentsDir == "" {
		config.Loader.DocumentsDir = "./documents"
	}
	if config.Loader.PDFToText == "" {
		config.Loader.PDFToText = "pdftotext"
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 1000
	}
	if config.Processor.ChunkOverlap == 0 {
		config.Processor.ChunkOverlap = 200
	}

	if config.Agent.ExpirationWindowDays == 0 {
		config.Agent.ExpirationWindowDays = 30
	}

	if config.Email.SMTPPort == 0 {
		config.Email.SMTPPort = 587
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Index.URL = dbURL
	}
	if user := os.Getenv("SMTP_USERNAME"); user != "" {
		config.Email.Username = user
	}
	if pass := os.Getenv("SMTP_PASSWORD"); pass != "" {
		config.Email.Password = pass
	}
}
