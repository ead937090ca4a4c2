package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration, loaded from config.yaml with
// DOCSCHAT_* environment overrides.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Qdrant   QdrantConfig   `mapstructure:"qdrant"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Chat     ChatConfig     `mapstructure:"chat"`
}

type ServerConfig struct {
	Addr         string   `mapstructure:"addr"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type QdrantConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	APIKey     string `mapstructure:"api_key"`
	Collection string `mapstructure:"collection"`
	UseTLS     bool   `mapstructure:"use_tls"`
}

type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	ChatModel      string `mapstructure:"chat_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// ChatConfig tunes the interaction pipeline.
type ChatConfig struct {
	// TopK is the number of matches requested from the retriever
	TopK int `mapstructure:"top_k"`
	// HistoryLimit bounds how many recent entries feed the pipeline
	HistoryLimit int `mapstructure:"history_limit"`
	// ContextBudget is the corpus size (characters) above which
	// summarization kicks in
	ContextBudget int `mapstructure:"context_budget"`
	// SummaryMaxRounds bounds summarization recursion depth
	SummaryMaxRounds int `mapstructure:"summary_max_rounds"`
	// SummaryConcurrency bounds parallel chunk summarization calls
	SummaryConcurrency int `mapstructure:"summary_concurrency"`
	// ContextWindow is the model context size in tokens, used to warn on
	// oversized prompts
	ContextWindow int `mapstructure:"context_window"`
	// PoolSize caps concurrently running interactions
	PoolSize int `mapstructure:"pool_size"`
	// RetrievalTimeout bounds one vector search call
	RetrievalTimeout time.Duration `mapstructure:"retrieval_timeout"`
	// InteractionTimeout bounds one whole detached interaction
	InteractionTimeout time.Duration `mapstructure:"interaction_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("database.dsn", "host=localhost user=docschat password=docschat dbname=docschat port=5432 sslmode=disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.collection", "docschat_embeddings")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("chat.top_k", 2)
	v.SetDefault("chat.history_limit", 10)
	v.SetDefault("chat.context_budget", 4000)
	v.SetDefault("chat.summary_max_rounds", 5)
	v.SetDefault("chat.summary_concurrency", 4)
	v.SetDefault("chat.context_window", 128000)
	v.SetDefault("chat.pool_size", 64)
	v.SetDefault("chat.retrieval_timeout", 15*time.Second)
	v.SetDefault("chat.interaction_timeout", 5*time.Minute)
}

// Load reads the configuration file at path (optional) and applies
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DOCSCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
