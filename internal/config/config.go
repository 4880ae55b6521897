package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	JWTSecret string           `json:"jwt_secret"`
	LogConfig logger.LogConfig `json:"log_config"`
	Database  DatabaseConfig   `json:"database"`
	FileStore FileStoreConfig  `json:"file_store"`
	AI        AIConfig         `json:"ai"`
	RAG       RAGConfig        `json:"rag"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	Provider      string      `json:"provider"`
	Data          interface{} `json:"data"`
	GenerateModel string      `json:"generate_model"`
	EmbedModel    string      `json:"embed_model"`
	Timeout       int         `json:"timeout"`
	MaxBatch      int         `json:"max_batch"`
}

// RAGConfig carries every retrieval tunable as explicit state: the vector
// dimension is a deployment-time contract with the embedding model and the
// migration schema, not something negotiated at runtime.
type RAGConfig struct {
	EmbeddingDim     int     `json:"embedding_dim"`
	KChunks          int     `json:"k_chunks"`
	KVerified        int     `json:"k_verified"`
	MaxK             int     `json:"max_k"`
	ContextBudget    int     `json:"context_budget"`
	ChunkBudget      int     `json:"chunk_budget"`
	ChunkOverlap     int     `json:"chunk_overlap"`
	CueWindowSeconds float64 `json:"cue_window_seconds"`
	CueGapSeconds    float64 `json:"cue_gap_seconds"`
	StuckAfterMins   int     `json:"stuck_after_minutes"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.GenerateModel == "" {
		cfg.AI.GenerateModel = "gemini-2.0-flash"
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "text-embedding-004"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.AI.MaxBatch == 0 {
		cfg.AI.MaxBatch = 100
	}
	applyRAGDefaults(&cfg.RAG)
	return &cfg, nil
}

func applyRAGDefaults(rag *RAGConfig) {
	if rag.EmbeddingDim == 0 {
		rag.EmbeddingDim = 768
	}
	if rag.KChunks == 0 {
		rag.KChunks = 5
	}
	if rag.KVerified == 0 {
		rag.KVerified = 2
	}
	if rag.MaxK == 0 {
		rag.MaxK = 20
	}
	if rag.ContextBudget == 0 {
		rag.ContextBudget = 8000
	}
	if rag.ChunkBudget == 0 {
		rag.ChunkBudget = 2000
	}
	if rag.ChunkOverlap == 0 {
		rag.ChunkOverlap = 200
	}
	if rag.CueWindowSeconds == 0 {
		rag.CueWindowSeconds = 30
	}
	if rag.CueGapSeconds == 0 {
		rag.CueGapSeconds = 5
	}
	if rag.StuckAfterMins == 0 {
		rag.StuckAfterMins = 30
	}
}

// Defaults returns the RAG tunables used when no config file is in play
// (tests construct components directly with this).
func Defaults() RAGConfig {
	var rag RAGConfig
	applyRAGDefaults(&rag)
	return rag
}
