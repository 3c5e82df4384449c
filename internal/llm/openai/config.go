package openai

import (
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config for an OpenAI-compatible vision chat-completions endpoint.
type Config struct {
	APIKey            string        // if empty, falls back to env TOGETHER_API_KEY then OPENAI_API_KEY
	BaseURL           string        // default https://api.together.xyz/v1
	Model             string        // e.g., "meta-llama/Llama-Vision-Free"
	Timeout           time.Duration // http client timeout
	RequestsPerMinute int           // <= 0 disables limiting
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("TOGETHER_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.together.xyz/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "meta-llama/Llama-Vision-Free"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}
}
