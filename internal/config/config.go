package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	LLM       LLMConfig
	Email     EmailConfig
	Storage   StorageConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	LogFormat    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AllowOrigins []string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type KeycloakConfig struct {
	URL      string
	Realm    string
	ClientID string
}

// JWTConfig configures the shared-secret verifier used when no OIDC provider is set up.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
	// AI endpoints (generate/edit) get their own, stricter budget.
	AIRPS   float64
	AIBurst int
}

type LLMConfig struct {
	Provider        string // "gemini" or "local"
	APIKey          string
	Model           string
	BaseURL         string
	Timeout         time.Duration
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}

type EmailConfig struct {
	APIKey     string
	From       string
	SenderName string
}

type StorageConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Bucket     string
	PresignTTL time.Duration
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 0) // streaming responses outlive any fixed write deadline
	v.SetDefault("MONGODB_DATABASE", "paperfix")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("JWT_ISSUER", "paperfix")
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 60)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("RATE_LIMIT_AI_RPS", 0.2)
	v.SetDefault("RATE_LIMIT_AI_BURST", 5)
	v.SetDefault("LLM_PROVIDER", "gemini")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("LLM_TIMEOUT_SECONDS", 120)
	v.SetDefault("LLM_TEMPERATURE", 0.5)
	v.SetDefault("LLM_TOP_P", 0.8)
	v.SetDefault("LLM_TOP_K", 40)
	v.SetDefault("LLM_MAX_OUTPUT_TOKENS", 8192)
	v.SetDefault("RESEND_FROM_EMAIL", "docs@paperfix.com")
	v.SetDefault("RESEND_SENDER_NAME", "Document Generator")
	v.SetDefault("MINIO_BUCKET", "paperfix-exports")
	v.SetDefault("MINIO_PRESIGN_TTL_MINUTES", 60)

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			LogFormat:    v.GetString("LOG_FORMAT"),
			ReadTimeout:  time.Duration(v.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
			AllowOrigins: v.GetStringSlice("CORS_ALLOW_ORIGINS"),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Keycloak: KeycloakConfig{
			URL:      v.GetString("KEYCLOAK_URL"),
			Realm:    v.GetString("KEYCLOAK_REALM"),
			ClientID: v.GetString("KEYCLOAK_CLIENT_ID"),
		},
		JWT: JWTConfig{
			Secret:         v.GetString("JWT_SECRET"),
			Issuer:         v.GetString("JWT_ISSUER"),
			AccessTokenTTL: time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
			AIRPS:         v.GetFloat64("RATE_LIMIT_AI_RPS"),
			AIBurst:       v.GetInt("RATE_LIMIT_AI_BURST"),
		},
		LLM: LLMConfig{
			Provider:        v.GetString("LLM_PROVIDER"),
			APIKey:          v.GetString("GEMINI_API_KEY"),
			Model:           v.GetString("GEMINI_MODEL"),
			BaseURL:         v.GetString("GEMINI_BASE_URL"),
			Timeout:         time.Duration(v.GetInt("LLM_TIMEOUT_SECONDS")) * time.Second,
			Temperature:     v.GetFloat64("LLM_TEMPERATURE"),
			TopP:            v.GetFloat64("LLM_TOP_P"),
			TopK:            v.GetInt("LLM_TOP_K"),
			MaxOutputTokens: v.GetInt("LLM_MAX_OUTPUT_TOKENS"),
		},
		Email: EmailConfig{
			APIKey:     v.GetString("RESEND_API_KEY"),
			From:       v.GetString("RESEND_FROM_EMAIL"),
			SenderName: v.GetString("RESEND_SENDER_NAME"),
		},
		Storage: StorageConfig{
			Endpoint:   v.GetString("MINIO_ENDPOINT"),
			AccessKey:  v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:  v.GetString("MINIO_SECRET_KEY"),
			UseSSL:     v.GetBool("MINIO_USE_SSL"),
			Bucket:     v.GetString("MINIO_BUCKET"),
			PresignTTL: time.Duration(v.GetInt("MINIO_PRESIGN_TTL_MINUTES")) * time.Minute,
		},
	}

	// the older GOOGLE_GENERATIVE_AI_API_KEY name is still honoured
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v.GetString("GOOGLE_GENERATIVE_AI_API_KEY")
	}

	return cfg, nil
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}

// Summary is safe to log: secrets are reduced to whether they are set.
func (c *Config) Summary() map[string]interface{} {
	return map[string]interface{}{
		"environment":  c.Server.Environment,
		"mongo":        c.MongoDB.URI != "",
		"redis":        c.Redis.Host != "",
		"keycloak":     c.Keycloak.URL != "",
		"jwt_secret":   c.JWT.Secret != "",
		"llm_provider": c.LLM.Provider,
		"llm_key":      c.LLM.APIKey != "",
		"llm_model":    c.LLM.Model,
		"email":        c.Email.APIKey != "",
		"storage":      c.Storage.Endpoint != "",
	}
}
