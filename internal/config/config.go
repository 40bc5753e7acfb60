package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr  string   `yaml:"listen_addr"`
	CORSOrigins []string `yaml:"cors_origins"`

	DBPath    string `yaml:"db_path"`
	UploadDir string `yaml:"upload_dir"`

	ClassifierProvider string `yaml:"classifier_provider"` // "model", "anthropic", or "openai"
	ModelServerURL     string `yaml:"model_server_url"`
	LLMModel           string `yaml:"llm_model"`
	AnthropicAPIKey    string `yaml:"anthropic_api_key"`
	OpenAIAPIKey       string `yaml:"openai_api_key"`

	YouTubeAPIKey string `yaml:"youtube_api_key"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`

	MinTextLength int `yaml:"min_text_length"`
	MaxTextLength int `yaml:"max_text_length"`

	BatchMaxRecords    int `yaml:"batch_max_records"`
	ScrapeCommentLimit int `yaml:"scrape_comment_limit"`
	BattleCommentLimit int `yaml:"battle_comment_limit"`

	StopwordsPath string `yaml:"stopwords_path"`

	WatchSchedule          string `yaml:"watch_schedule"` // 5-field cron, empty disables
	WatchCommentLimit      int    `yaml:"watch_comment_limit"`
	WatchNegativeThreshold int    `yaml:"watch_negative_threshold"` // percent

	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`
	TrainingTimeoutMinutes     int `yaml:"training_timeout_minutes"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.UploadDir, "UPLOAD_DIR")
	envOverride(&cfg.ClassifierProvider, "CLASSIFIER_PROVIDER")
	envOverride(&cfg.ModelServerURL, "MODEL_SERVER_URL")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.YouTubeAPIKey, "YOUTUBE_API_KEY")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.StopwordsPath, "STOPWORDS_PATH")
	envOverride(&cfg.WatchSchedule, "WATCH_SCHEDULE")
	envOverrideInt(&cfg.MinTextLength, "MIN_TEXT_LENGTH")
	envOverrideInt(&cfg.MaxTextLength, "MAX_TEXT_LENGTH")
	envOverrideInt(&cfg.BatchMaxRecords, "BATCH_MAX_RECORDS")
	envOverrideInt(&cfg.ScrapeCommentLimit, "SCRAPE_COMMENT_LIMIT")
	envOverrideInt(&cfg.BattleCommentLimit, "BATTLE_COMMENT_LIMIT")
	envOverrideInt(&cfg.WatchCommentLimit, "WATCH_COMMENT_LIMIT")
	envOverrideInt(&cfg.WatchNegativeThreshold, "WATCH_NEGATIVE_THRESHOLD")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverrideInt(&cfg.TrainingTimeoutMinutes, "TRAINING_TIMEOUT_MINUTES")

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./sentimen.db"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "./uploads"
	}
	if cfg.ClassifierProvider == "" {
		cfg.ClassifierProvider = "model"
	}
	if cfg.MinTextLength == 0 {
		cfg.MinTextLength = 10
	}
	if cfg.MaxTextLength == 0 {
		cfg.MaxTextLength = 1000
	}
	if cfg.BatchMaxRecords == 0 {
		cfg.BatchMaxRecords = 1000
	}
	if cfg.ScrapeCommentLimit == 0 {
		cfg.ScrapeCommentLimit = 20
	}
	if cfg.BattleCommentLimit == 0 {
		cfg.BattleCommentLimit = 30
	}
	if cfg.WatchCommentLimit == 0 {
		cfg.WatchCommentLimit = 20
	}
	if cfg.WatchNegativeThreshold == 0 {
		cfg.WatchNegativeThreshold = 50
	}
	if cfg.TrainingTimeoutMinutes == 0 {
		cfg.TrainingTimeoutMinutes = 120
	}

	// Validate required fields
	switch cfg.ClassifierProvider {
	case "model":
		if cfg.ModelServerURL == "" {
			log.Fatalf("model_server_url is required when classifier_provider=model")
		}
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when classifier_provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("openai_api_key is required when classifier_provider=openai")
		}
	default:
		log.Fatalf("classifier_provider must be 'model', 'anthropic' or 'openai', got '%s'", cfg.ClassifierProvider)
	}

	if cfg.MinTextLength < 1 {
		log.Fatalf("invalid min_text_length '%d': must be >= 1", cfg.MinTextLength)
	}
	if cfg.MaxTextLength < cfg.MinTextLength {
		log.Fatalf("invalid max_text_length '%d': must be >= min_text_length (%d)", cfg.MaxTextLength, cfg.MinTextLength)
	}
	if cfg.BatchMaxRecords < 1 {
		log.Fatalf("invalid batch_max_records '%d': must be >= 1", cfg.BatchMaxRecords)
	}
	if cfg.WatchNegativeThreshold < 1 || cfg.WatchNegativeThreshold > 100 {
		log.Fatalf("invalid watch_negative_threshold '%d': must be between 1 and 100", cfg.WatchNegativeThreshold)
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
