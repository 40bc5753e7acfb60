package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sentimen/internal/analytics"
	"sentimen/internal/classifier"
	"sentimen/internal/config"
	"sentimen/internal/httpx"
	"sentimen/internal/notify"
	"sentimen/internal/scraper"
	"sentimen/internal/server"
	"sentimen/internal/storage/sqlite"
	"sentimen/internal/training"
	"sentimen/internal/watch"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	timeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf("External HTTP timeout: %s", timeout)

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	os.MkdirAll(cfg.UploadDir, 0755)

	notifier := notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannelID)

	handle, trainer := buildClassifier(cfg, notifier)

	words := analytics.NewWordFrequency(loadStopwords(cfg.StopwordsPath))
	aggregator := analytics.NewAggregator(handle, words, cfg.BatchMaxRecords)
	comparator := analytics.NewComparator(handle, cfg.BattleCommentLimit)

	var source server.CommentSource
	var sweepSource watch.CommentSource
	if cfg.YouTubeAPIKey != "" {
		yt := scraper.NewYouTubeClient(cfg.YouTubeAPIKey, httpx.Client())
		source = yt
		sweepSource = yt
	} else {
		log.Println("YouTube scraping disabled: youtube_api_key not configured")
	}

	watch.StartScheduler(cfg.WatchSchedule, watch.Config{
		CommentLimit:      cfg.WatchCommentLimit,
		NegativeThreshold: cfg.WatchNegativeThreshold,
	}, db, sweepSource, handle, notifier)

	handlers := server.NewHandlers(cfg, db, handle, source, trainer, aggregator, comparator, words)

	log.Printf("Starting sentiment API on %s (provider: %s)", cfg.ListenAddr, cfg.ClassifierProvider)
	if err := server.New(cfg, handlers).ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// buildClassifier wires the configured provider behind a swappable handle.
// Training is only available with the model server provider; LLM providers
// return a nil controller and the training endpoints report unavailable.
func buildClassifier(cfg config.Config, notifier *notify.SlackNotifier) (*classifier.Handle, *training.Controller) {
	switch cfg.ClassifierProvider {
	case "model":
		client := classifier.NewModelClient(cfg.ModelServerURL, httpx.Client())
		handle := classifier.NewHandle(client)

		trainer := training.NewController(client, func(ctx context.Context) error {
			if err := client.Reload(ctx); err != nil {
				return err
			}
			handle.Swap(client)
			return nil
		})
		trainer.SetTimeout(time.Duration(cfg.TrainingTimeoutMinutes) * time.Minute)
		trainer.SetNotifier(notifier.Post)
		return handle, trainer

	case "anthropic":
		return classifier.NewHandle(classifier.NewLLMClassifier("anthropic", cfg.LLMModel, cfg.AnthropicAPIKey)), nil

	case "openai":
		return classifier.NewHandle(classifier.NewLLMClassifier("openai", cfg.LLMModel, cfg.OpenAIAPIKey)), nil
	}

	// LoadConfig already validated the provider.
	log.Fatalf("unknown classifier_provider '%s'", cfg.ClassifierProvider)
	return nil, nil
}

// loadStopwords merges an optional newline-separated stopword file with the
// built-in Indonesian list.
func loadStopwords(path string) []string {
	words := analytics.DefaultStopwords()
	if path == "" {
		return words
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Could not read stopwords file %s: %v (using defaults)", path, err)
		return words
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
			words = append(words, line)
		}
	}
	return words
}
