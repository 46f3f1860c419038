package job

import (
	"fmt"

	"gorm.io/gorm"

	"foodgram/internal/config"
	"foodgram/internal/importer"
	"foodgram/internal/translate"
)

// FromConfig assembles the crawler, translating parser and saver described
// by cfg into a Runner. scheduler may be nil for one-shot runs.
func FromConfig(cfg config.Config, db *gorm.DB, scheduler Scheduler) (*Runner, error) {
	if db == nil {
		return nil, gorm.ErrInvalidDB
	}

	translator, err := translate.NewClient(translate.Config{
		APIKey:            cfg.Translate.APIKey,
		Model:             cfg.Translate.Model,
		BaseURL:           cfg.Translate.BaseURL,
		Source:            cfg.Translate.Source,
		Target:            cfg.Translate.Target,
		RequestsPerSecond: cfg.Translate.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("job: translator: %w", err)
	}

	crawler, err := importer.NewCrawler(importer.CrawlerConfig{
		BaseURL: cfg.RecipesAPI.BaseURL,
		APIKey:  cfg.RecipesAPI.APIKey,
		Headers: cfg.RecipesAPI.Headers,
		Timeout: cfg.RecipesAPI.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("job: crawler: %w", err)
	}

	saver := importer.NewSaver(db, importer.NewImageFetcher(nil, cfg.RecipesAPI.Timeout))

	return NewRunner(Config{
		Schedule:     cfg.Import.Schedule,
		MaxRetries:   cfg.Import.MaxRetries,
		RetryBackoff: cfg.Import.RetryBackoff,
		LeaseTTL:     cfg.Import.LeaseTTL,
	}, db, scheduler, crawler, importer.NewParser(translator), saver), nil
}
