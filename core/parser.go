package core

import (
	utils "grokparser/utils"
)

// Parser wires both pipelines to one fetcher and their two caches.
type Parser struct {
	Challenge *ChallengeExtractor
	Tables    *NumericTableResolver
	Actions   *ActionBundleAnalyzer
}

func NewParser(fetcher Fetcher, tableStore, actionStore Store, site string) *Parser {
	tables := &NumericTableResolver{
		Fetcher:  fetcher,
		Cache:    NewTableCache(tableStore),
		Patterns: DefaultExtractor,
		Site:     site,
	}

	return &Parser{
		Challenge: &ChallengeExtractor{Patterns: DefaultExtractor, Tables: tables},
		Tables:    tables,
		Actions: &ActionBundleAnalyzer{
			Fetcher:    fetcher,
			Cache:      NewActionCache(actionStore),
			Classifier: DefaultClassifier,
			Patterns:   DefaultExtractor,
			Site:       site,
		},
	}
}

func NewFileParser(fetcher Fetcher, cfg utils.Config) *Parser {
	return NewParser(fetcher,
		FileStore{Path: cfg.TableCachePath()},
		FileStore{Path: cfg.ActionCachePath()},
		cfg.Site,
	)
}
