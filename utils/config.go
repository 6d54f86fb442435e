package utils

import (
	"flag"
	"path/filepath"
)

const (
	TableCacheFile  = "mapping.json"
	ActionCacheFile = "grok.json"

	DefaultVerification = "grok-site-verification"
	OnDemandScriptID    = "ondemand.s"
	OnDemandBaseURL     = "https://abs.twimg.com/responsive-web/client-web/ondemand.s."
)

type Config struct {
	Port           int
	CacheDir       string
	LogLevel       string
	Proxy          string
	TimeoutSeconds int
	Site           string
}

// ParseFlags fills a Config from the command line.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("grokparser", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", 2323, "Port the API listens on")
	fs.StringVar(&cfg.CacheDir, "cache-dir", "core", "Directory holding mapping.json and grok.json")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Proxy, "proxy", "", "Upstream proxy used for bundle fetches")
	fs.IntVar(&cfg.TimeoutSeconds, "timeout", 15, "Per-request timeout in seconds")
	fs.StringVar(&cfg.Site, "site", "https://grok.com", "Origin the action and _next bundles are fetched from")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) TableCachePath() string {
	return filepath.Join(c.CacheDir, TableCacheFile)
}

func (c Config) ActionCachePath() string {
	return filepath.Join(c.CacheDir, ActionCacheFile)
}
