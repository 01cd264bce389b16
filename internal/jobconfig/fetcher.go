package jobconfig

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/beevik/etree"

	"samsonjenkins/internal/cache"
	"samsonjenkins/internal/logger"
)

// Source reads job configurations from the CI server
type Source interface {
	GetJobConfig(ctx context.Context, jobName string) (string, error)
}

// Sink writes job configurations back to the CI server
type Sink interface {
	PostJobConfig(ctx context.Context, jobName string, xml string) error
}

// Fetcher returns parsed job configurations, caching the raw XML per job.
type Fetcher struct {
	source Source
	cache  *cache.Cache[string]
}

// NewFetcher creates a Fetcher caching configurations for ttl, serving stale
// ones for raceTTL while a refresh is in flight.
func NewFetcher(source Source, ttl, raceTTL time.Duration) *Fetcher {
	return &Fetcher{
		source: source,
		cache:  cache.New[string](ttl, raceTTL),
	}
}

func cacheKey(jobName string) string {
	return "jenkins_config_" + jobName
}

// Fetch returns the configuration of jobName. Errors from the CI server are
// returned unwrapped.
func (f *Fetcher) Fetch(ctx context.Context, jobName string) (*etree.Document, error) {
	raw, err := f.cache.Fetch(cacheKey(jobName), func() (string, error) {
		logger.Debug("Fetching job config", "job", jobName)
		return f.source.GetJobConfig(ctx, jobName)
	})
	if err != nil {
		return nil, err
	}

	doc, err := ParseConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config of %s: %w", jobName, err)
	}
	return doc, nil
}

// Jenkins writes config.xml with an XML 1.1 declaration, which encoding/xml
// refuses. Jenkins reads the 1.0 declaration fine when the config is posted back.
var xml11Prolog = regexp.MustCompile(`^(\s*<\?xml\s+version\s*=\s*)(['"])1\.1(['"])`)

// ParseConfig parses a job config.xml
func ParseConfig(raw string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml11Prolog.ReplaceAllString(raw, "${1}${2}1.0${3}")); err != nil {
		return nil, err
	}
	return doc, nil
}

// store replaces the cached configuration of jobName
func (f *Fetcher) store(jobName, raw string) {
	f.cache.Write(cacheKey(jobName), raw)
}

// Invalidate drops the cached configuration of jobName
func (f *Fetcher) Invalidate(jobName string) {
	f.cache.Delete(cacheKey(jobName))
}
