package jobconfig

import (
	"context"
	"time"
)

// Configurator runs fetch, reconcile and publish for one job
type Configurator struct {
	fetcher   *Fetcher
	publisher *Publisher
}

// Client is what a Configurator needs from the CI server
type Client interface {
	Source
	Sink
}

// NewConfigurator wires a Fetcher and Publisher around client
func NewConfigurator(client Client, ttl, raceTTL time.Duration) *Configurator {
	fetcher := NewFetcher(client, ttl, raceTTL)
	return &Configurator{
		fetcher:   fetcher,
		publisher: NewPublisher(client, fetcher),
	}
}

// Configure ensures jobName declares the Samson parameters and lists the
// project stage in its description. It reports whether the job was updated.
func (c *Configurator) Configure(ctx context.Context, jobName, project, stage string) (bool, error) {
	doc, err := c.fetcher.Fetch(ctx, jobName)
	if err != nil {
		return false, err
	}

	changed := Reconcile(doc, project, stage)
	if err := c.publisher.Publish(ctx, jobName, doc, changed); err != nil {
		return false, err
	}
	return changed, nil
}
