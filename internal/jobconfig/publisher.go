package jobconfig

import (
	"context"

	"github.com/beevik/etree"

	"samsonjenkins/internal/logger"
)

// Publisher posts reconciled configurations back to the CI server
type Publisher struct {
	sink    Sink
	fetcher *Fetcher
}

// NewPublisher creates a Publisher. After a successful post the fetcher's
// cache holds the published document, so later reconciliations start from it.
func NewPublisher(sink Sink, fetcher *Fetcher) *Publisher {
	return &Publisher{sink: sink, fetcher: fetcher}
}

// Publish posts doc when changed is set and does nothing otherwise.
func (p *Publisher) Publish(ctx context.Context, jobName string, doc *etree.Document, changed bool) error {
	if !changed {
		return nil
	}

	xml, err := doc.WriteToString()
	if err != nil {
		return err
	}

	if err := p.sink.PostJobConfig(ctx, jobName, xml); err != nil {
		// Jenkins may have stored part of the update; refetch next time
		if p.fetcher != nil {
			p.fetcher.Invalidate(jobName)
		}
		return err
	}

	if p.fetcher != nil {
		p.fetcher.store(jobName, xml)
	}
	logger.Info("Updated job config", "job", jobName)
	return nil
}
