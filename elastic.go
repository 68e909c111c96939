package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/olivere/elastic"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ElasticSink indexes points into monthly Elasticsearch indices, one
// document per series and hour. Document IDs are derived from the series
// and timestamp so running again over the same cycle overwrites.
type ElasticSink struct {
	client      *elastic.Client
	processor   *elastic.BulkProcessor
	indexPrefix string
	formatter   Formatter
	indices     map[string]bool

	mu      sync.Mutex
	bulkErr error
}

type pointDoc struct {
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"@timestamp"`
}

// NewElasticSink connects to Elasticsearch and starts a bulk processor with
// the given number of workers.
func NewElasticSink(ctx context.Context, server string, workers int, indexPrefix string, f Formatter) (*ElasticSink, error) {
	client, err := elastic.NewClient(elastic.SetURL(server), elastic.SetSniff(false))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get Elasticsearch client")
	}
	s := &ElasticSink{
		client:      client,
		indexPrefix: indexPrefix,
		formatter:   f,
		indices:     make(map[string]bool),
	}
	s.processor, err = client.BulkProcessor().
		Name("billing-metrics").
		Workers(workers).
		After(s.afterBulk).
		Do(ctx)
	if err != nil {
		client.Stop()
		return nil, errors.Wrap(err, "couldn't start bulk processor")
	}
	return s, nil
}

// Send queues every point of the ledger and waits for them to be indexed.
func (s *ElasticSink) Send(ctx context.Context, l *Ledger) error {
	for _, p := range l.Points() {
		index := s.indexName(p.Time)
		if err := s.ensureIndex(ctx, index); err != nil {
			return err
		}
		metric := s.formatter.metricName(p.Name)
		req := elastic.NewBulkIndexRequest().
			Index(index).
			Type("_doc").
			Id(fmt.Sprintf("%s@%d", metric, p.Time.Unix())).
			Doc(pointDoc{Metric: metric, Value: p.Value, Timestamp: p.Time})
		s.processor.Add(req)
	}
	if err := s.processor.Flush(); err != nil {
		return errors.Wrap(err, "flushing points to Elasticsearch failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bulkErr
}

// Close stops the bulk processor and the client.
func (s *ElasticSink) Close() error {
	defer s.client.Stop()
	return s.processor.Close()
}

func (s *ElasticSink) indexName(t time.Time) string {
	return fmt.Sprintf("%s-%s", s.indexPrefix, t.UTC().Format("2006.01"))
}

// ensureIndex creates an index with the point mapping unless it exists.
func (s *ElasticSink) ensureIndex(ctx context.Context, index string) error {
	if s.indices[index] {
		return nil
	}
	exists, err := s.client.IndexExists(index).Do(ctx)
	if err != nil {
		return errors.Wrapf(err, "couldn't check index %s", index)
	}
	if !exists {
		log.WithField("index", index).Info("Creating index")
		_, err = s.client.CreateIndex(index).BodyString(pointIndexBody).Do(ctx)
		if err != nil {
			return errors.Wrapf(err, "couldn't create index %s", index)
		}
	}
	s.indices[index] = true
	return nil
}

func (s *ElasticSink) afterBulk(executionID int64, requests []elastic.BulkableRequest, response *elastic.BulkResponse, err error) {
	if err == nil && response != nil && response.Errors {
		failed := response.Failed()
		err = errors.Errorf("%d of %d documents failed to index", len(failed), len(requests))
	}
	if err != nil {
		log.WithError(err).Error("Bulk index error")
		s.mu.Lock()
		if s.bulkErr == nil {
			s.bulkErr = err
		}
		s.mu.Unlock()
		return
	}
	log.WithFields(log.Fields{
		"id":   executionID,
		"docs": len(requests),
	}).Debug("Documents commited")
}

const pointIndexBody = `{
	"settings": {
		"index": {
			"number_of_shards": 1
		}
	},
	"mappings": {
		"_doc": {
			"properties": {
				"metric": {"type": "keyword"},
				"value": {"type": "double"},
				"@timestamp": {"type": "date"}
			}
		}
	}
}`
