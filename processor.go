package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// RowSource streams the rows of one or more billing reports.
type RowSource interface {
	EachRow(ctx context.Context, fn RowFunc) error
}

// ReportSource finds billing reports through their manifests in a BlobStore
// and streams their rows.
type ReportSource struct {
	store  BlobStore
	prefix string
	// allCycles reads every billing cycle instead of the two most recent.
	allCycles bool
}

// NewReportSource creates a ReportSource reading the reports under prefix.
func NewReportSource(store BlobStore, prefix string, allCycles bool) *ReportSource {
	return &ReportSource{store: store, prefix: prefix, allCycles: allCycles}
}

// Manifests resolves and downloads the primary manifests, oldest first.
func (s *ReportSource) Manifests(ctx context.Context) ([]*Manifest, error) {
	keys, err := s.store.List(ctx, s.prefix)
	if err != nil {
		return nil, err
	}
	resolve := ResolvePrimaryManifests
	if s.allCycles {
		resolve = AllPrimaryManifests
	}
	primaries, err := resolve(keys)
	if err != nil {
		return nil, err
	}
	log.WithField("manifests", primaries).Info("Using primary manifests")

	manifests := make([]*Manifest, len(primaries))
	for i, key := range primaries {
		manifests[i], err = s.manifest(ctx, key)
		if err != nil {
			return nil, err
		}
	}
	return manifests, nil
}

func (s *ReportSource) manifest(ctx context.Context, key string) (*Manifest, error) {
	body, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer logDeferredError(body.Close)
	var manifest Manifest
	if err := json.NewDecoder(body).Decode(&manifest); err != nil {
		return nil, errors.Wrapf(err, "couldn't decode manifest %s", key)
	}
	return &manifest, nil
}

// EachRow calls fn for every row of every report file listed by the primary
// manifests.
func (s *ReportSource) EachRow(ctx context.Context, fn RowFunc) error {
	manifests, err := s.Manifests(ctx)
	if err != nil {
		return err
	}
	for _, m := range manifests {
		logger := log.WithFields(log.Fields{
			"cycle":       m.Cycle(),
			"assembly_id": m.AssemblyID,
		})
		for _, key := range m.ReportKeys {
			logger.WithField("key", key).Info("Reading billing report")
			gzipped := m.Gzipped() || strings.HasSuffix(key, ".gz")
			if err := s.readReport(ctx, key, gzipped, fn); err != nil {
				return errors.Wrapf(err, "couldn't read report %s", key)
			}
		}
	}
	return nil
}

func (s *ReportSource) readReport(ctx context.Context, key string, gzipped bool, fn RowFunc) error {
	body, err := s.store.Get(ctx, key)
	if err != nil {
		return err
	}
	defer logDeferredError(body.Close)
	var r io.Reader = body
	if gzipped {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return errors.Wrap(err, "gzip reader creation failed")
		}
		defer logDeferredError(gz.Close)
		r = gz
	}
	return ReadCSV(r, fn)
}

// csvFile is a single uncompressed report on local disk.
type csvFile string

func (path csvFile) EachRow(ctx context.Context, fn RowFunc) error {
	f, err := os.Open(string(path))
	if err != nil {
		return errors.Wrap(err, "couldn't open billing report")
	}
	defer logDeferredError(f.Close)
	log.WithField("path", string(path)).Info("Reading billing report")
	return ReadCSV(f, fn)
}

// BuildLedger feeds every row of src through a new Ledger.
func BuildLedger(ctx context.Context, src RowSource, c Classifier) (*Ledger, error) {
	ledger := NewLedger(DefaultPatterns()...)
	log.Info("Calculating billing metrics")
	err := src.EachRow(ctx, func(line int, header, row []string) error {
		record, err := NewRecord(header, row, c)
		if err == nil {
			err = ledger.Process(record)
		}
		if err != nil {
			return &RecordError{Line: line, Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	stats := ledger.Stats()
	log.WithFields(log.Fields{
		"records":          stats.Records,
		"accepted":         stats.Accepted,
		"skipped_type":     stats.SkippedType,
		"skipped_interval": stats.SkippedInterval,
	}).Info("Billing metrics calculated")
	return ledger, nil
}

func logDeferredError(f func() error) {
	err := f()
	if err != nil {
		log.WithError(err).Error("Error when running deferred function")
	}
}
