package main

import (
	"context"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	defaultGraphitePort = 2003
	graphiteDialTimeout = 10 * time.Second
)

// Sink receives a finished ledger.
type Sink interface {
	Send(ctx context.Context, l *Ledger) error
	Close() error
}

// lineSink writes Graphite plaintext lines to a stream. closer is nil when
// the sink doesn't own the stream.
type lineSink struct {
	w         io.Writer
	closer    io.Closer
	formatter Formatter
}

// NewStdoutSink creates a Sink printing metrics to stdout. Closing it
// leaves stdout open.
func NewStdoutSink(f Formatter) Sink {
	return &lineSink{w: os.Stdout, formatter: f}
}

// NewGraphiteSink creates a Sink sending metrics to a Graphite server at
// "host" or "host:port". The connection is made on first write.
func NewGraphiteSink(hostport string, f Formatter) Sink {
	sw := &socketWriter{address: graphiteAddress(hostport)}
	return &lineSink{w: sw, closer: sw, formatter: f}
}

func (s *lineSink) Send(ctx context.Context, l *Ledger) error {
	log.WithField("series", len(l.timeseries)).Info("Writing metrics to timeseries database")
	if err := l.Output(s.w, s.formatter); err != nil {
		return errors.Wrap(err, "couldn't write metrics")
	}
	return nil
}

func (s *lineSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func graphiteAddress(hostport string) string {
	if _, _, err := net.SplitHostPort(hostport); err == nil {
		return hostport
	}
	return net.JoinHostPort(hostport, strconv.Itoa(defaultGraphitePort))
}

// socketWriter is a TCP connection dialed on the first Write.
type socketWriter struct {
	address string
	conn    net.Conn
}

func (w *socketWriter) Write(p []byte) (int, error) {
	if w.conn == nil {
		log.WithField("address", w.address).Info("Connecting to Graphite server")
		conn, err := net.DialTimeout("tcp", w.address, graphiteDialTimeout)
		if err != nil {
			return 0, err
		}
		w.conn = conn
	}
	return w.conn.Write(p)
}

func (w *socketWriter) Close() error {
	if w.conn == nil {
		return nil
	}
	return w.conn.Close()
}
