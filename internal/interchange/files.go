package interchange

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/cadastre/core"
	"github.com/signalsfoundry/cadastre/internal/logging"
)

const tracerName = "github.com/signalsfoundry/cadastre/internal/interchange"

// ErrFileOpen indicates the interchange file could not be opened for reading
// or created for writing.
var ErrFileOpen = errors.New("cannot open interchange file")

// FileError reports a file-level failure. Op is "load" or "save".
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Recorder receives per-operation interchange statistics.
type Recorder interface {
	ObserveInterchange(op string, zones []core.Zone, elapsed time.Duration, err error)
}

// Option customises LoadFile and SaveFile.
type Option func(*options)

type options struct {
	recorder Recorder
}

// WithRecorder attaches a statistics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// LoadFile decodes the plots stored at path. A file that cannot be opened
// yields an empty collection and a *FileError wrapping ErrFileOpen; an empty
// file yields an empty collection and no error. Decoding failures are
// returned as *RecordError without any zones.
func LoadFile(ctx context.Context, path string, opts ...Option) (zones []core.Zone, err error) {
	o := collect(opts)
	log := logging.FromContext(ctx)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "interchange.LoadFile",
		trace.WithAttributes(attribute.String("file.path", path)))
	start := time.Now()
	defer func() {
		finish(span, len(zones), err)
		if o.recorder != nil {
			o.recorder.ObserveInterchange("load", zones, time.Since(start), err)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		log.Error(ctx, "unable to open plot file", logging.String("path", path), logging.Err(err))
		return []core.Zone{}, &FileError{Op: "load", Path: path, Err: fmt.Errorf("%w: %w", ErrFileOpen, err)}
	}
	defer f.Close()

	zones, err = Decode(f)
	if err != nil {
		log.Error(ctx, "plot file rejected", logging.String("path", path), logging.Err(err))
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if len(zones) == 0 {
		log.Warn(ctx, "plot file is empty", logging.String("path", path))
	}
	log.Info(ctx, "plots loaded", logging.String("path", path), logging.Int("plots", len(zones)))
	return zones, nil
}

// SaveFile encodes zones to path, replacing any existing file. Nothing is
// written when the file cannot be created or a zone cannot be encoded.
func SaveFile(ctx context.Context, path string, zones []core.Zone, opts ...Option) (err error) {
	o := collect(opts)
	log := logging.FromContext(ctx)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "interchange.SaveFile",
		trace.WithAttributes(attribute.String("file.path", path)))
	start := time.Now()
	defer func() {
		finish(span, len(zones), err)
		if o.recorder != nil {
			o.recorder.ObserveInterchange("save", zones, time.Since(start), err)
		}
	}()

	for _, z := range zones {
		if err := checkEncodable(z); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		log.Error(ctx, "unable to create plot file", logging.String("path", path), logging.Err(err))
		return &FileError{Op: "save", Path: path, Err: fmt.Errorf("%w: %w", ErrFileOpen, err)}
	}
	if err := Encode(f, zones); err != nil {
		f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	log.Info(ctx, "plots saved", logging.String("path", path), logging.Int("plots", len(zones)))
	return nil
}

func finish(span trace.Span, plots int, err error) {
	span.SetAttributes(attribute.Int("plots.count", plots))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
