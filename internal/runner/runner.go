package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/template"
	"time"

	"github.com/jacoelho/remo"
	"github.com/jacoelho/remo/event"
	"github.com/jacoelho/remo/internal/cloud"
	"github.com/jacoelho/remo/internal/config"
	"github.com/jacoelho/remo/internal/digest"
	"github.com/jacoelho/remo/internal/exit"
	"github.com/jacoelho/remo/internal/filter"
	"github.com/jacoelho/remo/internal/formatter"
	"github.com/jacoelho/remo/internal/formatter/cbor"
	"github.com/jacoelho/remo/internal/formatter/stdout"
	"github.com/jacoelho/remo/internal/formatter/templated"
	"github.com/jacoelho/remo/internal/formatter/yaml"
	"github.com/jacoelho/remo/internal/ratelimit"
	"github.com/jacoelho/remo/internal/results"
	"github.com/jacoelho/remo/internal/snapshot"
	"github.com/jacoelho/remo/internal/source"
	"github.com/jacoelho/remo/internal/store"
)

// Input yields one listing per Open. Size is the declared body length, or
// -1 when unknown.
type Input interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, int64, error)
}

// Runner polls one listing, decodes it, and hands the records to the
// configured formatter and store.
type Runner struct {
	config    *config.Config
	input     Input
	limiter   *ratelimit.Limiter
	filter    *filter.Filter
	template  *template.Template
	tracker   *digest.Tracker
	store     *store.Store
	logger    *slog.Logger
	output    io.Writer
	errOutput io.Writer
	now       func() time.Time

	devices    *remo.DeviceDecoder
	appliances *remo.ApplianceDecoder
}

// New creates a new Runner with the provided configuration.
// If creation fails, returns nil runner and exit result.
func New(cfg *config.Config) (*Runner, *exit.Result) {
	r := &Runner{
		config:    cfg,
		limiter:   ratelimit.New(cfg.Interval),
		tracker:   digest.NewTracker(),
		output:    os.Stdout,
		errOutput: os.Stderr,
		now:       time.Now,
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	r.logger = slog.New(slog.NewTextHandler(logSink{r}, &slog.HandlerOptions{Level: level}))

	f, err := filter.Compile(cfg.Filter)
	if err != nil {
		return nil, exit.Usagef("Error: %v\n", err)
	}
	r.filter = f

	if cfg.Format == formatter.FormatTemplate {
		tmpl, err := templated.Parse(cfg.Template)
		if err != nil {
			return nil, exit.Usagef("Error: %v\n", err)
		}
		r.template = tmpl
	}

	if cfg.Polling() {
		httpClient, err := cfg.HTTPClient()
		if err != nil {
			return nil, exit.Errorf("Error creating runner: %v\n", err)
		}
		client, err := cloud.New(httpClient, cfg.Endpoint, cfg.Token, r.logger)
		if err != nil {
			return nil, exit.Errorf("Error creating runner: %v\n", err)
		}
		r.input = cloud.Input{Client: client, Document: cfg.Document}
	} else {
		r.input = source.NewFile(cfg.Input)
	}

	if cfg.Store != "" {
		s, err := store.Open(cfg.Store, r.logger)
		if err != nil {
			return nil, exit.Errorf("Error opening store: %v\n", err)
		}
		r.store = s
	}

	opts := remo.Options{Overflow: cfg.Overflow, Logger: r.logger}
	switch cfg.Document {
	case cloud.Appliances:
		r.appliances = remo.NewApplianceDecoder(opts)
	default:
		r.devices = remo.NewDeviceDecoder(opts)
	}

	return r, nil
}

func (r *Runner) SetOutput(w io.Writer) {
	r.output = w
}

func (r *Runner) SetErrorOutput(w io.Writer) {
	r.errOutput = w
}

func (r *Runner) payloadWriter() io.Writer {
	if r.output == nil {
		return io.Discard
	}
	return r.output
}

func (r *Runner) errorWriter() io.Writer {
	if r.errOutput == nil {
		return io.Discard
	}
	return r.errOutput
}

// logSink lets the logger follow SetErrorOutput.
type logSink struct{ r *Runner }

func (s logSink) Write(p []byte) (int, error) {
	return s.r.errorWriter().Write(p)
}

// Close releases the store, if any.
func (r *Runner) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

func (r *Runner) newFormatter(w io.Writer) formatter.Formatter {
	switch r.config.Format {
	case formatter.FormatYAML:
		return yaml.NewWithWriter(w)
	case formatter.FormatCBOR:
		return cbor.NewWithWriter(w)
	case formatter.FormatTemplate:
		return templated.NewWithWriter(w, r.template)
	default:
		return stdout.NewWithWriter(w)
	}
}

// Run polls Repeat+1 times, or until ctx is done when Repeat is negative,
// and returns the process exit code. A failed poll is logged and polling
// continues; the code reflects the first failure.
func (r *Runner) Run(ctx context.Context) int {
	out := r.newFormatter(r.payloadWriter())

	totalPolls := r.config.Repeat + 1
	if r.config.Repeat < 0 {
		totalPolls = 0
	}
	summary := results.NewSummary(totalPolls)

	code := exit.CodeSuccess
	for poll := 1; totalPolls == 0 || poll <= totalPolls; poll++ {
		if err := r.wait(ctx); err != nil {
			r.logger.Warn("interrupted", "completed", poll-1)
			code = exit.CodeFailure
			break
		}

		r.logger.Debug("polling", "poll", poll, "input", r.input.Name())

		result := summary.Add(r.poll(ctx, out))
		if result.Error != nil {
			if ctx.Err() != nil {
				r.logger.Warn("interrupted", "completed", poll-1)
				code = exit.CodeFailure
				break
			}
			r.logger.Error("poll failed", "poll", poll, "input", result.Input, "error", result.Error)
			if code == exit.CodeSuccess {
				code = exit.FromError(result.Error).ExitCode
			}
			continue
		}

		r.logger.Debug("poll complete",
			"poll", poll,
			"records", result.Records,
			"sub_records", result.SubRecords,
			"emitted", result.Emitted,
			"bytes", result.Bytes,
			"changed", result.Changed,
			"duration", result.Duration,
		)
	}

	if err := out.Summary(summary); err != nil {
		r.logger.Error("writing summary", "error", err)
		if code == exit.CodeSuccess {
			code = exit.CodeFailure
		}
	}
	return code
}

func (r *Runner) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return r.limiter.Wait(ctx)
}

// poll reads one listing and returns its result. The error, if any, is
// carried by the builder.
func (r *Runner) poll(ctx context.Context, out formatter.Formatter) *results.PollResultBuilder {
	start := r.now()
	b := results.NewPollResultBuilder(r.input.Name(), string(r.config.Document))

	emitted, err := r.process(ctx, b, out, start)
	return b.WithEmitted(emitted).
		WithDuration(r.now().Sub(start)).
		WithError(err)
}

func (r *Runner) process(ctx context.Context, b *results.PollResultBuilder, out formatter.Formatter, seenAt time.Time) (int, error) {
	body, length, err := r.input.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	digester := digest.NewReader(body)
	batch, subRecords, err := r.decode(digester, length)
	b.WithRecords(len(batch)-subRecords, subRecords)
	if err != nil {
		b.WithDigest(digester.N(), digester.Sum64(), true)
		return 0, fmt.Errorf("decoding %s: %w", r.input.Name(), err)
	}

	changed := r.tracker.Observe(string(r.config.Document), digester.Sum64())
	b.WithDigest(digester.N(), digester.Sum64(), changed)

	if r.store != nil {
		stats, err := r.store.Save(ctx, batch, seenAt)
		if err != nil {
			return 0, fmt.Errorf("storing %s: %w", r.input.Name(), err)
		}
		r.logger.Debug("stored",
			"devices", stats.Devices,
			"readings", stats.Readings,
			"appliances", stats.Appliances,
			"properties", stats.Properties,
		)
	}

	if r.config.ChangedOnly && !changed {
		return 0, nil
	}

	emit, err := r.filter.Apply(batch)
	if err != nil {
		return 0, err
	}
	if len(emit) == 0 {
		return 0, nil
	}
	if err := out.Records(emit); err != nil {
		return 0, fmt.Errorf("writing records: %w", err)
	}
	return len(emit), nil
}

// decode copies every callback into a batch. Records decoded before a
// failure are returned with the error.
func (r *Runner) decode(body io.Reader, length int64) ([]snapshot.Record, int, error) {
	var (
		batch      []snapshot.Record
		subRecords int
	)
	collect := func(rec snapshot.Record) {
		if rec.Sub() {
			subRecords++
		}
		batch = append(batch, rec)
	}

	src := event.NewDecoder(body, length)
	var err error
	if r.appliances != nil {
		err = r.appliances.Decode(src, func(a *remo.Appliance, sub remo.ApplianceSubNode) error {
			collect(snapshot.FromAppliance(a, sub))
			return nil
		})
	} else {
		err = r.devices.Decode(src, func(d *remo.Device, sub remo.DeviceSubNode) error {
			collect(snapshot.FromDevice(d, sub))
			return nil
		})
	}
	return batch, subRecords, err
}
