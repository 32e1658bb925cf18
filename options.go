package xmerge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidvella/xmerge/compactor"
	"github.com/davidvella/xmerge/lineio"
	"github.com/davidvella/xmerge/metrics"
	"github.com/sirupsen/logrus"
)

// Strategy selects how the merge tree is evaluated.
type Strategy int

const (
	// Pairwise merges files two at a time along a balanced binary tree.
	// At most O(log N) files are open at once.
	Pairwise Strategy = iota
	// Tournament opens every file and merges them in a single pass
	// through a loser tree. All N files are open at once.
	Tournament
)

func (s Strategy) String() string {
	switch s {
	case Pairwise:
		return "pairwise"
	case Tournament:
		return "tournament"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps "pairwise" or "tournament" to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pairwise":
		return Pairwise, nil
	case "tournament":
		return Tournament, nil
	default:
		return Pairwise, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfiguration, s)
	}
}

// options defines all configuration options for a merge run.
type options struct {
	comparator  compactor.Compare
	lineFilter  lineio.Filter
	tempDir     string
	progress    func(float64)
	logger      logrus.FieldLogger
	metrics     *metrics.Metrics
	compression lineio.Codec
	strategy    Strategy
	runID       string
}

// Option is a function that configures the merge options.
type Option func(*options)

// WithComparator sets the ordering the input files are sorted by.
func WithComparator(cmp func(a, b string) int) Option {
	return func(o *options) {
		o.comparator = cmp
	}
}

// WithLineFilter drops every line for which keep returns false.
func WithLineFilter(keep func(line string) bool) Option {
	return func(o *options) {
		o.lineFilter = keep
	}
}

// WithTempDirectory sets where intermediate files are written. The
// directory is created if it does not exist.
func WithTempDirectory(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithProgressHandler is called with the completed fraction, rounded to
// two decimals, after every merge step.
func WithProgressHandler(fn func(fraction float64)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records run statistics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithCompression sets the codec used for intermediate files.
func WithCompression(codec lineio.Codec) Option {
	return func(o *options) {
		o.compression = codec
	}
}

// WithStrategy sets the merge strategy.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithRunID overrides the generated run id used to name intermediate files.
func WithRunID(id string) Option {
	return func(o *options) {
		o.runID = id
	}
}

// DefaultTempDirectory is where intermediate files go unless
// WithTempDirectory says otherwise.
func DefaultTempDirectory() string {
	return filepath.Join(os.TempDir(), "MergeSort")
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		comparator:  InvariantCulture(),
		lineFilter:  nil,
		tempDir:     DefaultTempDirectory(),
		progress:    nil,
		logger:      logrus.StandardLogger(),
		compression: lineio.None,
		strategy:    Pairwise,
	}
}

func (o options) validate() error {
	if o.comparator == nil {
		return fmt.Errorf("%w: comparator is required", ErrInvalidConfiguration)
	}
	if strings.TrimSpace(o.tempDir) == "" {
		return fmt.Errorf("%w: temp directory is required", ErrInvalidConfiguration)
	}
	if o.logger == nil {
		return fmt.Errorf("%w: logger is required", ErrInvalidConfiguration)
	}
	if !o.compression.Valid() {
		return fmt.Errorf("%w: unknown compression %s", ErrInvalidConfiguration, o.compression)
	}
	if o.strategy != Pairwise && o.strategy != Tournament {
		return fmt.Errorf("%w: unknown strategy %s", ErrInvalidConfiguration, o.strategy)
	}
	if strings.ContainsAny(o.runID, `/\`) {
		return fmt.Errorf("%w: run id %q must not contain path separators", ErrInvalidConfiguration, o.runID)
	}
	return nil
}
