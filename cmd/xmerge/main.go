// Command xmerge merges pre-sorted text files, such as rotated logs, into
// one sorted stream.
//
//	xmerge [options] FILE|GLOB...
//
// Arguments may be doublestar globs ("logs/**/*.log.gz"). Arguments keep
// their order; the matches of one glob are taken in lexical order.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"slices"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/davidvella/xmerge"
	"github.com/davidvella/xmerge/lineio"
	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
)

// Options are the command line options of xmerge.
type Options struct {
	TempDir  string `long:"temp-dir" env:"XMERGE_TEMP_DIR" description:"Directory for intermediate files"`
	Grep     string `long:"grep" description:"Only keep lines matching this regular expression"`
	Invert   bool   `long:"invert" description:"Drop lines matching --grep instead of keeping them"`
	Ordinal  bool   `long:"ordinal" description:"Compare lines byte by byte instead of by the root collation"`
	Compress string `long:"compress" default:"none" choice:"none" choice:"gzip" choice:"zstd" description:"Codec for intermediate files"`
	Strategy string `long:"strategy" default:"pairwise" choice:"pairwise" choice:"tournament" description:"Merge strategy"`
	Output   string `short:"o" long:"output" description:"Write the result to this file instead of stdout"`
	Progress bool   `long:"progress" description:"Report progress on stderr"`
	LogLevel string `long:"log-level" env:"XMERGE_LOG_LEVEL" default:"warn" description:"Log level (debug, info, warn, error)"`
	LogJSON  bool   `long:"log-json" description:"Log as JSON"`

	Args struct {
		Files []string `positional-arg-name:"FILE" required:"1"`
	} `positional-args:"yes"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = "[OPTIONS] FILE|GLOB..."

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger, err := newLogger(opts, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if err := execute(ctx, opts, logger, stdout, stderr); err != nil {
		logger.WithError(err).Error("merge failed")
		return 1
	}
	return 0
}

func newLogger(opts Options, stderr io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(level)
	if opts.LogJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

func execute(ctx context.Context, opts Options, logger logrus.FieldLogger, stdout, stderr io.Writer) error {
	files, err := expand(opts.Args.Files)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %v", opts.Args.Files)
	}

	mergeOpts, err := mergeOptions(opts, logger, stderr)
	if err != nil {
		return err
	}

	logger.WithField("files", len(files)).Info("merging")

	if opts.Output == "" {
		return xmerge.Merge(ctx, files, copyTo(stdout), mergeOpts...)
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return err
	}
	if err := xmerge.Merge(ctx, files, copyTo(f), mergeOpts...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func copyTo(w io.Writer) xmerge.Handler {
	return xmerge.HandlerFunc(func(_ context.Context, result io.Reader) error {
		_, err := io.Copy(w, result)
		return err
	})
}

func mergeOptions(opts Options, logger logrus.FieldLogger, stderr io.Writer) ([]xmerge.Option, error) {
	codec, err := lineio.ParseCodec(opts.Compress)
	if err != nil {
		return nil, err
	}
	strategy, err := xmerge.ParseStrategy(opts.Strategy)
	if err != nil {
		return nil, err
	}

	mergeOpts := []xmerge.Option{
		xmerge.WithLogger(logger),
		xmerge.WithCompression(codec),
		xmerge.WithStrategy(strategy),
	}
	if opts.TempDir != "" {
		mergeOpts = append(mergeOpts, xmerge.WithTempDirectory(opts.TempDir))
	}
	if opts.Ordinal {
		mergeOpts = append(mergeOpts, xmerge.WithComparator(xmerge.Ordinal))
	}
	if opts.Grep != "" {
		re, err := regexp.Compile(opts.Grep)
		if err != nil {
			return nil, fmt.Errorf("invalid --grep: %w", err)
		}
		invert := opts.Invert
		mergeOpts = append(mergeOpts, xmerge.WithLineFilter(func(line string) bool {
			return re.MatchString(line) != invert
		}))
	}
	if opts.Progress {
		mergeOpts = append(mergeOpts, xmerge.WithProgressHandler(func(f float64) {
			fmt.Fprintf(stderr, "progress: %3.0f%%\n", f*100)
		}))
	}
	return mergeOpts, nil
}

// expand resolves globs. Plain paths are kept even if they do not exist so
// the merge reports them. A path named twice is only merged once.
func expand(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		if !doublestar.ValidatePathPattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", p, err)
		}
		if len(matches) == 0 && !strings.ContainsAny(p, "*?[{") {
			matches = []string{p}
		}
		slices.Sort(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}
