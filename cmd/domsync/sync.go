package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/vango-dev/domsync/internal/config"
	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/dom"
	"github.com/vango-dev/domsync/pkg/middleware"
	"github.com/vango-dev/domsync/pkg/morph"
)

type syncOptions struct {
	host      string
	candidate string
	out       string
	fragment  bool
	islands   bool
	prefix    string
	between   []string
	minify    bool
	stats     bool
	logLevel  string
}

func syncCmd() *cobra.Command {
	var opts syncOptions

	cmd := &cobra.Command{
		Use:   "sync HOST CANDIDATE",
		Short: "Reconcile a host document with a candidate",
		Long: `Reconcile HOST so that it matches CANDIDATE and write the result.

Both files are parsed as complete HTML documents unless --fragment is
given. With --between, only the siblings between two comments of HOST
are reconciled, and CANDIDATE is read as a fragment.

Examples:
  domsync sync page.html next.html --out page.html
  domsync sync page.html next.html --islands --stats
  domsync sync page.html list.html --between list:start,list:end`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.host, opts.candidate = args[0], args[1]
			return runSync(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the result to a file instead of stdout")
	cmd.Flags().BoolVarP(&opts.fragment, "fragment", "f", false, "Parse both inputs as body fragments")
	cmd.Flags().BoolVarP(&opts.islands, "islands", "i", false, "Treat marker comments as opaque islands")
	cmd.Flags().StringVar(&opts.prefix, "marker-prefix", config.DefaultMarkerPrefix, "Comment prefix of island markers")
	cmd.Flags().StringSliceVar(&opts.between, "between", nil, "Reconcile only between two host comments: START,END")
	cmd.Flags().BoolVarP(&opts.minify, "minify", "m", false, "Minify the output")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Print pass statistics to stderr")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	return cmd
}

func runSync(ctx context.Context, opts syncOptions, stdout, stderr io.Writer) error {
	if len(opts.between) != 0 && len(opts.between) != 2 {
		return errors.Newf(errors.CategoryCLI, "--between takes exactly two comment texts, got %d", len(opts.between))
	}
	bounded := len(opts.between) == 2

	host, err := readDocument(opts.host, opts.fragment)
	if err != nil {
		return err
	}
	cand, err := readDocument(opts.candidate, opts.fragment || bounded)
	if err != nil {
		return err
	}

	cfg := config.New()
	cfg.Logging.Level = opts.logLevel
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := cfg.Logger(stderr)

	var markers morph.MarkerParser
	if opts.islands {
		markers = morph.JSONMarkers{Prefix: opts.prefix}
	}

	var dst morph.Range
	if bounded {
		start, end, err := findBounds(host, opts.between[0], opts.between[1])
		if err != nil {
			return err
		}
		if markers != nil {
			dst = morph.LogicalBetween(start, end, markers)
		} else {
			dst = morph.Between(start, end)
		}
	} else if markers != nil {
		dst = morph.Logical(host, markers)
	} else {
		dst = morph.Physical(host)
	}

	var src morph.Range = morph.Physical(cand)
	if markers != nil {
		src = morph.Logical(cand, markers)
	}

	r := morph.New(
		morph.WithLogger(logger),
		morph.WithIslands(islandReporter{logger}),
		morph.WithMiddleware(middleware.OpenTelemetry(middleware.WithTracerName("domsync-cli"))),
	)
	stats, err := r.Run(ctx, dst, src)
	if err != nil {
		return err
	}

	if err := writeDocument(host, opts, stdout); err != nil {
		return err
	}
	if opts.stats {
		data, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Fprintf(stderr, "%s\n", data)
	}
	return nil
}

// readDocument parses path as a full document, or as a body fragment.
func readDocument(path string, fragment bool) (*html.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("D040").WithPath(path).Wrap(err)
	}
	if fragment {
		n, err := dom.ParseFragment(string(data))
		if err != nil {
			return nil, errors.New("D040").WithPath(path).Wrap(err)
		}
		return n, nil
	}
	n, err := dom.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New("D040").WithPath(path).Wrap(err)
	}
	return n, nil
}

func writeDocument(n *html.Node, opts syncOptions, stdout io.Writer) error {
	var buf bytes.Buffer
	if opts.minify {
		if err := dom.Minify(&buf, n); err != nil {
			return err
		}
	} else {
		buf.WriteString(dom.String(n))
	}

	if opts.out == "" {
		_, err := buf.WriteTo(stdout)
		return err
	}
	if err := os.WriteFile(opts.out, buf.Bytes(), 0644); err != nil {
		return errors.New("D040").WithPath(opts.out).Wrap(err)
	}
	success("Wrote %s", opts.out)
	return nil
}

// findBounds locates the first comments whose trimmed text equals start and
// end. Both must be siblings with start first.
func findBounds(root *html.Node, start, end string) (*html.Node, *html.Node, error) {
	s := findComment(root, start)
	if s == nil {
		return nil, nil, errors.New("D042").WithDetailf("no <!--%s--> comment in the host document", start)
	}
	for n := s.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.CommentNode && strings.TrimSpace(n.Data) == end {
			return s, n, nil
		}
	}
	return nil, nil, errors.New("D042").WithDetailf("no <!--%s--> sibling after <!--%s-->", end, start)
}

func findComment(n *html.Node, text string) *html.Node {
	if n.Type == html.CommentNode && strings.TrimSpace(n.Data) == text {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findComment(c, text); found != nil {
			return found
		}
	}
	return nil
}

// islandReporter logs island lifecycle events for the CLI.
type islandReporter struct {
	logger *slog.Logger
}

func (r islandReporter) IslandMatched(dst, _ *morph.Island) {
	r.logger.Info("island kept", "id", dst.Marker.ID)
}

func (r islandReporter) IslandInserted(island *morph.Island) {
	r.logger.Info("island inserted", "id", island.Marker.ID)
}

func (r islandReporter) IslandRemoved(island *morph.Island) {
	r.logger.Warn("island removed", "id", island.Marker.ID)
}
