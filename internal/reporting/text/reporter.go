package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/komodo-ops/change-detector/internal/core/domain"
	"github.com/komodo-ops/change-detector/internal/core/ports"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `yaml:"no_color"`
}

// Reporter renders the change detection report for humans: a per-kind
// section with the added/removed/modified name sets, recorded differences
// for modified resources, and explicit warnings for pending removals.
type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

var _ ports.Reporter = (*Reporter)(nil)

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	if cfg.NoColor || !isTerminal(os.Stdout) {
		color.NoColor = true
	}

	return &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}, nil
}

func isTerminal(f *os.File) bool {
	stat, _ := f.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (r *Reporter) Report(ctx context.Context, report domain.Report) error {
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintln(r.writer, strings.Repeat("=", 60))
	fmt.Fprintln(r.writer, "CHANGE DETECTION REPORT")
	fmt.Fprintln(r.writer, strings.Repeat("=", 60))

	for _, result := range report.Results {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprintf(r.writer, "\n%s:\n", cyan(strings.ToUpper(result.Kind.Plural())))

		tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
		fmt.Fprintf(tw, "  Added:\t%s\n", formatNames(result.Added, green))
		fmt.Fprintf(tw, "  Removed:\t%s\n", formatNames(result.Removed, red))
		fmt.Fprintf(tw, "  Modified:\t%s\n", formatNames(result.Modified, yellow))
		tw.Flush()

		for _, name := range result.Modified {
			for _, diff := range result.Differences[name] {
				fmt.Fprintf(r.writer, "    %s: %s\n", name, diff)
			}
		}
	}

	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, strings.Repeat("=", 60))
	verdict := green("NO")
	if report.ChangesDetected {
		verdict = yellow("YES")
	}
	fmt.Fprintf(r.writer, "Changes Detected: %s\n", verdict)
	fmt.Fprintln(r.writer, strings.Repeat("=", 60))

	for _, result := range report.Results {
		if len(result.Removed) > 0 {
			plural := result.Kind.Plural()
			fmt.Fprintf(r.writer, "\n%s %s will be REMOVED: %s\n",
				red("WARNING:"), strings.ToUpper(plural[:1])+plural[1:], strings.Join(result.Removed, ", "))
		}
	}

	return nil
}

func formatNames(names []string, colorize func(a ...any) string) string {
	if len(names) == 0 {
		return "None"
	}
	return colorize(strings.Join(names, ", "))
}
