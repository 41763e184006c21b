package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/domsync/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┌─┐┌┬┐┌─┐┬ ┬┌┐┌┌─┐
   │││ ││││└─┐└┬┘││││
  ─┴┘└─┘┴ ┴└─┘ ┴ ┘└┘└─┘
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "domsync",
		Short: "Reconcile HTML trees in place",
		Long: `domsync makes a live HTML tree match a freshly rendered one with a
minimal edit script, keeping every node it can.

  • Keeps matching nodes and their identity
  • Leaves island subtrees owned by other pipelines untouched
  • Applies form control values after their children exist
  • Preview server with a live pass feed`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		syncCmd(),
		serveCmd(),
		versionCmd(),
	)
	return root
}

// printBanner prints the domsync ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
