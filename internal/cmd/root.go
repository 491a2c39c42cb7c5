package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/output"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c string) {
	version = v
	commit = c
}

// globals are the persistent flags shared by every subcommand.
type globals struct {
	siteFile string
	docsRoot string
	format   string
	logLevel string
	workers  int

	log *slog.Logger
}

// NewRootCmd builds the docnav command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "docnav",
		Short: "Build documentation sidebars from markdown headings",
		Long: `docnav reads a site file describing sidebar groups and pages, scans each
page for headings and produces nested navigation trees.

Environment Variables:
  DOCNAV_CONFIG     Site file (default docnav.yaml)
  DOCNAV_DOCS_ROOT  Docs root overriding docs_root in the site file
  DOCNAV_LOG_LEVEL  debug, info, warn or error`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := config.ParseLevel(g.logLevel)
			if err != nil {
				return err
			}
			g.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	env := config.Load()
	root.PersistentFlags().StringVarP(&g.siteFile, "config", "c", env.SiteFile, "site file")
	root.PersistentFlags().StringVar(&g.docsRoot, "docs", env.DocsRoot, "docs root (overrides docs_root)")
	root.PersistentFlags().StringVarP(&g.format, "format", "f", string(output.FormatJSON), "output format: json or yaml")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", env.LogLevel.String(), "log level")
	root.PersistentFlags().IntVar(&g.workers, "workers", env.Workers, "pages parsed in parallel")

	root.AddCommand(
		newBuildCmd(g),
		newOutlineCmd(g),
		newCheckCmd(g),
		newServeCmd(g),
	)
	return root
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

// printer returns a printer for the --format flag writing to w.
func (g *globals) printer(w io.Writer) (*output.Printer, error) {
	format, err := output.ParseFormat(g.format)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(format, w), nil
}

// loadSite loads the site file and applies the --docs override.
func (g *globals) loadSite() (*config.Site, error) {
	site, err := config.LoadSite(g.siteFile)
	if err != nil {
		return nil, err
	}
	if g.docsRoot != "" {
		site.DocsRoot = g.docsRoot
	}
	if _, err := os.Stat(site.DocsRoot); err != nil {
		return nil, fmt.Errorf("docs root: %w", err)
	}
	return site, nil
}
