package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dgallion1/docnav/internal/lint"
	"github.com/dgallion1/docnav/internal/pipeline"
	"github.com/spf13/cobra"
)

// errLintFailed is returned when at least one error finding was reported.
var errLintFailed = errors.New("lint found errors")

func newCheckCmd(g *globals) *cobra.Command {
	var text bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Lint the headings of every configured markdown page",
		Long: `Lint the headings of every configured markdown page.

Reports headings the sidebar picks up that do not render as headings (for
example "# comment" lines inside code fences), rendered headings the sidebar
misses, and duplicate or empty anchors. Exits non-zero on any error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := g.loadSite()
			if err != nil {
				return err
			}
			if site.SourceExt != ".md" && site.SourceExt != ".markdown" {
				return fmt.Errorf("check only supports markdown sources, site uses %s", site.SourceExt)
			}

			docs := os.DirFS(site.DocsRoot)
			seen := make(map[string]bool)
			var reports []lint.Report
			errCount := 0
			for _, name := range site.LocaleNames() {
				for _, group := range site.Locales[name].Sidebar {
					for _, page := range group.Pages {
						if seen[page] {
							continue
						}
						seen[page] = true

						src, err := fs.ReadFile(docs, page+site.SourceExt)
						if errors.Is(err, fs.ErrNotExist) {
							return fmt.Errorf("%w: %s", pipeline.ErrPageNotFound, page)
						}
						if err != nil {
							return fmt.Errorf("read page %s: %w", page, err)
						}

						report := lint.Check(src, "/"+page)
						for _, f := range report.Findings {
							if f.Severity == lint.SeverityError {
								errCount++
							}
						}
						reports = append(reports, report)
					}
				}
			}

			if text {
				out := cmd.OutOrStdout()
				for _, r := range reports {
					for _, f := range r.Findings {
						fmt.Fprintf(out, "%s%s:%d: %s %s: %s\n", strings.TrimPrefix(r.DocumentID, "/"), site.SourceExt, f.Line, f.Severity, f.Rule, f.Message)
					}
				}
			} else {
				p, err := g.printer(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if err := p.Print(reports); err != nil {
					return err
				}
			}

			g.log.Info("check complete", "pages", len(reports), "errors", errCount)
			if errCount > 0 {
				return fmt.Errorf("%w: %d", errLintFailed, errCount)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&text, "text", false, "print findings as file:line lines instead of --format")
	return cmd
}
