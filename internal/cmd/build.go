package cmd

import (
	"fmt"
	"os"

	"github.com/dgallion1/docnav/internal/pipeline"
	"github.com/spf13/cobra"
)

func newBuildCmd(g *globals) *cobra.Command {
	var (
		locale  string
		outFile string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the sidebars of every locale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := g.loadSite()
			if err != nil {
				return err
			}

			g.log.Debug("site loaded", "docs_root", site.DocsRoot, "locales", len(site.Locales), "pages", site.PageCount())
			res, err := pipeline.NewBuilder(os.DirFS(site.DocsRoot), site, g.workers, g.log).Build(cmd.Context())
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				g.log.Warn(w)
			}

			var data any = res.Sidebars
			if locale != "" {
				sb, ok := res.Sidebar(locale)
				if !ok {
					return fmt.Errorf("unknown locale %q (have %v)", locale, site.LocaleNames())
				}
				data = sb
			}

			if outFile == "" {
				p, err := g.printer(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				return p.Print(data)
			}
			return writeOutFile(g, outFile, data)
		},
	}

	cmd.Flags().StringVarP(&locale, "locale", "l", "", "only print this locale")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write to file instead of stdout")
	return cmd
}

// writeOutFile prints data to path, returning any close error.
func writeOutFile(g *globals, path string, data any) error {
	p, err := g.printer(nil)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	p.Writer = f
	if err := p.Print(data); err != nil {
		f.Close()
		return fmt.Errorf("write output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}
