package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docnav/internal/parser"
	"github.com/spf13/cobra"
)

func newOutlineCmd(g *globals) *cobra.Command {
	var docID string

	cmd := &cobra.Command{
		Use:   "outline FILE",
		Short: "Print the heading tree of a single document",
		Long: `Print the heading tree of a single markdown or HTML document.

Links are prefixed with --id, which defaults to the file path without its
extension, e.g. guide/intro.md -> /guide/intro.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			p, err := parser.ForFile(file)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			if docID == "" {
				docID = defaultDocID(file)
			}
			node, err := p.Parse(f, docID)
			if err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}
			if node == nil {
				g.log.Warn("document has no headings", "file", file)
			}

			pr, err := g.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return pr.Print(node)
		},
	}

	cmd.Flags().StringVar(&docID, "id", "", "document id used as link prefix")
	return cmd
}

func defaultDocID(file string) string {
	p := filepath.ToSlash(filepath.Clean(file))
	p = strings.TrimSuffix(p, filepath.Ext(p))
	return "/" + strings.TrimPrefix(p, "/")
}
