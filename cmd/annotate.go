package cmd

import (
	"fmt"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/linkmark/linkmark/filter"
	"github.com/linkmark/linkmark/pkg/annotate"
)

var (
	annotateOutput string
	annotateBase   string
	annotateFilter string
)

var annotateCmd = &cobra.Command{
	Use:     "annotate <file.html>",
	Short:   "Annotate visited links in an HTML document",
	Long:    `Mark every link in a document whose target URL is in the visit store.`,
	GroupID: "document",
	Example: `  linkmark annotate page.html -o marked.html
  linkmark annotate page.html --base https://example.com/
  linkmark annotate page.html --exclude 'host == "tracker.test"'`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	annotateCmd.Flags().StringVarP(&annotateOutput, "output", "o", "", "Output file (default stdout)")
	annotateCmd.Flags().StringVar(&annotateBase, "base", "", "Base URL for resolving relative links")
	annotateCmd.Flags().StringVar(&annotateFilter, "exclude", "", "Filter expression; matching URLs are not annotated")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	cfg, st := openStore()
	defer st.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}

	exclExpr := cfg.LinkFilter
	if annotateFilter != "" {
		exclExpr = annotateFilter
	}
	var exclude func(string) bool
	if exclExpr != "" {
		exclude, err = filter.Compile(exclExpr)
		if err != nil {
			return err
		}
	}

	sess, err := annotate.NewSession(st, doc, annotate.SessionConfig{
		BaseURL:     annotateBase,
		MarkerClass: cfg.MarkerClass,
		Exclude:     exclude,
	})
	if err != nil {
		return err
	}
	sess.AnnotateOnce(cmd.Context())

	html, err := doc.Html()
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}

	if annotateOutput == "" {
		fmt.Print(html)
		return nil
	}
	return os.WriteFile(annotateOutput, []byte(html), 0644)
}
