package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sydlexius/colophon/internal/source"
)

func newResolveCmd(configPath *string) *cobra.Command {
	var (
		title    string
		fileName string
		snippet  string
		isbn     string
		doi      string
		queries  []string
		disable  []string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a bibliographic hint against all enabled sources",
		Example: `  # Resolve by title
  colophon resolve --title "Clean Code"

  # Resolve by ISBN, JSON output
  colophon resolve --isbn 9780132350884 --json

  # Skip the web-search source for this run
  colophon resolve --title "Fortress Besieged" --disable duckduckgo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer closeLog() //nolint:errcheck

			hint := source.Hint{
				ExtractedTitle:  title,
				FileNameTitle:   fileName,
				Snippet:         snippet,
				ISBN:            isbn,
				DOI:             doi,
				QueryCandidates: queries,
			}
			if len(hint.Queries()) == 0 {
				return fmt.Errorf("nothing to resolve: provide --title, --file-name, --isbn, or --query")
			}

			opts := cfg.Sources.Options()
			for _, name := range disable {
				switch source.Name(strings.ToLower(strings.TrimSpace(name))) {
				case source.NameOpenLibrary:
					opts.OpenLibrary = false
				case source.NameGoogleBooks:
					opts.GoogleBooks = false
				case source.NameWebSearch:
					opts.WebSearch = false
				case source.NameLoC:
					opts.LibraryOfCongress = false
				default:
					return fmt.Errorf("unknown source %q", name)
				}
			}

			resolver, _ := buildResolver(cfg, logger)
			candidates := resolver.Resolve(cmd.Context(), hint, opts)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(candidates)
			}

			printCandidates(cmd, candidates)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "best-guess title extracted from the document")
	cmd.Flags().StringVar(&fileName, "file-name", "", "title guess derived from the file name")
	cmd.Flags().StringVar(&snippet, "snippet", "", "short content excerpt for soft matching")
	cmd.Flags().StringVar(&isbn, "isbn", "", "ISBN, any format")
	cmd.Flags().StringVar(&doi, "doi", "", "DOI, with or without doi.org prefix")
	cmd.Flags().StringArrayVar(&queries, "query", nil, "pre-built query string (repeatable)")
	cmd.Flags().StringSliceVar(&disable, "disable", nil, "source to skip for this run (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit candidates as JSON")
	return cmd
}

func printCandidates(cmd *cobra.Command, candidates []source.Candidate) {
	out := cmd.OutOrStdout()
	if len(candidates) == 0 {
		fmt.Fprintln(out, "no candidates found; consider refining the hint")
		return
	}

	for i, c := range candidates {
		fmt.Fprintf(out, "%2d. [%2d] %s\n", i+1, c.Confidence, c.PrimaryTitle())
		if len(c.Authors) > 0 {
			fmt.Fprintf(out, "      authors:   %s\n", strings.Join(c.Authors, "; "))
		}
		if c.Publisher != "" || c.PublishedYear != "" {
			fmt.Fprintf(out, "      published: %s %s\n", c.Publisher, c.PublishedYear)
		}
		if c.ISBN != "" {
			fmt.Fprintf(out, "      isbn:      %s\n", c.ISBN)
		}
		if c.DOI != "" {
			fmt.Fprintf(out, "      doi:       %s\n", c.DOI)
		}
		fmt.Fprintf(out, "      kind: %-8s sources: %s\n", c.Kind, c.Source)
	}
}
