package cmd

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pokedexsocial/pokedex/pkg/services"
)

var (
	exportFilters filterFlags
	exportTitle   string
	exportLimit   int
	exportOutput  string
)

var exportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export a filtered list as an EPUB field guide",
	Long: `Walk every page of a search and write the entries, with their artwork,
into an EPUB field guide.

Examples:
  pokedex export --type dragon --title "Dragons"
  pokedex export --from 1 --to 151 --limit 151 -o ~/Books`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := strings.Join(args, " ")

		session, err := controller.NewSession(ctx)
		if err != nil {
			return err
		}
		if err := exportFilters.apply(session, query); err != nil {
			return err
		}
		if err := session.Apply(ctx); err != nil {
			return errors.Wrap(err, "search failed")
		}

		exporter := controller.Exporter()
		if exportOutput != "" {
			cfg := controller.Config()
			exporter = services.NewExporter(services.ExporterOptions{
				BaseURL:     cfg.APIURL,
				OutputDir:   exportOutput,
				Concurrency: cfg.ExportConcurrency,
				Rate:        cfg.ExportRate,
				Logger:      logger.Named("export"),
			})
			defer exporter.Close()
		}

		title := exportTitle
		if title == "" {
			title = "Pokédex Field Guide"
		}
		fmt.Printf("Exporting %s\n", session.Controller().Applied().Describe(session.Catalog()))

		// Listen for progress
		done := make(chan struct{})
		stop := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case progress, ok := <-exporter.GetProgressChannel():
					if !ok {
						return
					}
					printProgress(progress)
				case <-stop:
					for {
						select {
						case progress, ok := <-exporter.GetProgressChannel():
							if !ok {
								return
							}
							printProgress(progress)
						default:
							return
						}
					}
				}
			}
		}()

		path, err := exporter.ExportSession(ctx, session, title, exportLimit)
		close(stop)
		<-done
		if err != nil {
			return errors.Wrap(err, "export failed")
		}

		fmt.Printf("\nField guide created: %s\n", path)
		return nil
	},
}

func printProgress(progress services.ExportProgress) {
	switch progress.Status {
	case "skipped":
		fmt.Printf("  N°%04d %s: no artwork (%v)\n", progress.Ndex, progress.Name, progress.Error)
	case "downloading":
		fmt.Printf("  %d/%d %s\n", progress.Current, progress.Total, progress.Name)
	case "building":
		fmt.Println("Building EPUB...")
	}
}

func init() {
	exportFilters.register(exportCmd.Flags())
	exportCmd.Flags().StringVar(&exportTitle, "title", "", "book title")
	exportCmd.Flags().IntVarP(&exportLimit, "limit", "n", 0, "export at most this many entries (0 for all)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output directory (default from export.dir)")
	rootCmd.AddCommand(exportCmd)
}
