package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pokedexsocial/pokedex/pkg/catalog"
	"github.com/pokedexsocial/pokedex/pkg/data"
)

var (
	searchFilters filterFlags
	searchPages   int
	searchAll     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for Pokémon",
	Long: `Search the catalog by name and facets and display results in a table.

Examples:
  pokedex search char
  pokedex search --type fire --type flying
  pokedex search --weight heavy --from 1 --to 151 --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := strings.Join(args, " ")

		session, err := controller.NewSession(ctx)
		if err != nil {
			return err
		}
		if err := searchFilters.apply(session, query); err != nil {
			return err
		}
		if err := session.Apply(ctx); err != nil {
			return errors.Wrap(err, "search failed")
		}

		for page := 1; session.HasMore() && (searchAll || page < searchPages); page++ {
			if err := session.LoadMore(ctx); err != nil {
				return errors.Wrap(err, "loading more results")
			}
		}

		state := session.State()
		if len(state.Items) == 0 {
			fmt.Println("No Pokémon match these filters.")
			return nil
		}

		fmt.Println(entryTable(state.Items))
		fmt.Printf("\n%d shown, page %d of %d • %s\n",
			len(state.Items),
			state.CurrentPage+1,
			state.TotalPages,
			session.Controller().Applied().Describe(session.Catalog()))
		if state.HasMore() {
			fmt.Println("Use --pages or --all to load more.")
		}
		return nil
	},
}

func entryTable(entries []data.CatalogEntry) *table.Table {
	var (
		red = lipgloss.Color("#EE1515")

		headerStyle = lipgloss.NewStyle().Foreground(red).Bold(true).Align(lipgloss.Center)
		cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	)

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(red)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			default:
				return cellStyle
			}
		}).
		Headers("N°", "Name", "Types", "Class", "ID")

	for _, e := range entries {
		types := make([]string, len(e.Types))
		for i, ty := range e.Types {
			types[i] = ty.Name
		}
		t.Row(
			fmt.Sprintf("%04d", e.Ndex),
			truncateString(e.Name(), 40),
			strings.Join(types, "/"),
			truncateString(e.Class, 30),
			fmt.Sprintf("%d", e.ID),
		)
	}
	return t
}

func init() {
	searchFilters.register(searchCmd.Flags())
	searchCmd.Flags().IntVarP(&searchPages, "pages", "p", 1, fmt.Sprintf("number of %d-entry pages to load", catalog.PageSize))
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "load every page")
	rootCmd.AddCommand(searchCmd)
}
