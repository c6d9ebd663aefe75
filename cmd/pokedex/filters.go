package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pokedexsocial/pokedex/pkg/catalog"
	"github.com/pokedexsocial/pokedex/pkg/data"
)

// filterFlags are the facet flags shared by search and export
type filterFlags struct {
	types    []string
	ability  string
	weight   string
	height   string
	ndexFrom int
	ndexTo   int
}

func (f *filterFlags) register(flags *pflag.FlagSet) {
	flags.StringSliceVarP(&f.types, "type", "t", nil, "type name or id, repeat for a second type")
	flags.StringVarP(&f.ability, "ability", "a", "", "ability name or id")
	flags.StringVar(&f.weight, "weight", "", "light, medium or heavy")
	flags.StringVar(&f.height, "height", "", "short, medium or tall")
	flags.IntVar(&f.ndexFrom, "from", 0, "lowest national dex number")
	flags.IntVar(&f.ndexTo, "to", 0, "highest national dex number")
}

// apply turns the flags into draft mutations. Unknown names and more
// types than the draft accepts are reported instead of being dropped.
func (f *filterFlags) apply(s *catalog.Session, query string) error {
	c := s.Catalog()
	s.Mutate(catalog.SetQuery{Query: query})

	if len(f.types) > catalog.MaxSelectedTypes {
		return errors.Errorf("at most %d types can be selected, got %d", catalog.MaxSelectedTypes, len(f.types))
	}
	ids := make([]int, 0, len(f.types))
	for _, name := range f.types {
		id, err := resolveOption(c.Types, name)
		if err != nil {
			return errors.Wrap(err, "--type")
		}
		ids = append(ids, id)
	}
	s.Mutate(catalog.SetTypes{IDs: ids})

	if f.ability != "" {
		id, err := resolveOption(c.Abilities, f.ability)
		if err != nil {
			return errors.Wrap(err, "--ability")
		}
		s.Mutate(catalog.SetAbility{ID: id})
	}

	weight, err := catalog.ParseBucket(f.weight)
	if err != nil {
		return errors.Wrap(err, "--weight")
	}
	s.Mutate(catalog.SetWeightBucket{Bucket: weight})

	height, err := catalog.ParseBucket(f.height)
	if err != nil {
		return errors.Wrap(err, "--height")
	}
	s.Mutate(catalog.SetHeightBucket{Bucket: height})

	if f.ndexFrom != 0 || f.ndexTo != 0 {
		r := s.Draft().NdexRange()
		if f.ndexFrom != 0 {
			r.Min = f.ndexFrom
		}
		if f.ndexTo != 0 {
			r.Max = f.ndexTo
		}
		s.Mutate(catalog.SetNdexRange{Range: r})
	}
	return nil
}

// resolveOption accepts an option id or a case-insensitive name
func resolveOption(options []data.FilterOption, value string) (int, error) {
	value = strings.TrimSpace(value)
	if id, err := strconv.Atoi(value); err == nil {
		for _, o := range options {
			if o.ID == id {
				return id, nil
			}
		}
		return 0, errors.Errorf("unknown id %d", id)
	}
	for _, o := range options {
		if strings.EqualFold(o.Name, value) {
			return o.ID, nil
		}
	}
	return 0, errors.Errorf("unknown value %q", value)
}

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Show the filter catalog",
	Long:  "Display the selectable types and abilities and the global dex, weight and height ranges",
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")

		c, err := controller.Filters(cmd.Context(), refresh)
		if err != nil {
			return errors.Wrap(err, "loading filter catalog")
		}

		fmt.Printf("\nTypes (%d)\n\n", len(c.Types))
		fmt.Println(optionTable(c.Types).View())

		fmt.Printf("\nAbilities (%d)\n\n", len(c.Abilities))
		fmt.Println(optionTable(c.Abilities).View())

		fmt.Println()
		fmt.Printf("National dex: %d - %d\n", c.NdexRange.Min, c.NdexRange.Max)
		fmt.Printf("Weight:       %g - %g kg\n", c.WeightRange.Min, c.WeightRange.Max)
		fmt.Printf("Height:       %g - %g m\n", c.HeightRange.Min, c.HeightRange.Max)
		return nil
	},
}

func optionTable(options []data.FilterOption) table.Model {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Name", Width: 30},
	}

	rows := make([]table.Row, 0, len(options))
	for _, o := range options {
		rows = append(rows, table.Row{strconv.Itoa(o.ID), truncateString(o.Name, 28)})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)
	return t
}

func truncateString(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func init() {
	filtersCmd.Flags().Bool("refresh", false, "bypass the local catalog cache")
	rootCmd.AddCommand(filtersCmd)
}
