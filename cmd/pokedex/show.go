package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pokedexsocial/pokedex/pkg/app/components"
	"github.com/pokedexsocial/pokedex/pkg/app/styles"
	"github.com/pokedexsocial/pokedex/pkg/data"
)

var showCmd = &cobra.Command{
	Use:   "show [pokemon-id]",
	Short: "Show one Pokémon",
	Long:  "Display the dex entry, abilities and base stats of a Pokémon by its catalog id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id < 1 {
			return errors.Errorf("invalid pokemon id %q", args[0])
		}

		p, err := controller.Pokemon(cmd.Context(), id)
		if err != nil {
			return errors.Wrapf(err, "loading pokemon %d", id)
		}

		printDetails(p)
		return nil
	},
}

func printDetails(p *data.PokemonDetails) {
	e := p.Entry()
	types := make([]string, len(e.Types))
	for i, t := range e.Types {
		types[i] = styles.TypeTag(t.Name)
	}

	fmt.Println(styles.TitleStyle.Render(fmt.Sprintf("%s %s", e.DisplayNumber(), e.Name())))
	fmt.Println(strings.Join(types, " "))
	if p.Class != "" {
		fmt.Println(styles.SubtitleStyle.Render(p.Class))
	}
	for _, text := range []string{p.Dex1, p.Dex2} {
		if text != "" {
			fmt.Println(text)
		}
	}
	fmt.Println()

	var abilities []string
	for _, a := range []*data.FilterOption{p.Ability1, p.Ability2} {
		if a != nil {
			abilities = append(abilities, a.Name)
		}
	}
	if p.HiddenAbility != nil {
		abilities = append(abilities, p.HiddenAbility.Name+" (hidden)")
	}
	if len(abilities) > 0 {
		fmt.Printf("Abilities: %s\n", strings.Join(abilities, ", "))
	}
	fmt.Printf("Height: %gm  Weight: %gkg\n\n", p.Height, p.Weight)

	stats := []struct {
		label string
		value int
	}{
		{"HP", p.HP}, {"Attack", p.Attack}, {"Defense", p.Defense},
		{"Sp. Atk", p.SpAttack}, {"Sp. Def", p.SpDefense}, {"Speed", p.Speed},
	}
	for _, s := range stats {
		fmt.Printf("%-8s %3d %s\n", s.label, s.value, components.SimpleProgress(s.value, 255, 30))
	}
	fmt.Printf("%-8s %3d\n", "Total", p.Total)
}

func init() {
	rootCmd.AddCommand(showCmd)
}
