package main

import (
	cmd "github.com/pokedexsocial/pokedex/cmd/pokedex"
)

func main() {
	cmd.Execute()
}
