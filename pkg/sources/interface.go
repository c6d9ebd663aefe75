package sources

import (
	"context"
	"net/url"

	"github.com/pokedexsocial/pokedex/pkg/data"
)

// Source is the catalog backend as seen by the client
type Source interface {
	Filters(ctx context.Context) (*data.FilterCatalog, error)
	Search(ctx context.Context, query url.Values) (*data.ResultPage, error)
	Pokemon(ctx context.Context, id int) (*data.PokemonDetails, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
}

type AuthResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	UserID    int    `json:"userId"`
	Username  string `json:"username"`
}
