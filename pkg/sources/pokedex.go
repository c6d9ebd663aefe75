package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
	"github.com/pokedexsocial/pokedex/pkg/data"
	"github.com/pokedexsocial/pokedex/pkg/utils"
)

const DefaultBaseURL = "http://localhost:8080"

// PokedexAPI talks to the PokedexSocial backend. Catalog bootstrap
// requests go through catalogAPI, which may retry; page requests never do.
type PokedexAPI struct {
	api        *utils.API
	catalogAPI *utils.API
}

// NewPokedexAPI builds a client. If catalogAPI is nil, api serves every
// request.
func NewPokedexAPI(api, catalogAPI *utils.API) *PokedexAPI {
	if catalogAPI == nil {
		catalogAPI = api
	}
	return &PokedexAPI{api: api, catalogAPI: catalogAPI}
}

func NewPokedex(baseURL string) *PokedexAPI {
	return NewPokedexAPI(utils.NewAPI(baseURL), nil)
}

func (p *PokedexAPI) Filters(ctx context.Context) (*data.FilterCatalog, error) {
	var catalog data.FilterCatalog
	if err := p.catalogAPI.Get(ctx, "/pokemon/filters", nil, &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (p *PokedexAPI) Search(ctx context.Context, query url.Values) (*data.ResultPage, error) {
	var page data.ResultPage
	if err := p.api.Get(ctx, "/pokemon", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (p *PokedexAPI) Pokemon(ctx context.Context, id int) (*data.PokemonDetails, error) {
	if id < 1 {
		return nil, errors.Errorf("invalid pokemon id %d", id)
	}
	var details data.PokemonDetails
	if err := p.api.Get(ctx, fmt.Sprintf("/pokemon/%d", id), nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (p *PokedexAPI) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	var resp AuthResponse
	if err := p.api.Post(ctx, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("login response carried no token")
	}
	return &resp, nil
}
