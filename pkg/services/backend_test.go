package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/pokedexsocial/pokedex/pkg/data"
)

// fakeBackend serves the catalog service's HTTP contract from memory
type fakeBackend struct {
	t       *testing.T
	server  *httptest.Server
	catalog data.FilterCatalog
	entries []data.CatalogEntry

	mu          sync.Mutex
	filterCalls int
	searches    []string
	spriteCalls int
	authHeaders []string
}

func newFakeBackend(t *testing.T, count int) *fakeBackend {
	t.Helper()

	b := &fakeBackend{
		t: t,
		catalog: data.FilterCatalog{
			Types:       []data.FilterOption{{ID: 7, Name: "Grass"}, {ID: 10, Name: "Fire"}},
			Abilities:   []data.FilterOption{{ID: 65, Name: "Overgrow"}},
			NdexRange:   data.IntRange{Min: 1, Max: count},
			WeightRange: data.FloatRange{Min: 0.1, Max: 999.9},
			HeightRange: data.FloatRange{Min: 0.1, Max: 20},
		},
	}
	for i := 1; i <= count; i++ {
		b.entries = append(b.entries, data.CatalogEntry{
			ID:       i,
			Ndex:     i,
			Species:  fmt.Sprintf("Species %d", i),
			Types:    []data.FilterOption{{ID: 7, Name: "Grass"}},
			ImageURL: fmt.Sprintf("/sprites/%d.png", i),
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /pokemon/filters", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.filterCalls++
		b.mu.Unlock()
		b.writeJSON(w, b.catalog)
	})
	mux.HandleFunc("GET /pokemon", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.searches = append(b.searches, r.URL.RawQuery)
		b.authHeaders = append(b.authHeaders, r.Header.Get("Authorization"))
		b.mu.Unlock()

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		if size <= 0 {
			size = 12
		}
		from := page * size
		to := min(from+size, len(b.entries))
		items := []data.CatalogEntry{}
		if from < len(b.entries) {
			items = b.entries[from:to]
		}
		totalPages := (len(b.entries) + size - 1) / size
		b.writeJSON(w, data.ResultPage{
			Items:      items,
			Page:       page,
			PageSize:   size,
			TotalItems: int64(len(b.entries)),
			TotalPages: totalPages,
			Last:       page >= totalPages-1,
		})
	})
	mux.HandleFunc("GET /pokemon/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || id < 1 || id > len(b.entries) {
			http.NotFound(w, r)
			return
		}
		e := b.entries[id-1]
		b.writeJSON(w, data.PokemonDetails{ID: e.ID, Ndex: e.Ndex, Species: e.Species, HP: 45, Weight: 6.9, Height: 0.7})
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "pikachu" {
			http.Error(w, `{"message":"bad credentials"}`, http.StatusUnauthorized)
			return
		}
		b.writeJSON(w, map[string]any{"token": "jwt-" + body.Email, "tokenType": "Bearer", "userId": 9, "username": "ash"})
	})
	mux.HandleFunc("GET /sprites/{file}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.spriteCalls++
		b.mu.Unlock()
		if r.PathValue("file") == "13.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(spritePNG(t))
	})

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) URL() string { return b.server.URL }

func (b *fakeBackend) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		b.t.Errorf("encoding response: %v", err)
	}
}

func spritePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < 8; i++ {
		img.Set(i, i, color.NRGBA{G: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding sprite: %v", err)
	}
	return buf.Bytes()
}
