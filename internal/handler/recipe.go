package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/grocery-tracker/internal/recipe"
)

// RecipeFinder is satisfied by *recipe.Client.
type RecipeFinder interface {
	FindByIngredients(ctx context.Context, ingredients string) (*recipe.Response, error)
}

// RecipeHandler proxies recipe searches.
type RecipeHandler struct {
	finder RecipeFinder
	logger *slog.Logger
}

func NewRecipeHandler(finder RecipeFinder, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{finder: finder, logger: logger}
}

// HandleGetRecipes relays Spoonacular's answer unchanged.
//
// HTTP: GET /get_recipes?ingredients=eggs,rice
func (h *RecipeHandler) HandleGetRecipes(w http.ResponseWriter, r *http.Request) {
	ingredients := strings.TrimSpace(r.URL.Query().Get("ingredients"))

	resp, err := h.finder.FindByIngredients(r.Context(), ingredients)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if resp.StatusCode >= 400 {
		h.logger.Warn("recipe upstream returned an error", slog.Int("status", resp.StatusCode))
	}

	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		h.logger.Warn("writing recipe response", slog.String("error", err.Error()))
	}
}
