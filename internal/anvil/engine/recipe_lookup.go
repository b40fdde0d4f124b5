package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

const (
	defaultSearchLimit = 10
	maxSuggestions     = 3
)

// RecipeLookup executes the recipe_lookup tool logic.
func (e *Engine) RecipeLookup(ctx context.Context, req anvil.RecipeLookupRequest) (*anvil.RecipeLookupResponse, error) {
	if req.RecipeID == "" && req.Search == "" {
		return nil, fmt.Errorf("%w: recipe_id or search is required", ErrInvalidRequest)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	resp := &anvil.RecipeLookupResponse{}

	// If search term provided, search first
	if req.Search != "" {
		hits, err := e.recipes.SearchRecipes(ctx, req.Search, limit)
		if err != nil {
			return nil, err
		}
		resp.SearchResults = hits

		// If exactly one result and no recipe_id provided, use it
		if len(hits) == 1 && req.RecipeID == "" {
			req.RecipeID = hits[0].RecipeID
		}
	}

	if req.RecipeID == "" {
		if len(resp.SearchResults) == 0 {
			suggestions, err := e.suggestRecipes(ctx, req.Search)
			if err != nil {
				return nil, err
			}
			resp.Suggestions = suggestions
		}
		return resp, nil
	}

	recipe, err := e.recipes.GetRecipe(ctx, req.RecipeID)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		suggestions, err := e.suggestRecipes(ctx, req.RecipeID)
		if err != nil {
			return nil, err
		}
		resp.Suggestions = suggestions
		return resp, nil
	}
	resp.Recipe = recipe

	return resp, nil
}

// suggestRecipes returns IDs of stored recipes whose name or ID is a close
// misspelling of term.
func (e *Engine) suggestRecipes(ctx context.Context, term string) ([]string, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil, nil
	}

	recipes, err := e.recipes.GetAllRecipes(ctx)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		id   string
		dist int
	}
	maxDist := max(2, len(needle)/3)
	var cands []candidate
	for _, r := range recipes {
		dist := min(
			levenshtein.ComputeDistance(needle, strings.ToLower(r.Name)),
			levenshtein.ComputeDistance(needle, strings.ToLower(r.ID)),
		)
		if dist <= maxDist {
			cands = append(cands, candidate{id: r.ID, dist: dist})
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist == cands[j].dist {
			return cands[i].id < cands[j].id
		}
		return cands[i].dist < cands[j].dist
	})
	if len(cands) > maxSuggestions {
		cands = cands[:maxSuggestions]
	}

	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.id)
	}
	return out, nil
}
