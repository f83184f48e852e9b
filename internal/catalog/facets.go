package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/merchkit/vendure-sync/internal/bigcartel"
)

const sizeFacetCode = "size"

// sizeFacetSeed is the fixed vocabulary created when no size facet exists
// yet. Order matters for display in the admin UI.
var sizeFacetSeed = []struct {
	Code string
	Name string
}{
	{"small", "Small"},
	{"medium", "Medium"},
	{"large", "Large"},
	{"x-large", "X Large"},
	{"xx-large", "XX Large"},
	{"xxx-large", "XXX Large"},
	{"xxxx-large", "XXXX Large"},
}

const findFacetQuery = `
query FindFacet($code: String!) {
  facets(options: { filter: { code: { eq: $code } } }) {
    items {
      id
      code
      values {
        id
        name
        code
      }
    }
  }
}`

const createFacetMutation = `
mutation CreateFacet($input: CreateFacetInput!) {
  createFacet(input: $input) {
    id
    name
    code
  }
}`

const getFacetQuery = `
query GetFacet($id: ID!) {
  facet(id: $id) {
    id
    values {
      id
      name
      code
    }
  }
}`

type facetValue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// EnsureSizeFacet resolves or creates the size facet and builds the
// normalized value lookup table. Safe to call repeatedly: it short-circuits
// once the facet is resolved. Facets are the only entities reused across
// runs, so an existing facet is adopted rather than recreated.
func (im *Importer) EnsureSizeFacet(ctx context.Context) error {
	if im.sizeFacetID != "" {
		return nil
	}

	var found struct {
		Facets struct {
			Items []struct {
				ID     string       `json:"id"`
				Code   string       `json:"code"`
				Values []facetValue `json:"values"`
			} `json:"items"`
		} `json:"facets"`
	}
	err := im.client.Execute(ctx, findFacetQuery, map[string]any{"code": sizeFacetCode}, &found)
	if err != nil {
		return fmt.Errorf("look up size facet: %w", err)
	}

	if len(found.Facets.Items) > 0 {
		im.sizeFacetID = found.Facets.Items[0].ID
		slog.Info("found existing size facet", "phase", "facet", "id", im.sizeFacetID)
	} else {
		values := make([]map[string]any, 0, len(sizeFacetSeed))
		for _, seed := range sizeFacetSeed {
			values = append(values, map[string]any{
				"code":         seed.Code,
				"translations": []translation{{LanguageCode: "en", Name: seed.Name}},
			})
		}

		var created struct {
			CreateFacet struct {
				ID   string `json:"id"`
				Name string `json:"name"`
				Code string `json:"code"`
			} `json:"createFacet"`
		}
		err := im.client.Execute(ctx, createFacetMutation, map[string]any{
			"input": map[string]any{
				"code":         sizeFacetCode,
				"isPrivate":    false,
				"translations": []translation{{LanguageCode: "en", Name: "Size"}},
				"values":       values,
			},
		}, &created)
		if err != nil {
			return fmt.Errorf("create size facet: %w", err)
		}

		im.sizeFacetID = created.CreateFacet.ID
		slog.Info("created size facet", "phase", "facet", "id", im.sizeFacetID)
	}

	// Re-fetch values even right after creation; the create response is not
	// trusted to carry value IDs.
	var facet struct {
		Facet struct {
			ID     string       `json:"id"`
			Values []facetValue `json:"values"`
		} `json:"facet"`
	}
	err = im.client.Execute(ctx, getFacetQuery, map[string]any{"id": im.sizeFacetID}, &facet)
	if err != nil {
		return fmt.Errorf("fetch size facet values: %w", err)
	}

	for _, value := range facet.Facet.Values {
		// Two keys per value so "X Large", "x-large", and "XLarge" all hit
		// the same ID.
		im.sizeValues[normalizeSizeName(value.Name)] = value.ID
		im.sizeValues[strings.ToLower(value.Code)] = value.ID
	}

	slog.Info("mapped size facet values", "phase", "facet", "count", len(im.sizeValues))
	return nil
}

// sizeFacetValueIDs resolves facet value IDs from the product's option
// groups named "Size" (case-insensitive). Unmatched size names are logged
// and excluded, never fatal.
func (im *Importer) sizeFacetValueIDs(product bigcartel.Product) []string {
	var ids []string
	for _, group := range product.OptionGroups {
		if !strings.EqualFold(group.Name, "Size") {
			continue
		}
		for _, value := range group.Values {
			normalized := normalizeSizeName(value.Name)
			id, ok := im.sizeValues[normalized]
			if !ok {
				slog.Warn("no facet value for size",
					"phase", "facet",
					"size", value.Name,
					"normalized", normalized,
				)
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids
}

var whitespaceRE = regexp.MustCompile(`\s+`)

func normalizeSizeName(name string) string {
	return whitespaceRE.ReplaceAllString(strings.ToLower(name), "")
}
