// Package catalog re-creates a BigCartel export inside a Vendure backend:
// reset, facet provisioning, then dependency-ordered product import. All
// state (reference caches, pacing) is scoped to one Importer instance so a
// run is reentrant and testable with fresh caches.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/merchkit/vendure-sync/internal/bigcartel"
	"github.com/merchkit/vendure-sync/internal/config"
	"github.com/merchkit/vendure-sync/internal/vendure"
)

type Importer struct {
	client    *vendure.Client
	downloads *http.Client

	defaultStock int
	listPageSize int

	deletePace  *rate.Limiter
	assetPace   *rate.Limiter
	productPace *rate.Limiter

	// Run-scoped reference caches. Collections are created at most once per
	// bucket name; size facet values are resolved once per run.
	collections map[string]string
	sizeFacetID string
	sizeValues  map[string]string
}

func New(client *vendure.Client, cfg *config.Config) *Importer {
	return &Importer{
		client: client,
		downloads: &http.Client{
			Timeout: 60 * time.Second,
		},
		defaultStock: cfg.Import.DefaultStock,
		listPageSize: cfg.Import.ListPageSize,
		deletePace:   newPacer(cfg.Import.DeleteDelay),
		assetPace:    newPacer(cfg.Import.AssetDelay),
		productPace:  newPacer(cfg.Import.ProductDelay),
		collections:  make(map[string]string),
		sizeValues:   make(map[string]string),
	}
}

// newPacer turns a static courtesy delay into a token bucket with the same
// effective interval. A zero interval disables pacing (used by tests).
func newPacer(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

type Summary struct {
	Succeeded int
	Failed    int
}

// Run executes one full synchronization: destructive reset, size facet
// provisioning, then the paced per-product import loop. Reset and facet
// failures are fatal; a single product failure is counted and the loop
// continues.
func (im *Importer) Run(ctx context.Context, products []bigcartel.Product) (Summary, error) {
	if err := im.ClearAll(ctx); err != nil {
		return Summary{}, fmt.Errorf("clear existing data: %w", err)
	}
	if err := im.EnsureSizeFacet(ctx); err != nil {
		return Summary{}, fmt.Errorf("provision size facet: %w", err)
	}

	var summary Summary
	for i, product := range products {
		slog.Info("processing product",
			"phase", "import",
			"index", i+1,
			"total", len(products),
			"name", product.Name,
		)

		if _, err := im.ImportProduct(ctx, product); err != nil {
			slog.Error("failed to import product", "phase", "import", "name", product.Name, "error", err)
			summary.Failed++
			continue
		}
		summary.Succeeded++

		if err := im.productPace.Wait(ctx); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

const createCollectionMutation = `
mutation CreateCollection($input: CreateCollectionInput!) {
  createCollection(input: $input) {
    id
    name
    slug
  }
}`

// getOrCreateCollection returns the cached collection ID for a bucket name,
// creating it on first use. No backend lookup-by-name happens here: the
// reset pass guarantees a clean slate, so the cache alone prevents
// duplicates within a run.
func (im *Importer) getOrCreateCollection(ctx context.Context, name string) (string, error) {
	if id, ok := im.collections[name]; ok {
		return id, nil
	}

	var out struct {
		CreateCollection struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"createCollection"`
	}
	err := im.client.Execute(ctx, createCollectionMutation, map[string]any{
		"input": map[string]any{
			"translations": []translation{{
				LanguageCode: "en",
				Name:         name,
				Slug:         BucketSlug(name),
			}},
			"filters":         []any{},
			"assetIds":        []string{},
			"featuredAssetId": nil,
		},
	}, &out)
	if err != nil {
		return "", fmt.Errorf("create collection %q: %w", name, err)
	}

	im.collections[name] = out.CreateCollection.ID
	slog.Info("created collection", "phase", "collection", "name", name, "id", out.CreateCollection.ID)
	return out.CreateCollection.ID, nil
}

const createProductMutation = `
mutation CreateProduct($input: CreateProductInput!) {
  createProduct(input: $input) {
    id
    name
    slug
  }
}`

// ImportProduct creates one product with its assets, facet values, and
// variants. Image failures are never fatal; a product with zero uploaded
// images is still created without assets.
func (im *Importer) ImportProduct(ctx context.Context, product bigcartel.Product) (string, error) {
	categoryName := ""
	if len(product.Categories) > 0 {
		categoryName = product.Categories[0].Name
	}
	bucket := BucketForCategory(categoryName)

	collectionID, err := im.getOrCreateCollection(ctx, bucket)
	if err != nil {
		return "", err
	}

	var assetIDs []string
	for _, image := range product.Images {
		assetID, err := im.importAsset(ctx, image.URL)
		if err != nil {
			slog.Warn("skipping image", "phase", "asset", "url", image.URL, "error", err)
			continue
		}
		assetIDs = append(assetIDs, assetID)

		if err := im.assetPace.Wait(ctx); err != nil {
			return "", err
		}
	}
	if len(assetIDs) == 0 {
		slog.Warn("no images imported, continuing without assets", "phase", "product", "name", product.Name)
	}

	var facetValueIDs []string
	if bucket == BucketClothing {
		facetValueIDs = im.sizeFacetValueIDs(product)
	}

	var featuredAssetID any
	if len(assetIDs) > 0 {
		featuredAssetID = assetIDs[0]
	}
	if assetIDs == nil {
		assetIDs = []string{}
	}
	if facetValueIDs == nil {
		facetValueIDs = []string{}
	}

	var out struct {
		CreateProduct struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"createProduct"`
	}
	err = im.client.Execute(ctx, createProductMutation, map[string]any{
		"input": map[string]any{
			"translations": []translation{{
				LanguageCode: "en",
				Name:         product.Name,
				Slug:         product.Permalink,
				Description:  cleanDescription(product.Description),
			}},
			"assetIds":        assetIDs,
			"featuredAssetId": featuredAssetID,
			"facetValueIds":   facetValueIDs,
		},
	}, &out)
	if err != nil {
		return "", &vendure.ProductCreationError{Name: product.Name, Slug: product.Permalink, Err: err}
	}

	productID := out.CreateProduct.ID
	slog.Info("created product", "phase", "product", "name", product.Name, "id", productID, "assets", len(assetIDs))

	// CreateProductInput takes no collection assignment; membership has to be
	// applied manually or through collection filters. Advisory only.
	slog.Info("collection assignment pending",
		"phase", "collection",
		"product_id", productID,
		"collection_id", collectionID,
	)

	if len(product.Options) > 0 {
		if err := im.createVariants(ctx, productID, product); err != nil {
			return "", err
		}
	} else {
		im.createDefaultVariant(ctx, productID, product)
	}

	return productID, nil
}

type translation struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
	Slug         string `json:"slug,omitempty"`
	Description  string `json:"description,omitempty"`
}

var (
	descriptionEscapes = strings.NewReplacer(
		"\\r\\n", "\n",
		"\\u003C", "<",
		"\\u003E", ">",
	)
	anchorOpenRE  = regexp.MustCompile(`<a[^>]*>`)
	anchorCloseRE = regexp.MustCompile(`</a>`)
)

// cleanDescription undoes the export's escaping and strips anchor tags,
// which point back at the old storefront.
func cleanDescription(description string) string {
	description = descriptionEscapes.Replace(description)
	description = anchorOpenRE.ReplaceAllString(description, "")
	description = anchorCloseRE.ReplaceAllString(description, "")
	return strings.TrimSpace(description)
}

func minorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
