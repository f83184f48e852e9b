package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchkit/vendure-sync/internal/config"
	"github.com/merchkit/vendure-sync/internal/vendure"
)

// fakeVendure is an in-memory stand-in for the Vendure admin API, serving
// the GraphQL route and the sibling asset-upload route.
type fakeVendure struct {
	t  *testing.T
	mu sync.Mutex

	srv *echo.Echo
	ts  *httptest.Server

	// pre-existing state returned by the list queries
	existingProducts    []entityRef
	existingCollections []entityRef
	existingAssets      []entityRef
	existingSizeFacet   bool

	// failure injection
	failDeleteIDs    map[string]bool
	failProductSlugs map[string]bool
	failVariantSKUs  map[string]bool

	// upload response shape: "plain", "graphql", or "array"
	assetShape string

	// recorded activity
	deleted               []string
	collectionCreateCalls int
	facetCreateCalls      int
	createdProducts       []map[string]any
	createdVariants       []map[string]any
	createdOptionGroups   []map[string]any
	uploadedFiles         []string

	nextID int
}

func newFakeVendure(t *testing.T) *fakeVendure {
	f := &fakeVendure{
		t:                t,
		failDeleteIDs:    make(map[string]bool),
		failProductSlugs: make(map[string]bool),
		failVariantSKUs:  make(map[string]bool),
		assetShape:       "plain",
	}

	e := echo.New()
	e.HideBanner = true
	e.POST("/admin-api", f.handleGraphQL)
	e.POST("/assets", f.handleAssetUpload)

	f.srv = e
	f.ts = httptest.NewServer(e)
	t.Cleanup(f.ts.Close)
	return f
}

func (f *fakeVendure) apiURL() string {
	return f.ts.URL + "/admin-api"
}

func (f *fakeVendure) mintID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func (f *fakeVendure) handleGraphQL(c echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var req gqlRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if !strings.Contains(req.Query, "login(") {
		// Every authenticated call must carry the session cookie set.
		assert.Contains(f.t, c.Request().Header.Get("Cookie"), "session=")
		assert.Equal(f.t, "test-channel-token", c.Request().Header.Get("vendure-token"))
	}

	switch {
	case strings.Contains(req.Query, "login("):
		c.Response().Header().Add("Set-Cookie", "session=abc123; Path=/; HttpOnly")
		c.Response().Header().Add("Set-Cookie", "session.sig=def456; Path=/; HttpOnly")
		return c.JSON(http.StatusOK, map[string]any{
			"data": map[string]any{
				"login": map[string]any{
					"id":         "1",
					"identifier": "superadmin",
					"channels": []map[string]any{
						{"id": "1", "token": "test-channel-token"},
					},
				},
			},
		})

	case strings.Contains(req.Query, "createCollection"):
		f.collectionCreateCalls++
		input := req.Variables["input"].(map[string]any)
		translations := input["translations"].([]any)
		first := translations[0].(map[string]any)
		return gqlData(c, map[string]any{
			"createCollection": map[string]any{
				"id":   f.mintID("C"),
				"name": first["name"],
				"slug": first["slug"],
			},
		})

	case strings.Contains(req.Query, "createProduct("):
		input := req.Variables["input"].(map[string]any)
		translations := input["translations"].([]any)
		first := translations[0].(map[string]any)
		slug, _ := first["slug"].(string)
		if f.failProductSlugs[slug] {
			return gqlErrors(c, fmt.Sprintf("slug %q is already in use", slug))
		}
		f.createdProducts = append(f.createdProducts, input)
		return gqlData(c, map[string]any{
			"createProduct": map[string]any{
				"id":   f.mintID("P"),
				"name": first["name"],
				"slug": slug,
			},
		})

	case strings.Contains(req.Query, "createProductVariants"):
		inputs := req.Variables["input"].([]any)
		variant := inputs[0].(map[string]any)
		sku, _ := variant["sku"].(string)
		if f.failVariantSKUs[sku] {
			return gqlErrors(c, fmt.Sprintf("invalid price for variant %q", sku))
		}
		f.createdVariants = append(f.createdVariants, variant)
		name := ""
		if translations, ok := variant["translations"].([]any); ok && len(translations) > 0 {
			name, _ = translations[0].(map[string]any)["name"].(string)
		}
		return gqlData(c, map[string]any{
			"createProductVariants": []map[string]any{
				{"id": f.mintID("V"), "name": name, "sku": sku},
			},
		})

	case strings.Contains(req.Query, "createProductOptionGroup"):
		input := req.Variables["input"].(map[string]any)
		f.createdOptionGroups = append(f.createdOptionGroups, input)
		return gqlData(c, map[string]any{
			"createProductOptionGroup": map[string]any{
				"id":   f.mintID("OG"),
				"name": "group",
			},
		})

	case strings.Contains(req.Query, "createFacet"):
		f.facetCreateCalls++
		f.existingSizeFacet = true
		return gqlData(c, map[string]any{
			"createFacet": map[string]any{"id": "F1", "name": "Size", "code": "size"},
		})

	case strings.Contains(req.Query, "facets(options"):
		items := []map[string]any{}
		if f.existingSizeFacet {
			items = append(items, map[string]any{
				"id": "F1", "code": "size", "values": f.sizeFacetValues(),
			})
		}
		return gqlData(c, map[string]any{
			"facets": map[string]any{"items": items},
		})

	case strings.Contains(req.Query, "facet(id"):
		return gqlData(c, map[string]any{
			"facet": map[string]any{"id": "F1", "values": f.sizeFacetValues()},
		})

	case strings.Contains(req.Query, "products(options"):
		return gqlList(c, "products", f.existingProducts)

	case strings.Contains(req.Query, "collections(options"):
		return gqlList(c, "collections", f.existingCollections)

	case strings.Contains(req.Query, "assets(options"):
		return gqlList(c, "assets", f.existingAssets)

	case strings.Contains(req.Query, "deleteProduct"),
		strings.Contains(req.Query, "deleteCollection"),
		strings.Contains(req.Query, "deleteAsset"):
		id, _ := req.Variables["id"].(string)
		if f.failDeleteIDs[id] {
			return gqlErrors(c, fmt.Sprintf("cannot delete %q", id))
		}
		kind := "product"
		if strings.Contains(req.Query, "deleteCollection") {
			kind = "collection"
		} else if strings.Contains(req.Query, "deleteAsset") {
			kind = "asset"
		}
		f.deleted = append(f.deleted, kind+":"+id)
		return gqlData(c, map[string]any{
			"delete": map[string]any{"result": "DELETED", "errorCode": nil},
		})
	}

	f.t.Errorf("fake backend got unexpected query: %s", req.Query)
	return gqlErrors(c, "unexpected query")
}

func (f *fakeVendure) sizeFacetValues() []map[string]any {
	seeds := []struct{ code, name string }{
		{"small", "Small"},
		{"medium", "Medium"},
		{"large", "Large"},
		{"x-large", "X Large"},
		{"xx-large", "XX Large"},
		{"xxx-large", "XXX Large"},
		{"xxxx-large", "XXXX Large"},
	}
	values := make([]map[string]any, 0, len(seeds))
	for i, seed := range seeds {
		values = append(values, map[string]any{
			"id":   fmt.Sprintf("FV%d", i+1),
			"name": seed.name,
			"code": seed.code,
		})
	}
	return values
}

func (f *fakeVendure) handleAssetUpload(c echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	assert.Contains(f.t, c.Request().Header.Get("Cookie"), "session=")
	assert.Equal(f.t, "test-channel-token", c.Request().Header.Get("vendure-token"))

	file, err := c.FormFile("file")
	if err != nil {
		return c.String(http.StatusBadRequest, "missing file field")
	}
	f.uploadedFiles = append(f.uploadedFiles, file.Filename)

	id := f.mintID("A")
	switch f.assetShape {
	case "graphql":
		return c.JSON(http.StatusOK, map[string]any{
			"data": map[string]any{"createAssets": []map[string]any{{"id": id}}},
		})
	case "array":
		return c.JSON(http.StatusOK, []map[string]any{{"id": id}})
	default:
		return c.JSON(http.StatusOK, map[string]any{"id": id})
	}
}

func gqlData(c echo.Context, data map[string]any) error {
	return c.JSON(http.StatusOK, map[string]any{"data": data})
}

func gqlErrors(c echo.Context, messages ...string) error {
	items := make([]map[string]any, 0, len(messages))
	for _, message := range messages {
		items = append(items, map[string]any{"message": message})
	}
	return c.JSON(http.StatusOK, map[string]any{"errors": items})
}

func gqlList(c echo.Context, root string, refs []entityRef) error {
	items := make([]map[string]any, 0, len(refs))
	for _, ref := range refs {
		items = append(items, map[string]any{"id": ref.ID, "name": ref.Name})
	}
	return gqlData(c, map[string]any{
		root: map[string]any{"items": items, "totalItems": len(items)},
	})
}

// newTestImporter returns an authenticated Importer wired to the fake
// backend, with pacing disabled.
func newTestImporter(t *testing.T, f *fakeVendure) *Importer {
	client := vendure.NewClient(f.apiURL(), "superadmin", "superadmin")
	require.NoError(t, client.Authenticate(context.Background()))

	cfg := &config.Config{}
	cfg.Import.ListPageSize = 1000
	cfg.Import.DefaultStock = 100

	return New(client, cfg)
}

// newImageHost serves fake image bytes; unknown paths return 404.
func newImageHost(t *testing.T, images map[string][]byte) *httptest.Server {
	e := echo.New()
	e.HideBanner = true
	e.GET("/images/:name", func(c echo.Context) error {
		data, ok := images[c.Param("name")]
		if !ok {
			return c.String(http.StatusNotFound, "not found")
		}
		return c.Blob(http.StatusOK, "image/png", data)
	})

	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)
	return ts
}
