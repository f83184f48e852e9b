package catalog

import (
	"context"
	"fmt"
	"log/slog"
)

// The list queries page up to the configured bound in a single take; the
// store this pipeline serves stays well under it.
const (
	listProductsQuery = `
query GetProducts($options: ProductListOptions) {
  products(options: $options) {
    items {
      id
      name
    }
    totalItems
  }
}`
	listCollectionsQuery = `
query GetCollections($options: CollectionListOptions) {
  collections(options: $options) {
    items {
      id
      name
    }
    totalItems
  }
}`
	listAssetsQuery = `
query GetAssets($options: AssetListOptions) {
  assets(options: $options) {
    items {
      id
      name
    }
    totalItems
  }
}`

	deleteProductMutation = `
mutation DeleteProduct($id: ID!) {
  deleteProduct(id: $id) {
    result
    errorCode
  }
}`
	deleteCollectionMutation = `
mutation DeleteCollection($id: ID!) {
  deleteCollection(id: $id) {
    result
    errorCode
  }
}`
	deleteAssetMutation = `
mutation DeleteAsset($id: ID!) {
  deleteAsset(id: $id) {
    result
    errorCode
  }
}`
)

type entityRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type entityList struct {
	Items      []entityRef `json:"items"`
	TotalItems int         `json:"totalItems"`
}

// ClearAll destructively removes every previously imported entity. Products
// go first because they reference collections and assets; deleting in any
// other order trips dangling-reference errors in the backend. A failed list
// query aborts the reset; a failed single deletion is logged and the pass
// continues. All reference caches are cleared afterwards so the next
// provisioning step starts fresh.
func (im *Importer) ClearAll(ctx context.Context) error {
	slog.Info("starting backend cleanup", "phase", "clear")

	products, err := im.listEntities(ctx, listProductsQuery, "products")
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	im.deletePass(ctx, "product", deleteProductMutation, products)

	collections, err := im.listEntities(ctx, listCollectionsQuery, "collections")
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	im.deletePass(ctx, "collection", deleteCollectionMutation, collections)

	assets, err := im.listEntities(ctx, listAssetsQuery, "assets")
	if err != nil {
		return fmt.Errorf("list assets: %w", err)
	}
	im.deletePass(ctx, "asset", deleteAssetMutation, assets)

	im.collections = make(map[string]string)
	im.sizeFacetID = ""
	im.sizeValues = make(map[string]string)

	slog.Info("backend cleanup complete", "phase", "clear")
	return nil
}

func (im *Importer) listEntities(ctx context.Context, query, root string) ([]entityRef, error) {
	out := map[string]*entityList{root: {}}
	err := im.client.Execute(ctx, query, map[string]any{
		"options": map[string]any{"take": im.listPageSize},
	}, &out)
	if err != nil {
		return nil, err
	}

	list := out[root]
	if list == nil {
		return nil, nil
	}
	slog.Info("found entities to delete", "phase", "clear", "kind", root, "count", len(list.Items))
	return list.Items, nil
}

func (im *Importer) deletePass(ctx context.Context, kind, mutation string, refs []entityRef) {
	for i, ref := range refs {
		if err := im.client.Execute(ctx, mutation, map[string]any{"id": ref.ID}, nil); err != nil {
			slog.Warn("failed to delete entity",
				"phase", "clear",
				"kind", kind,
				"name", ref.Name,
				"error", err,
			)
			continue
		}

		slog.Info("deleted entity",
			"phase", "clear",
			"kind", kind,
			"index", i+1,
			"total", len(refs),
			"name", ref.Name,
		)

		if err := im.deletePace.Wait(ctx); err != nil {
			slog.Warn("delete pacing interrupted", "phase", "clear", "error", err)
			return
		}
	}
}
