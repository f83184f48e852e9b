package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/merchkit/vendure-sync/internal/bigcartel"
)

const createOptionGroupMutation = `
mutation CreateProductOptionGroup($input: CreateProductOptionGroupInput!) {
  createProductOptionGroup(input: $input) {
    id
    name
  }
}`

const createVariantsMutation = `
mutation CreateProductVariants($input: [CreateProductVariantInput!]!) {
  createProductVariants(input: $input) {
    id
    name
    sku
  }
}`

type variantInput struct {
	ProductID      string        `json:"productId"`
	Translations   []translation `json:"translations"`
	SKU            string        `json:"sku"`
	Price          int64         `json:"price"`
	TaxCategoryID  any           `json:"taxCategoryId"`
	StockOnHand    int           `json:"stockOnHand"`
	TrackInventory string        `json:"trackInventory"`
	OptionIDs      []string      `json:"optionIds"`
}

// createVariants mirrors the external option structure: one backend option
// group per BigCartel group, then one variant per flat option. An option
// that is sold out on an already sold-out product is skipped entirely; a
// sold-out option on an active product still becomes a variant with zero
// stock. Individual variant failures never abort their siblings.
func (im *Importer) createVariants(ctx context.Context, productID string, product bigcartel.Product) error {
	for _, group := range product.OptionGroups {
		if err := im.createOptionGroup(ctx, productID, group); err != nil {
			return fmt.Errorf("create option group %q: %w", group.Name, err)
		}
	}

	for _, option := range product.Options {
		if option.SoldOut && product.Status == bigcartel.StatusSoldOut {
			slog.Info("skipping sold-out option",
				"phase", "variant",
				"product", product.Name,
				"option", option.Name,
			)
			continue
		}

		stock := im.defaultStock
		if option.SoldOut {
			stock = 0
		}

		im.createVariant(ctx, variantInput{
			ProductID:      productID,
			Translations:   []translation{{LanguageCode: "en", Name: option.Name}},
			SKU:            VariantSKU(product.ID, option.ID),
			Price:          minorUnits(option.Price),
			StockOnHand:    stock,
			TrackInventory: "NONE",
			OptionIDs:      []string{},
		})
	}

	return nil
}

// createDefaultVariant backs an option-less product with a single variant
// carrying the product's own price and availability.
func (im *Importer) createDefaultVariant(ctx context.Context, productID string, product bigcartel.Product) {
	stock := im.defaultStock
	if product.Status == bigcartel.StatusSoldOut {
		stock = 0
	}

	im.createVariant(ctx, variantInput{
		ProductID:      productID,
		Translations:   []translation{{LanguageCode: "en", Name: product.Name}},
		SKU:            DefaultSKU(product.ID),
		Price:          minorUnits(product.Price),
		StockOnHand:    stock,
		TrackInventory: "NONE",
		OptionIDs:      []string{},
	})
}

func (im *Importer) createVariant(ctx context.Context, input variantInput) {
	var out struct {
		CreateProductVariants []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			SKU  string `json:"sku"`
		} `json:"createProductVariants"`
	}
	err := im.client.Execute(ctx, createVariantsMutation, map[string]any{
		"input": []variantInput{input},
	}, &out)
	if err != nil {
		slog.Error("failed to create variant", "phase", "variant", "sku", input.SKU, "error", err)
		return
	}

	name := "unknown"
	if len(out.CreateProductVariants) > 0 {
		name = out.CreateProductVariants[0].Name
	}
	slog.Info("created variant", "phase", "variant", "name", name, "sku", input.SKU)
}

func (im *Importer) createOptionGroup(ctx context.Context, productID string, group bigcartel.OptionGroup) error {
	options := make([]map[string]any, 0, len(group.Values))
	for _, value := range group.Values {
		options = append(options, map[string]any{
			"code":         OptionCode(value.Name),
			"translations": []translation{{LanguageCode: "en", Name: value.Name}},
		})
	}

	var out struct {
		CreateProductOptionGroup struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"createProductOptionGroup"`
	}
	err := im.client.Execute(ctx, createOptionGroupMutation, map[string]any{
		"input": map[string]any{
			"productId":    productID,
			"code":         OptionCode(group.Name),
			"translations": []translation{{LanguageCode: "en", Name: group.Name}},
			"options":      options,
		},
	}, &out)
	if err != nil {
		return err
	}

	slog.Info("created option group", "phase", "variant", "name", group.Name, "id", out.CreateProductOptionGroup.ID)
	return nil
}
