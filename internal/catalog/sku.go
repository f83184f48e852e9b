package catalog

import (
	"fmt"

	"github.com/gosimple/slug"
)

// skuPrefix marks every imported variant as BigCartel-sourced so a
// re-import can be traced back to its external IDs.
const skuPrefix = "BC"

// VariantSKU builds the deterministic SKU for one purchasable option.
// Example: product 4217, option 9 -> "BC-4217-9".
func VariantSKU(productID, optionID int64) string {
	return fmt.Sprintf("%s-%d-%d", skuPrefix, productID, optionID)
}

// DefaultSKU is used for products without options, which get a single
// default variant.
func DefaultSKU(productID int64) string {
	return fmt.Sprintf("%s-%d", skuPrefix, productID)
}

// OptionCode derives the backend code for an option group or option value.
// Example: "XX Large" -> "option-xx-large".
func OptionCode(name string) string {
	return "option-" + slug.Make(name)
}
