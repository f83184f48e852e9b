package catalog

import "github.com/gosimple/slug"

// The storefront groups everything into three coarse collections. This
// mapping is deliberate domain policy, not a general taxonomy engine.
const (
	BucketAlbums   = "Albums"
	BucketClothing = "Clothing"
	BucketOther    = "Other"
)

// BucketForCategory maps a BigCartel category name to its collection
// bucket. Total over all inputs: unknown and empty names land in Other.
func BucketForCategory(name string) string {
	switch name {
	case "Albums":
		return BucketAlbums
	case "T-Shirts", "Headwear":
		return BucketClothing
	default:
		return BucketOther
	}
}

// BucketSlug derives the URL slug for a bucket name.
func BucketSlug(bucket string) string {
	return slug.Make(bucket)
}
