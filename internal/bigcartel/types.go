// Package bigcartel models the BigCartel product export consumed by the
// import pipeline. The shapes match the JSON produced by BigCartel's
// products API; all fields are read-only input.
package bigcartel

const (
	StatusActive  = "active"
	StatusSoldOut = "sold-out"
)

type Product struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Permalink    string        `json:"permalink"`
	Price        float64       `json:"price"`
	Description  string        `json:"description"`
	Status       string        `json:"status"`
	Images       []Image       `json:"images"`
	Categories   []Category    `json:"categories"`
	Options      []Option      `json:"options"`
	OptionGroups []OptionGroup `json:"option_groups"`
}

type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Permalink string `json:"permalink"`
}

// Option is one flat purchasable combination, e.g. "Black / Large".
type Option struct {
	ID                int64              `json:"id"`
	Name              string             `json:"name"`
	Price             float64            `json:"price"`
	SoldOut           bool               `json:"sold_out"`
	OptionGroupValues []OptionGroupValue `json:"option_group_values"`
}

type OptionGroupValue struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	OptionGroupID int64  `json:"option_group_id"`
}

type OptionGroup struct {
	ID     int64              `json:"id"`
	Name   string             `json:"name"`
	Values []OptionGroupEntry `json:"values"`
}

type OptionGroupEntry struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}
