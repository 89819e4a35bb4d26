// Package attrs resolves per-order key/value attributes with policy
// defaults for missing values.
package attrs

import (
	"context"
	"strings"

	"github.com/openmes/aps/pkg/core"
)

// Recognized attribute keys.
const (
	KeyColor    = "color"
	KeyMoldCode = "mold_code"
	KeyFixture  = "fixture"
)

// Defaults applied when an order has no usable value for a key.
const (
	DefaultColor    = "DEFAULT"
	DefaultMoldCode = ""
	DefaultFixture  = ""
)

// Bundle is a resolved attribute set. Color is always non-empty; the
// mold and fixture defaults are empty strings by policy.
type Bundle struct {
	Color    string
	MoldCode string
	Fixture  string
}

// Resolver looks up order attributes through storage. Read-only.
type Resolver struct {
	store core.Storage
}

// NewResolver creates a resolver backed by the given storage.
func NewResolver(store core.Storage) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the attribute bundle for an order. For each recognized
// key the first non-blank value wins; missing or blank values fall back
// to the fixed defaults. An order without any attribute rows is not an
// error.
func (r *Resolver) Resolve(ctx context.Context, orderID int64) (Bundle, error) {
	bundle := Bundle{
		Color:    DefaultColor,
		MoldCode: DefaultMoldCode,
		Fixture:  DefaultFixture,
	}

	rows, err := r.store.GetOrderAttributes(ctx, orderID)
	if err != nil {
		return Bundle{}, err
	}

	seen := make(map[string]bool, 3)
	for _, row := range rows {
		key := strings.ToLower(strings.TrimSpace(row.AttrKey))
		value := strings.TrimSpace(row.AttrValue)
		if value == "" || seen[key] {
			continue
		}
		switch key {
		case KeyColor:
			bundle.Color = value
			seen[key] = true
		case KeyMoldCode:
			bundle.MoldCode = value
			seen[key] = true
		case KeyFixture:
			bundle.Fixture = value
			seen[key] = true
		}
	}
	return bundle, nil
}
