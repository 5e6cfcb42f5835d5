package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned by ParseCategory for labels outside the fixed set.
var ErrUnknownCategory = errors.New("unknown category")

// Category partitions documents. Each one maps to exactly one view.
type Category string

const (
	CategoryBills        Category = "bills"
	CategoryCertificates Category = "certificates"
	CategoryPhotos       Category = "photos"
	CategoryWarranties   Category = "warranties"
	CategoryInsurance    Category = "insurance"
	CategoryOthers       Category = "others"
)

var categories = []Category{
	CategoryBills,
	CategoryCertificates,
	CategoryPhotos,
	CategoryWarranties,
	CategoryInsurance,
	CategoryOthers,
}

// Categories returns the closed category set in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory normalizes s and checks it against the fixed set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Valid reports whether c belongs to the fixed set.
func (c Category) Valid() bool {
	for _, k := range categories {
		if k == c {
			return true
		}
	}
	return false
}

// Heading is the persistent title shown above the category's list.
func (c Category) Heading() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

func (c Category) String() string { return string(c) }
