package conversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		name     string
		custom   string
		filename string
		want     string
	}{
		{"custom title wins", "My Catalog", "spring_2025.pdf", "My Catalog"},
		{"custom title is trimmed", "  My Catalog  ", "x.pdf", "My Catalog"},
		{"underscores become spaces", "", "annual_report_2025.pdf", "Annual Report 2025"},
		{"hyphens become spaces", "", "product-brochure.pdf", "Product Brochure"},
		{"mixed separators collapse", "", "a__b--c.pdf", "A B C"},
		{"extension stripped case-insensitively", "", "Menu.PDF", "Menu"},
		{"path components ignored", "", "/tmp/uploads/white_paper.pdf", "White Paper"},
		{"empty filename falls back", "", ".pdf", "Untitled"},
		{"blank custom title ignored", "   ", "guide.pdf", "Guide"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveTitle(tc.custom, tc.filename))
		})
	}
}
