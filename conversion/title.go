package conversion

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DeriveTitle picks the document title: an explicit user-supplied title wins;
// otherwise the title is derived from the original filename with the
// extension stripped, separators normalized to spaces and words title-cased.
func DeriveTitle(customTitle, filename string) string {
	if trimmed := strings.TrimSpace(customTitle); trimmed != "" {
		return trimmed
	}

	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Untitled"
	}
	return cases.Title(language.Und).String(base)
}
