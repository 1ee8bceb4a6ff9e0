package bundles

import "strings"

// NormalizePath converts a user-provided path to the form stored in the
// index.
//
// It performs the following transformations:
//   - Converts backslashes to slashes: `Data\Mods.dat64` → "Data/Mods.dat64"
//   - Strips leading and trailing slashes: "/Data/" → "Data"
//   - Collapses consecutive slashes: "Data//Mods.dat64" → "Data/Mods.dat64"
//
// Case is preserved; lookups already fall back to the lower-cased path.
// The empty path and "/" normalize to "".
func NormalizePath(p string) string {
	p = strings.Trim(strings.ReplaceAll(p, "\\", "/"), "/")
	if !strings.Contains(p, "//") {
		return p
	}

	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	return strings.Join(result, "/")
}
