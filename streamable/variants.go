package streamable

// Known quality variants in preference order.
const (
	VariantOriginal  = "original"
	VariantMP4       = "mp4"
	VariantMP4Mobile = "mp4-mobile"
)

var preference = []string{VariantOriginal, VariantMP4, VariantMP4Mobile}

// BestVariant returns the highest-preference variant present with a usable
// URL. The boolean is false when none of the known variants is available.
func BestVariant(files map[string]File) (string, File, bool) {
	for _, variant := range preference {
		if f, ok := files[variant]; ok && f.URL != "" {
			return variant, f, true
		}
	}
	return "", File{}, false
}
