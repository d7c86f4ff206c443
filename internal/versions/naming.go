package versions

import (
	"encoding/base64"
	"strings"
	"unicode"
)

const illegalChars = `<>:"/\|?*`

// SanitizeFilename strips characters that are illegal in file systems, trims
// surrounding whitespace and guarantees exactly one .pdf extension.
func SanitizeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalChars, r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	for strings.Contains(cleaned, "..") {
		cleaned = strings.ReplaceAll(cleaned, "..", ".")
	}

	cleaned = strings.TrimSpace(cleaned)
	for hasPDFExt(cleaned) {
		cleaned = strings.TrimSpace(cleaned[:len(cleaned)-len(".pdf")])
	}
	cleaned = strings.Trim(cleaned, ". ")

	if cleaned == "" {
		cleaned = "document"
	}
	return cleaned + ".pdf"
}

// OwnerRoot converts an owner identity into a single safe path segment.
// Identities made only of letters, digits, '-' and '@' are used as is; any
// other identity is encoded as '_' followed by its unpadded base64url form.
// Plain roots never contain '_', so distinct owners never share a root.
func OwnerRoot(owner string) string {
	if owner == "" || strings.IndexFunc(owner, unsafeOwnerRune) < 0 {
		return owner
	}
	return "_" + base64.RawURLEncoding.EncodeToString([]byte(owner))
}

func unsafeOwnerRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case r == '-' || r == '@':
		return false
	}
	return true
}

func hasPDFExt(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

func stem(fileName string) string {
	return fileName[:len(fileName)-len(".pdf")]
}
