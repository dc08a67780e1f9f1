package folio

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidObjectName validates that a string is usable as an object name in
// the store. It checks that the name:
//   - is not empty, ".", or "/"
//   - is relative (does not start with "/")
//   - does not end with "/"
//   - does not contain ".." (path traversal)
//   - does not contain "//" (empty segments)
//   - does not contain invalid characters: \ ? # ~
//   - is valid UTF-8
//   - does not contain "." segments (/., /./, or ending with /.)
//   - does not contain null bytes, control characters (< 0x20), DEL (0x7f), or whitespace
func IsValidObjectName(p string) bool {
	if p == "" || p == "/" || p == "." {
		return false
	}

	if p[0] == '/' {
		return false
	}

	if strings.HasSuffix(p, "/") {
		return false
	}

	if strings.Contains(p, "..") {
		return false
	}

	if strings.Contains(p, "//") {
		return false
	}

	if strings.ContainsAny(p, `\?#~`) {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	if strings.HasPrefix(p, "./") || strings.Contains(p, "/./") || strings.HasSuffix(p, "/.") {
		return false
	}

	for _, r := range p {
		if r == 0 || r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	extInvalid  = regexp.MustCompile(`[^\w.]`)
)

// Slugify lowercases s, collapses every run of characters outside [a-z0-9]
// into one hyphen and trims hyphens from both ends.
func Slugify(s string) string {
	s = slugInvalid.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// UniqueSlug returns base if it is free, else the first of base-1, base-2, ...
// that exists reports as unused.
func UniqueSlug(base string, exists func(string) bool) string {
	slug := base
	for i := 1; exists(slug); i++ {
		slug = base + "-" + strconv.Itoa(i)
	}
	return slug
}

// ParseTags accepts either a list of strings or one comma separated string
// and returns the trimmed, non-empty tags in their original order.
// Any other value yields an empty list.
func ParseTags(v any) []string {
	var parts []string
	switch t := v.(type) {
	case string:
		parts = strings.Split(t, ",")
	case []string:
		parts = t
	case []any:
		for _, p := range t {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
	}

	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// UploadObjectName builds the object name for an uploaded gallery image:
// gallery/<id><ext>, where ext is taken from the last "." of filename,
// capped at ten characters and stripped of anything but word characters and dots.
func UploadObjectName(id, filename string) string {
	ext := ""
	if i := strings.LastIndex(filename, "."); i >= 0 {
		ext = filename[i:]
	}
	if len(ext) > 10 {
		ext = ext[:10]
	}
	ext = extInvalid.ReplaceAllString(ext, "")
	return "gallery/" + id + ext
}
