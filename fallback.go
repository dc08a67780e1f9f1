package folio

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed fallback/*.yaml
var fallbackFS embed.FS

// Fallback is the static dataset served when the document store is
// unconfigured or unreachable.
type Fallback struct {
	Blogs   []BlogPost
	Gallery []GalleryItem
}

var loadBundled = sync.OnceValues(func() (Fallback, error) {
	var fb Fallback
	if err := decodeFallback("fallback/blogs.yaml", &fb.Blogs); err != nil {
		return Fallback{}, err
	}
	if err := decodeFallback("fallback/gallery.yaml", &fb.Gallery); err != nil {
		return Fallback{}, err
	}
	return fb, nil
})

// BundledFallback returns the dataset compiled into the binary.
func BundledFallback() (Fallback, error) {
	return loadBundled()
}

func decodeFallback(name string, v any) error {
	data, err := fallbackFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read fallback %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode fallback %s: %w", name, err)
	}
	return nil
}

func (f Fallback) blogs() []BlogPost {
	out := make([]BlogPost, len(f.Blogs))
	copy(out, f.Blogs)
	return out
}

func (f Fallback) gallery() []GalleryItem {
	out := make([]GalleryItem, len(f.Gallery))
	copy(out, f.Gallery)
	for i := range out {
		if out[i].Tags == nil {
			out[i].Tags = []string{}
		}
	}
	return out
}
