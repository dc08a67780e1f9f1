package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sagarc03/folio"
)

// Formatter renders command results.
type Formatter interface {
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatPublish(w io.Writer, post *folio.BlogPost) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatBlogs(w io.Writer, posts []folio.BlogPost) error
	FormatGallery(w io.Writer, page *folio.GalleryPage) error
	FormatAnalytics(w io.Writer, data *folio.AnalyticsData) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns a JSONFormatter for --json, otherwise a HumanFormatter.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// printer writes to w and keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

// table writes tab-aligned columns. Cells longer than maxCell are shortened.
func (p *printer) table(header []string, rows [][]string) {
	if p.err != nil {
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	line := func(cells []string) {
		for i, c := range cells {
			cells[i] = shorten(c, maxCell)
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	line(header)
	for _, r := range rows {
		line(r)
	}
	p.err = tw.Flush()
}

const maxCell = 60

func shorten(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

// HumanFormatter prints tables and short summaries. Quiet drops everything
// but errors and the essential identifiers.
type HumanFormatter struct {
	Quiet bool
}

func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	p := &printer{w: w}
	for _, r := range results {
		switch {
		case r.Err != nil:
			p.printf("Error: %s - %v\n", r.LocalPath, r.Err)
		case f.Quiet:
		default:
			p.printf("Uploaded: %s -> %s (%s)\n", r.LocalPath, r.ObjectName, humanSize(r.Size))
			p.printf("  URL: %s\n", r.PublicURL)
			if r.Item != nil {
				p.printf("  ID:  %s\n", r.Item.ID)
			}
		}
	}
	return p.err
}

func (f *HumanFormatter) FormatPublish(w io.Writer, post *folio.BlogPost) error {
	p := &printer{w: w}
	if f.Quiet {
		p.printf("%s\n", post.Slug)
		return p.err
	}
	p.printf("Published %q as /blogs/%s\n", post.Title, post.Slug)
	p.printf("  %s, %d content block(s)\n", post.Date, len(post.Content))
	return p.err
}

func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	p := &printer{w: w}
	for _, r := range results {
		switch {
		case r.Err != nil:
			p.printf("Error: %s - %v\n", r.Target, r.Err)
		case !f.Quiet:
			p.printf("Deleted: %s\n", r.Target)
		}
	}
	return p.err
}

func (f *HumanFormatter) FormatBlogs(w io.Writer, posts []folio.BlogPost) error {
	p := &printer{w: w}
	if len(posts) == 0 {
		p.printf("No posts found\n")
		return p.err
	}

	rows := make([][]string, 0, len(posts))
	for _, post := range posts {
		rows = append(rows, []string{post.Date, post.Slug, post.Title})
	}
	p.table([]string{"DATE", "SLUG", "TITLE"}, rows)

	if !f.Quiet {
		p.printf("\n%d post(s)\n", len(posts))
	}
	return p.err
}

func (f *HumanFormatter) FormatGallery(w io.Writer, page *folio.GalleryPage) error {
	p := &printer{w: w}
	if len(page.Items) == 0 {
		p.printf("No gallery items found\n")
		return p.err
	}

	rows := make([][]string, 0, len(page.Items))
	for _, it := range page.Items {
		featured := ""
		if it.Featured {
			featured = "yes"
		}
		rows = append(rows, []string{it.ID, it.Title, featured, it.CreatedAt})
	}
	p.table([]string{"ID", "TITLE", "FEATURED", "CREATED"}, rows)

	if !f.Quiet {
		p.printf("\n%d of %d item(s)\n", len(page.Items), page.Total)
		if page.HasMore {
			p.printf("More items available: use --page to continue\n")
		}
	}
	return p.err
}

func (f *HumanFormatter) FormatAnalytics(w io.Writer, data *folio.AnalyticsData) error {
	p := &printer{w: w}
	p.printf("Total views:  %d (%d unique)\n", data.TotalViews, data.TotalUniqueViews)
	p.printf("Last updated: %s\n", data.LastUpdated)
	if f.Quiet {
		return p.err
	}

	var rows [][]string
	for _, s := range data.Pages {
		rows = append(rows, []string{"page", s.Path, fmt.Sprint(s.Views), fmt.Sprint(s.UniqueViews)})
	}
	for _, s := range data.Blogs {
		rows = append(rows, []string{"post", s.Slug, fmt.Sprint(s.Views), fmt.Sprint(s.UniqueViews)})
	}
	if len(rows) > 0 {
		p.printf("\n")
		p.table([]string{"KIND", "PATH/SLUG", "VIEWS", "UNIQUE"}, rows)
	}
	return p.err
}

func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	p := &printer{w: w}
	p.printf("Error: %v\n", err)
	return p.err
}

// FormatProfileList marks the default profile with "*".
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	rows := make([][]string, 0, len(profiles))
	for _, prof := range profiles {
		marker := "  "
		if prof.Name == defaultName {
			marker = "* "
		}
		rows = append(rows, []string{marker + prof.Name, prof.Endpoint, maskSecret(prof.AdminToken, showSecrets)})
	}

	p := &printer{w: w}
	p.table([]string{"  NAME", "ENDPOINT", "ADMIN TOKEN"}, rows)
	return p.err
}

func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	name := profile.Name
	if isDefault {
		name += " (default)"
	}
	prefix := profile.APIPrefix
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}

	p := &printer{w: w}
	p.printf("Name:        %s\n", name)
	p.printf("Endpoint:    %s\n", profile.Endpoint)
	p.printf("API prefix:  %s\n", prefix)
	p.printf("Admin token: %s\n", maskSecret(profile.AdminToken, showSecrets))
	return p.err
}

// JSONFormatter prints indented JSON. Per-item errors become "error" fields.
type JSONFormatter struct{}

type uploadJSON struct {
	UploadResult
	Error string `json:"error,omitempty"`
}

type deleteJSON struct {
	DeleteResult
	Error string `json:"error,omitempty"`
}

type profileJSON struct {
	Name       string `json:"name"`
	Endpoint   string `json:"endpoint"`
	APIPrefix  string `json:"api_prefix,omitempty"`
	AdminToken string `json:"admin_token"`
	Default    bool   `json:"default"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	out := make([]uploadJSON, 0, len(results))
	for _, r := range results {
		out = append(out, uploadJSON{UploadResult: r, Error: errString(r.Err)})
	}
	return encodeJSON(w, out)
}

func (f *JSONFormatter) FormatPublish(w io.Writer, post *folio.BlogPost) error {
	return encodeJSON(w, post)
}

func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	out := make([]deleteJSON, 0, len(results))
	for _, r := range results {
		out = append(out, deleteJSON{DeleteResult: r, Error: errString(r.Err)})
	}
	return encodeJSON(w, map[string][]deleteJSON{"results": out})
}

func (f *JSONFormatter) FormatBlogs(w io.Writer, posts []folio.BlogPost) error {
	if posts == nil {
		posts = []folio.BlogPost{}
	}
	return encodeJSON(w, posts)
}

func (f *JSONFormatter) FormatGallery(w io.Writer, page *folio.GalleryPage) error {
	return encodeJSON(w, page)
}

func (f *JSONFormatter) FormatAnalytics(w io.Writer, data *folio.AnalyticsData) error {
	return encodeJSON(w, data)
}

func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	return encodeJSON(w, map[string]string{"error": err.Error()})
}

func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	out := make([]profileJSON, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileJSON(p, p.Name == defaultName, showSecrets))
	}
	return encodeJSON(w, map[string][]profileJSON{"profiles": out})
}

func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	return encodeJSON(w, toProfileJSON(profile, isDefault, showSecrets))
}

func toProfileJSON(p Profile, isDefault, showSecrets bool) profileJSON {
	return profileJSON{
		Name:       p.Name,
		Endpoint:   p.Endpoint,
		APIPrefix:  p.APIPrefix,
		AdminToken: maskSecret(p.AdminToken, showSecrets),
		Default:    isDefault,
	}
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// humanSize renders a byte count with a binary unit, e.g. "2.0 KB".
func humanSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	size := float64(n) / 1024
	for _, unit := range []string{"KB", "MB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f GB", size)
}

// maskSecret keeps the first and last four characters of a token. Tokens of
// eight characters or fewer are fully masked.
func maskSecret(secret string, showSecrets bool) string {
	switch {
	case showSecrets:
		return secret
	case secret == "":
		return "(not set)"
	case len(secret) <= 8:
		return "********"
	default:
		return secret[:4] + "..." + secret[len(secret)-4:]
	}
}
