package folio

import (
	"regexp"
	"strings"
)

var (
	lineBreak    = regexp.MustCompile(`\r?\n`)
	imageLine    = regexp.MustCompile(`^!\[[^\]]*\]\(([^)]+)\)$`)
	headingStart = "## "
)

// ParseBody turns the admin's plain-text post body into content blocks.
//
// The grammar is a small markdown subset:
//   - "## title" emits a heading block
//   - a line consisting only of ![alt](url) emits an image block
//   - any other non-blank line is appended to the current paragraph block,
//     opening one if needed
//
// Blank lines neither open nor close a block, so consecutive text separated by
// blank lines stays in one paragraph block. Blocks left empty are dropped.
func ParseBody(body string) []ContentBlock {
	blocks := []ContentBlock{}
	var current *ContentBlock

	flush := func() {
		if current != nil && len(current.Paragraph) > 0 {
			blocks = append(blocks, *current)
		}
		current = nil
	}

	for _, raw := range lineBreak.Split(body, -1) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := imageLine.FindStringSubmatch(line); m != nil {
			flush()
			blocks = append(blocks, ContentBlock{Image: m[1]})
			continue
		}

		if strings.HasPrefix(line, headingStart) {
			flush()
			heading := strings.TrimSpace(strings.TrimPrefix(line, "##"))
			if heading != "" {
				blocks = append(blocks, ContentBlock{Heading: heading})
			}
			continue
		}

		if current == nil {
			current = &ContentBlock{}
		}
		current.Paragraph = append(current.Paragraph, line)
	}
	flush()

	return blocks
}

// Paragraphs returns every non-empty paragraph line of blocks in order.
func Paragraphs(blocks []ContentBlock) []string {
	var out []string
	for _, b := range blocks {
		for _, p := range b.Paragraph {
			if strings.TrimSpace(p) != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Excerpt returns the trimmed explicit excerpt, or the first two paragraph
// lines of blocks joined by a space.
func Excerpt(explicit string, blocks []ContentBlock) string {
	if e := strings.TrimSpace(explicit); e != "" {
		return e
	}
	paragraphs := Paragraphs(blocks)
	if len(paragraphs) > 2 {
		paragraphs = paragraphs[:2]
	}
	return strings.Join(paragraphs, " ")
}
