package tui

import (
	"html"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"

	"github.com/colonyops/markreview/internal/core/styles"
)

const (
	blockquoteOpen  = "<blockquote>"
	blockquoteClose = "</blockquote>"
)

var (
	breakTag   = regexp.MustCompile(`(?i)<br\s*/?>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
	stripTags  = bluemonday.StrictPolicy()
)

// commentMarkdown turns a comment's HTML fragment into markdown. Quote blocks
// become "> " prefixed lines and every other tag is dropped.
func commentMarkdown(fragment string) string {
	s := quoteBlocks(fragment)
	s = breakTag.ReplaceAllString(s, "\n")
	s = stripTags.Sanitize(s)
	s = html.UnescapeString(s)
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// quoteBlocks rewrites <blockquote> elements, including nested ones, as
// markdown quote prefixes.
func quoteBlocks(fragment string) string {
	var b strings.Builder
	depth := 0
	lineStart := true
	closed := false

	endLine := func() {
		if !lineStart {
			b.WriteByte('\n')
			lineStart = true
		}
	}

	rest := fragment
	for rest != "" {
		if closed && rest[0] == '\n' {
			rest = rest[1:]
		}
		closed = false
		if rest == "" {
			break
		}

		switch {
		case hasPrefixFold(rest, blockquoteOpen):
			endLine()
			depth++
			rest = rest[len(blockquoteOpen):]
		case hasPrefixFold(rest, blockquoteClose):
			endLine()
			depth = max(depth-1, 0)
			b.WriteString(strings.TrimSpace(strings.Repeat("> ", depth)))
			b.WriteByte('\n')
			rest = rest[len(blockquoteClose):]
			closed = true
		default:
			if lineStart && depth > 0 {
				b.WriteString(strings.Repeat("> ", depth))
			}
			b.WriteByte(rest[0])
			lineStart = rest[0] == '\n'
			rest = rest[1:]
		}
	}
	return b.String()
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// commentRenderer renders comment text for the terminal, caching output by
// width and text.
type commentRenderer struct {
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newCommentRenderer() *commentRenderer {
	return &commentRenderer{cache: make(map[string]string)}
}

// Render returns fragment formatted for width columns. If glamour fails the
// plain markdown is returned.
func (r *commentRenderer) Render(fragment string, width int) string {
	width = max(width, 20)
	if width != r.width || r.renderer == nil {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStyles(styles.GlamourStyle()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return commentMarkdown(fragment)
		}
		r.renderer = tr
		r.width = width
		clear(r.cache)
	}

	if out, ok := r.cache[fragment]; ok {
		return out
	}

	md := commentMarkdown(fragment)
	out, err := r.renderer.Render(md)
	if err != nil {
		return md
	}
	out = strings.Trim(out, "\n")
	r.cache[fragment] = out
	return out
}
