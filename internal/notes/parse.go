package notes

import (
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdown     = goldmark.New()
	slugReplacer = strings.NewReplacer(" ", "-", "/", "-")
)

// Parse builds a Note from README markdown. The first heading is the title,
// paragraphs before the first list form the description and list items are topics.
func Parse(notePath string, src []byte) Note {
	dir := path.Dir(path.Clean("/" + notePath))
	n := Note{
		Slug:  slugFor(dir),
		Path:  strings.TrimPrefix(path.Clean("/"+notePath), "/"),
		Title: titleFallback(dir),
	}

	doc := markdown.Parser().Parse(text.NewReader(src))

	var (
		titleSet   bool
		seenList   bool
		desc       []string
		topicsSeen = map[string]bool{}
	)
	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.Heading:
			if !titleSet {
				if t := plainText(node, src); t != "" {
					n.Title = t
					titleSet = true
				}
			}
		case *ast.Paragraph:
			if !seenList {
				if t := plainText(node, src); t != "" {
					desc = append(desc, t)
				}
			}
		case *ast.List:
			seenList = true
			collectTopics(node, src, topicsSeen, &n.Topics)
		}
	}
	n.Description = strings.Join(desc, " ")
	return n
}

func collectTopics(list *ast.List, src []byte, seen map[string]bool, out *[]string) {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		for block := item.FirstChild(); block != nil; block = block.NextSibling() {
			switch b := block.(type) {
			case *ast.List:
				collectTopics(b, src, seen, out)
			case *ast.Paragraph, *ast.TextBlock:
				t := plainText(b, src)
				if t == "" || seen[t] {
					continue
				}
				seen[t] = true
				*out = append(*out, t)
			}
		}
	}
}

func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

func slugFor(dir string) string {
	rel := strings.Trim(dir, "/")
	if rel == "" || rel == "." {
		return "root"
	}
	return slugReplacer.Replace(strings.ToLower(rel))
}

func titleFallback(dir string) string {
	base := path.Base(dir)
	if base == "/" || base == "." {
		return "root"
	}
	return base
}
