package engine

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// RenderMarkdown converts raw HTML markup into markdown text.
//
// Script, style, and frame elements are stripped first so their contents
// never leak into the rendering. The remaining DOM is walked once: block
// structure (headings, paragraphs, lists, tables, code fences) becomes
// markdown structure, inline markup (emphasis, code, links) becomes inline
// markdown, and everything else contributes its text.
func RenderMarkdown(markup string) (string, error) {
	if strings.TrimSpace(markup) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}
	doc.Find("script,noscript,iframe").Remove()
	doc.Find("style,link[rel='stylesheet']").Remove()

	cleaned, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serialize markup: %w", err)
	}

	root, err := html.Parse(strings.NewReader(cleaned))
	if err != nil {
		return "", fmt.Errorf("parse cleaned markup: %w", err)
	}

	w := &mdWriter{}
	st := &walkState{}
	for child := contentRoot(root).FirstChild; child != nil; child = child.NextSibling {
		renderNode(child, st, w)
	}
	return collapseBlankLines(strings.TrimSpace(w.String())), nil
}

// mdWriter accumulates markdown output while tracking trailing whitespace,
// so emitters can ask for "at least a space", "at least one newline", or
// "at least one blank line" without producing runs of either.
type mdWriter struct {
	b        strings.Builder
	last     rune
	wrote    bool
	newlines int
}

func (w *mdWriter) String() string { return w.b.String() }

func (w *mdWriter) write(s string) {
	if s == "" {
		return
	}
	w.b.WriteString(s)
	for _, r := range s {
		w.last = r
		w.wrote = true
		if r == '\n' {
			w.newlines++
		} else {
			w.newlines = 0
		}
	}
}

func (w *mdWriter) space() {
	if !w.wrote || w.newlines > 0 || w.last == ' ' {
		return
	}
	w.write(" ")
}

func (w *mdWriter) breakLine() {
	if w.newlines >= 1 {
		return
	}
	w.write("\n")
}

func (w *mdWriter) blankLine() {
	for w.wrote && w.newlines < 2 {
		w.write("\n")
	}
}

type listLevel struct {
	ordered bool
	index   int
}

type walkState struct {
	lists []listLevel
	inPre bool
}

func renderNode(n *html.Node, st *walkState, w *mdWriter) {
	if n == nil {
		return
	}
	switch n.Type {
	case html.TextNode:
		// Inside a code fence, whitespace is content.
		if st.inPre {
			w.write(n.Data)
			return
		}
		text := squashSpace(n.Data)
		if text == "" {
			return
		}
		w.space()
		w.write(text)
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		switch tag {
		case "br":
			w.write("  \n")
		case "p", "div", "section", "article", "main", "header", "footer", "blockquote":
			w.blankLine()
			renderChildren(n, st, w)
			w.blankLine()
		case "h1", "h2", "h3", "h4", "h5", "h6":
			w.blankLine()
			w.write(strings.Repeat("#", int(tag[1]-'0')) + " ")
			renderChildren(n, st, w)
			w.blankLine()
		case "strong", "b":
			if text := renderInline(n, st); text != "" {
				w.space()
				w.write("**" + text + "**")
			}
		case "em", "i":
			if text := renderInline(n, st); text != "" {
				w.space()
				w.write("_" + text + "_")
			}
		case "code":
			// A code element inside pre belongs to the fence, not to
			// inline code. Highlighters nest them that way.
			if st.inPre {
				renderChildren(n, st, w)
				return
			}
			if text := squashSpace(textContent(n)); text != "" {
				w.space()
				w.write("`" + text + "`")
			}
		case "pre":
			w.blankLine()
			w.write("```\n")
			st.inPre = true
			renderChildren(n, st, w)
			st.inPre = false
			w.breakLine()
			w.write("```\n")
		case "a":
			href := attrValue(n, "href")
			text := squashSpace(textContent(n))
			if text == "" {
				text = href
			}
			if text == "" {
				return
			}
			w.space()
			if href == "" {
				w.write(text)
				return
			}
			w.write("[" + text + "](" + href + ")")
		case "ul", "ol":
			st.lists = append(st.lists, listLevel{ordered: tag == "ol"})
			w.blankLine()
			renderChildren(n, st, w)
			st.lists = st.lists[:len(st.lists)-1]
			w.blankLine()
		case "li":
			if len(st.lists) == 0 {
				st.lists = append(st.lists, listLevel{})
			}
			level := &st.lists[len(st.lists)-1]
			level.index++
			marker := "- "
			if level.ordered {
				marker = fmt.Sprintf("%d. ", level.index)
			}
			w.breakLine()
			w.write(strings.Repeat("  ", len(st.lists)-1) + marker)
			renderChildren(n, st, w)
			w.breakLine()
		case "table":
			w.blankLine()
			if md := renderTable(n); md != "" {
				w.write(md)
				w.breakLine()
			}
			w.blankLine()
		default:
			renderChildren(n, st, w)
		}
	}
}

func renderChildren(n *html.Node, st *walkState, w *mdWriter) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		renderNode(child, st, w)
	}
}

// renderInline renders an element's children into a detached writer and
// flattens the result to one line. Emphasis markers only work when they hug
// their content, so the content is rendered first and wrapped after.
func renderInline(n *html.Node, st *walkState) string {
	sub := &mdWriter{}
	renderChildren(n, st, sub)
	return squashSpace(sub.String())
}

type mdRow struct {
	cells  []string
	header bool
}

// renderTable emits a markdown table. The first row containing th cells
// (or the first row at all) becomes the header; the column count is fixed
// by the header row.
func renderTable(table *html.Node) string {
	rows := gatherRows(table)
	if len(rows) == 0 {
		return ""
	}

	header := -1
	for i, row := range rows {
		if row.header {
			header = i
			break
		}
	}
	if header == -1 {
		header = 0
	}

	cols := len(rows[header].cells)
	if cols == 0 {
		return ""
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i := 0; i < cols; i++ {
			b.WriteString(" ")
			if i < len(cells) {
				b.WriteString(cells[i])
			}
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(rows[header].cells)
	b.WriteString("|")
	for i := 0; i < cols; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for i, row := range rows {
		if i == header {
			continue
		}
		writeRow(row.cells)
	}
	return b.String()
}

func gatherRows(table *html.Node) []mdRow {
	var rows []mdRow
	var walk func(n *html.Node, inHead bool)
	walk = func(n *html.Node, inHead bool) {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			switch strings.ToLower(child.Data) {
			case "thead":
				walk(child, true)
			case "tr":
				row := mdRow{header: inHead}
				for cell := child.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type != html.ElementNode {
						continue
					}
					tag := strings.ToLower(cell.Data)
					if tag != "td" && tag != "th" {
						continue
					}
					if tag == "th" {
						row.header = true
					}
					row.cells = append(row.cells, squashSpace(textContent(cell)))
				}
				if len(row.cells) > 0 {
					rows = append(rows, row)
				}
			default:
				walk(child, inHead)
			}
		}
	}
	walk(table, false)
	return rows
}

// contentRoot locates the body element, falling back outward when the
// markup has no body.
func contentRoot(node *html.Node) *html.Node {
	if body := firstElement(node, "body"); body != nil {
		return body
	}
	if root := firstElement(node, "html"); root != nil {
		return root
	}
	return node
}

func firstElement(node *html.Node, tag string) *html.Node {
	if node == nil {
		return nil
	}
	if node.Type == html.ElementNode && strings.EqualFold(node.Data, tag) {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := firstElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(node *html.Node) string {
	if node == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if text := squashSpace(n.Data); text != "" {
				if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(text)
			}
		case html.ElementNode:
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				walk(child)
			}
		}
	}
	walk(node)
	return b.String()
}

func attrValue(node *html.Node, name string) string {
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, name) {
			return attr.Val
		}
	}
	return ""
}

// squashSpace collapses every run of whitespace to a single space.
func squashSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// collapseBlankLines reduces runs of blank lines to one and trims trailing
// space from each line.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blanks++
			if blanks > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blanks = 0
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
