package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/mrz1836/ally/internal/browser"
	"github.com/mrz1836/ally/internal/domain"
)

// outerHTMLScript returns the rendered document markup.
const outerHTMLScript = `document.documentElement.outerHTML`

const helpURLBase = "https://dequeuniversity.com/rules/axe/4.10/"

// rule is one static check over the parsed document.
type rule struct {
	id          string
	impact      domain.Severity
	description string
	help        string
	tags        []string
	check       func(doc *document) []*html.Node
}

//nolint:gochecknoglobals // Static rule table
var builtinRules = []rule{
	{
		id:          "html-has-lang",
		impact:      domain.SeveritySerious,
		description: "Ensures every HTML document has a lang attribute",
		help:        "<html> element must have a lang attribute",
		tags:        []string{"cat.language", "wcag2a", "wcag311"},
		check:       checkHTMLLang,
	},
	{
		id:          "document-title",
		impact:      domain.SeveritySerious,
		description: "Ensures each HTML document contains a non-empty <title> element",
		help:        "Documents must have <title> element to aid in navigation",
		tags:        []string{"cat.text-alternatives", "wcag2a", "wcag242"},
		check:       checkDocumentTitle,
	},
	{
		id:          "image-alt",
		impact:      domain.SeverityCritical,
		description: "Ensures <img> elements have alternate text or a role of none or presentation",
		help:        "Images must have alternate text",
		tags:        []string{"cat.text-alternatives", "wcag2a", "wcag111"},
		check:       checkImageAlt,
	},
	{
		id:          "link-name",
		impact:      domain.SeveritySerious,
		description: "Ensures links have discernible text",
		help:        "Links must have discernible text",
		tags:        []string{"cat.name-role-value", "wcag2a", "wcag244", "wcag412"},
		check:       checkLinkName,
	},
	{
		id:          "button-name",
		impact:      domain.SeverityCritical,
		description: "Ensures buttons have discernible text",
		help:        "Buttons must have discernible text",
		tags:        []string{"cat.name-role-value", "wcag2a", "wcag412"},
		check:       checkButtonName,
	},
	{
		id:          "label",
		impact:      domain.SeverityCritical,
		description: "Ensures every form element has a label",
		help:        "Form elements must have labels",
		tags:        []string{"cat.forms", "wcag2a", "wcag412"},
		check:       checkFormLabel,
	},
	{
		id:          "frame-title",
		impact:      domain.SeveritySerious,
		description: "Ensures <iframe> and <frame> elements have an accessible name",
		help:        "Frames must have an accessible name",
		tags:        []string{"cat.text-alternatives", "wcag2a", "wcag412"},
		check:       checkFrameTitle,
	},
}

// BuiltinInvoker is a static rule engine over the rendered DOM. It covers a
// small subset of axe rules and needs no Node.js install.
type BuiltinInvoker struct{}

// NewBuiltinInvoker creates a BuiltinInvoker.
func NewBuiltinInvoker() *BuiltinInvoker {
	return &BuiltinInvoker{}
}

// Run fetches the page markup and analyzes it.
func (b *BuiltinInvoker) Run(ctx context.Context, page browser.Page, tags []string) (*Result, error) {
	if err := requireTags(tags); err != nil {
		return nil, err
	}

	var markup string
	if err := page.Evaluate(ctx, outerHTMLScript, &markup); err != nil {
		return nil, err
	}
	return Analyze(markup, tags)
}

// Analyze runs every builtin rule whose tags intersect tags against markup.
func Analyze(markup string, tags []string) (*Result, error) {
	if err := requireTags(tags); err != nil {
		return nil, err
	}

	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	doc := newDocument(root)

	result := &Result{Violations: []domain.Violation{}}
	for _, r := range builtinRules {
		if !intersects(r.tags, tags) {
			continue
		}
		failing := r.check(doc)
		if len(failing) == 0 {
			result.Passes++
			continue
		}
		v := domain.Violation{
			ID:          r.id,
			Impact:      r.impact,
			Description: r.description,
			Help:        r.help,
			HelpURL:     helpURLBase + r.id,
			Tags:        slices.Clone(r.tags),
			Nodes:       make([]domain.ViolationNode, 0, len(failing)),
		}
		for _, n := range failing {
			v.Nodes = append(v.Nodes, domain.ViolationNode{
				HTML:           startTag(n),
				Target:         []string{selector(n)},
				FailureSummary: "Fix any of the following:\n  " + r.help,
			})
		}
		result.Violations = append(result.Violations, v)
	}
	return result, nil
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}

// document indexes the parsed tree for the rules.
type document struct {
	root     *html.Node
	elements []*html.Node
	labelFor map[string]bool
	ids      map[string]*html.Node
}

func newDocument(root *html.Node) *document {
	d := &document{root: root, labelFor: map[string]bool{}, ids: map[string]*html.Node{}}
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			d.elements = append(d.elements, n)
			if id := attr(n, "id"); id != "" {
				if _, seen := d.ids[id]; !seen {
					d.ids[id] = n
				}
			}
			if n.Data == "label" {
				if f := attr(n, "for"); f != "" {
					d.labelFor[f] = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(root)
	return d
}

func (d *document) byTag(names ...string) []*html.Node {
	var out []*html.Node
	for _, n := range d.elements {
		if slices.Contains(names, n.Data) {
			out = append(out, n)
		}
	}
	return out
}

func checkHTMLLang(d *document) []*html.Node {
	var failing []*html.Node
	for _, n := range d.byTag("html") {
		if strings.TrimSpace(attr(n, "lang")) == "" && strings.TrimSpace(attr(n, "xml:lang")) == "" {
			failing = append(failing, n)
		}
	}
	return failing
}

func checkDocumentTitle(d *document) []*html.Node {
	for _, n := range d.byTag("title") {
		if strings.TrimSpace(innerText(n)) != "" {
			return nil
		}
	}
	return d.byTag("html")
}

func checkImageAlt(d *document) []*html.Node {
	var failing []*html.Node
	for _, n := range d.byTag("img") {
		if hasAttr(n, "alt") || isPresentational(n) || d.hasARIAName(n) || strings.TrimSpace(attr(n, "title")) != "" {
			continue
		}
		failing = append(failing, n)
	}
	return failing
}

func checkLinkName(d *document) []*html.Node {
	var failing []*html.Node
	for _, n := range d.byTag("a") {
		if !hasAttr(n, "href") || isHidden(n) {
			continue
		}
		if d.hasARIAName(n) || strings.TrimSpace(attr(n, "title")) != "" || hasTextContent(n) {
			continue
		}
		failing = append(failing, n)
	}
	return failing
}

func checkButtonName(d *document) []*html.Node {
	var failing []*html.Node
	for _, n := range d.byTag("button", "input") {
		if isHidden(n) {
			continue
		}
		if n.Data == "input" {
			switch strings.ToLower(attr(n, "type")) {
			case "button", "submit", "reset":
			default:
				continue
			}
			// Submit and reset buttons get a default label from the browser.
			t := strings.ToLower(attr(n, "type"))
			if strings.TrimSpace(attr(n, "value")) != "" || t == "submit" || t == "reset" || d.hasARIAName(n) {
				continue
			}
			failing = append(failing, n)
			continue
		}
		if d.hasARIAName(n) || strings.TrimSpace(attr(n, "title")) != "" || hasTextContent(n) {
			continue
		}
		failing = append(failing, n)
	}
	return failing
}

func checkFormLabel(d *document) []*html.Node {
	var failing []*html.Node
	for _, n := range d.byTag("input", "select", "textarea") {
		if isHidden(n) {
			continue
		}
		if n.Data == "input" {
			switch strings.ToLower(attr(n, "type")) {
			case "hidden", "submit", "button", "reset", "image":
				continue
			}
		}
		if id := attr(n, "id"); id != "" && d.labelFor[id] {
			continue
		}
		if hasAncestor(n, "label") || d.hasARIAName(n) || strings.TrimSpace(attr(n, "title")) != "" {
			continue
		}
		failing = append(failing, n)
	}
	return failing
}

func checkFrameTitle(d *document) []*html.Node {
	var failing []*html.Node
	for _, n := range d.byTag("iframe", "frame") {
		if isHidden(n) || isPresentational(n) {
			continue
		}
		if strings.TrimSpace(attr(n, "title")) != "" || d.hasARIAName(n) {
			continue
		}
		failing = append(failing, n)
	}
	return failing
}

// hasARIAName reports a non-empty aria-label or an aria-labelledby that
// resolves to an element with text.
func (d *document) hasARIAName(n *html.Node) bool {
	if strings.TrimSpace(attr(n, "aria-label")) != "" {
		return true
	}
	for _, id := range strings.Fields(attr(n, "aria-labelledby")) {
		if ref, ok := d.ids[id]; ok && strings.TrimSpace(innerText(ref)) != "" {
			return true
		}
	}
	return false
}

// hasTextContent reports visible text or an image with alt text inside n.
func hasTextContent(n *html.Node) bool {
	if strings.TrimSpace(innerText(n)) != "" {
		return true
	}
	found := false
	var traverse func(*html.Node)
	traverse = func(c *html.Node) {
		if found {
			return
		}
		if c.Type == html.ElementNode {
			if c.Data == "img" && strings.TrimSpace(attr(c, "alt")) != "" {
				found = true
				return
			}
			if strings.TrimSpace(attr(c, "aria-label")) != "" {
				found = true
				return
			}
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			traverse(cc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		traverse(c)
	}
	return found
}

// innerText extracts all text content inside a node.
func innerText(node *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(node)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func isPresentational(n *html.Node) bool {
	role := strings.ToLower(strings.TrimSpace(attr(n, "role")))
	return role == "presentation" || role == "none"
}

func isHidden(n *html.Node) bool {
	return hasAttr(n, "hidden") || strings.EqualFold(attr(n, "aria-hidden"), "true")
}

func hasAncestor(n *html.Node, tag string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return true
		}
	}
	return false
}

// startTag renders the opening tag of n.
func startTag(n *html.Node) string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(n.Data)
	for _, a := range n.Attr {
		sb.WriteString(" ")
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(a.Val))
		sb.WriteString(`"`)
	}
	sb.WriteString(">")
	return sb.String()
}

// selector builds a CSS path for n: the nearest id, or nth-of-type steps from html.
func selector(n *html.Node) string {
	var parts []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if id := attr(cur, "id"); id != "" {
			parts = append(parts, "#"+id)
			break
		}
		if cur.Data == "html" {
			parts = append(parts, "html")
			break
		}
		index, total := 0, 0
		for s := cur.Parent.FirstChild; s != nil; s = s.NextSibling {
			if s.Type == html.ElementNode && s.Data == cur.Data {
				total++
				if s == cur {
					index = total
				}
			}
		}
		part := cur.Data
		if total > 1 {
			part = fmt.Sprintf("%s:nth-of-type(%d)", cur.Data, index)
		}
		parts = append(parts, part)
	}
	slices.Reverse(parts)
	return strings.Join(parts, " > ")
}

// Compile-time check that BuiltinInvoker implements Invoker.
var _ Invoker = (*BuiltinInvoker)(nil)
