// Package markup turns raw page HTML into something an agent can reason
// about: a trimmed document for the decision service and structural form
// descriptors for the local heuristics.
package markup

import (
	"fmt"
	"regexp"
	"strings"

	"apply-agent/internal/domain/entity"

	"golang.org/x/net/html"
)

var (
	identRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	spaceRe = regexp.MustCompile(`\s+`)
)

var skippedInputTypes = map[string]bool{
	"hidden": true, "submit": true, "button": true, "image": true, "reset": true,
}

// ExtractForms lists every form on the page with its fillable controls.
// Controls outside any <form> are grouped under a pseudo-form with selector
// "body", since single-page apps often skip the form element entirely.
func ExtractForms(rawHTML string) ([]entity.FormDescriptor, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	labels := make(map[string]string)
	walk(doc, func(n *html.Node) bool {
		if isElement(n, "label") {
			if target := attr(n, "for"); target != "" {
				labels[target] = nodeText(n)
			}
		}
		return true
	})

	var forms []entity.FormDescriptor
	var loose []entity.FieldDescriptor

	walk(doc, func(n *html.Node) bool {
		switch {
		case isElement(n, "form"):
			sel := selectorFor(n)
			form := entity.FormDescriptor{Selector: sel, Action: attr(n, "action")}
			walk(n, func(c *html.Node) bool {
				if f, ok := describeField(c, labels); ok {
					form.Fields = append(form.Fields, f)
				}
				return true
			})
			forms = append(forms, form)
			return false
		default:
			if f, ok := describeField(n, labels); ok {
				loose = append(loose, f)
			}
			return true
		}
	})

	if len(loose) > 0 {
		forms = append(forms, entity.FormDescriptor{Selector: "body", Fields: loose})
	}
	return forms, nil
}

func describeField(n *html.Node, labels map[string]string) (entity.FieldDescriptor, bool) {
	if n.Type != html.ElementNode {
		return entity.FieldDescriptor{}, false
	}
	tag := n.Data
	if tag != "input" && tag != "select" && tag != "textarea" {
		return entity.FieldDescriptor{}, false
	}
	typ := strings.ToLower(attr(n, "type"))
	if tag == "input" && skippedInputTypes[typ] {
		return entity.FieldDescriptor{}, false
	}
	if tag == "input" && typ == "" {
		typ = "text"
	}
	if _, disabled := lookup(n, "disabled"); disabled {
		return entity.FieldDescriptor{}, false
	}

	f := entity.FieldDescriptor{
		Selector:    fieldSelector(n, typ),
		Tag:         tag,
		Type:        typ,
		Name:        attr(n, "name"),
		ID:          attr(n, "id"),
		Placeholder: attr(n, "placeholder"),
	}

	switch {
	case f.ID != "" && labels[f.ID] != "":
		f.Label = labels[f.ID]
	case ancestor(n, "label") != nil:
		f.Label = nodeText(ancestor(n, "label"))
	default:
		f.Label = attr(n, "aria-label")
	}

	_, required := lookup(n, "required")
	f.Required = required || attr(n, "aria-required") == "true" || strings.HasSuffix(f.Label, "*")
	f.Label = strings.TrimSpace(strings.TrimSuffix(f.Label, "*"))

	if tag == "select" {
		walk(n, func(c *html.Node) bool {
			if isElement(c, "option") {
				if text := nodeText(c); text != "" {
					f.Options = append(f.Options, text)
				}
			}
			return true
		})
	}
	return f, true
}

func fieldSelector(n *html.Node, typ string) string {
	if id := attr(n, "id"); id != "" {
		return idSelector(id)
	}
	if name := attr(n, "name"); name != "" {
		sel := fmt.Sprintf(`%s[name="%s"]`, n.Data, escape(name))
		if (typ == "radio" || typ == "checkbox") && attr(n, "value") != "" {
			sel += fmt.Sprintf(`[value="%s"]`, escape(attr(n, "value")))
		}
		return sel
	}
	return cssPath(n)
}

func selectorFor(n *html.Node) string {
	if id := attr(n, "id"); id != "" {
		return idSelector(id)
	}
	if name := attr(n, "name"); name != "" {
		return fmt.Sprintf(`%s[name="%s"]`, n.Data, escape(name))
	}
	return cssPath(n)
}

func idSelector(id string) string {
	if identRe.MatchString(id) {
		return "#" + id
	}
	return fmt.Sprintf(`[id="%s"]`, escape(id))
}

// cssPath builds a tag:nth-of-type chain from the nearest ancestor with an id.
func cssPath(n *html.Node) string {
	var parts []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if id := attr(cur, "id"); id != "" && cur != n {
			parts = append(parts, idSelector(id))
			break
		}
		if cur.Data == "html" {
			parts = append(parts, "html")
			break
		}
		idx := 1
		for s := cur.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode && s.Data == cur.Data {
				idx++
			}
		}
		parts = append(parts, fmt.Sprintf("%s:nth-of-type(%d)", cur.Data, idx))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// walk visits n and its descendants depth-first; returning false skips children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// nodeText is the collapsed text content, ignoring option lists and scripts.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		switch {
		case c.Type == html.TextNode:
			sb.WriteString(c.Data)
			sb.WriteByte(' ')
		case c.Type == html.ElementNode && c != n && isOneOf(c.Data, "select", "textarea", "script", "style"):
			return
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			collect(ch)
		}
	}
	collect(n)
	return strings.TrimSpace(spaceRe.ReplaceAllString(sb.String(), " "))
}

func ancestor(n *html.Node, tag string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if isElement(p, tag) {
			return p
		}
	}
	return nil
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, key string) string {
	v, _ := lookup(n, key)
	return v
}

func lookup(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val), true
		}
	}
	return "", false
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
