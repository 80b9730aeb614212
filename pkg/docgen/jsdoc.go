package docgen

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// jsDoc is a parsed /** ... */ block.
type jsDoc struct {
	description string
	tags        map[string]string
}

// tag returns the first non-empty value among names.
func (d jsDoc) tag(names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := d.tags[name]; ok {
			return v, true
		}
	}
	return "", false
}

// parseJSDoc splits a JSDoc comment into its description and tags.
// Description lines keep their line breaks; a tag's continuation lines are
// appended to that tag. Repeated tags are joined with newlines.
func parseJSDoc(comment string) (jsDoc, bool) {
	comment = strings.TrimSpace(comment)
	if !strings.HasPrefix(comment, "/**") || comment == "/**/" {
		return jsDoc{}, false
	}
	comment = strings.TrimSuffix(strings.TrimPrefix(comment, "/**"), "*/")

	doc := jsDoc{}
	var desc []string
	var tagName string
	var tagLines []string

	flush := func() {
		if tagName == "" {
			return
		}
		if doc.tags == nil {
			doc.tags = make(map[string]string)
		}
		value := strings.TrimSpace(strings.Join(tagLines, "\n"))
		if prev, ok := doc.tags[tagName]; ok && prev != "" {
			value = prev + "\n" + value
		}
		doc.tags[tagName] = value
		tagName, tagLines = "", nil
	}

	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))

		if strings.HasPrefix(line, "@") {
			flush()
			name, rest, _ := strings.Cut(line[1:], " ")
			tagName = name
			tagLines = []string{strings.TrimSpace(rest)}
			continue
		}
		if tagName != "" {
			tagLines = append(tagLines, line)
			continue
		}
		desc = append(desc, line)
	}
	flush()

	doc.description = strings.TrimSpace(strings.Join(desc, "\n"))
	return doc, true
}

// leadingJSDoc returns the JSDoc block directly preceding node, skipping
// punctuation and line comments.
func leadingJSDoc(node *ts.Node, source []byte) (jsDoc, bool) {
	if node == nil {
		return jsDoc{}, false
	}
	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if prev.Kind() == "comment" {
			if doc, ok := parseJSDoc(prev.Utf8Text(source)); ok {
				return doc, true
			}
			continue
		}
		if prev.IsNamed() {
			break
		}
	}
	return jsDoc{}, false
}
