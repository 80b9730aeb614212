// Package codegen appends docgen registration blocks to component sources.
//
// Every record becomes one guarded block that attaches the record to the
// component as __docgenInfo and registers it in a global collection the
// component explorer reads at runtime:
//
//	try {
//	    // @ts-ignore
//	    if (!Button.displayName) { Button.displayName = "Button"; }
//	    // @ts-ignore
//	    Button.__docgenInfo = {"description":"","displayName":"Button","props":{}};
//	    // @ts-ignore
//	    if (typeof STORYBOOK_REACT_CLASSES !== "undefined")
//	        // @ts-ignore
//	        STORYBOOK_REACT_CLASSES["src/Button.tsx#Button"] = { docgenInfo: Button.__docgenInfo, name: "Button", path: "src/Button.tsx#Button" };
//	}
//	catch (__react_docgen_typescript_loader_error) { }
package codegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gnana997/tsdocgen/pkg/docgen"
)

// ErrorBinding is the catch binding of generated blocks.
const ErrorBinding = "__react_docgen_typescript_loader_error"

// Identifier syntax follows ECMAScript ID_Start and ID_Continue, without
// unicode escape sequences.
const (
	idStart    = `[\p{L}\p{Nl}_$]`
	idContinue = `[\p{L}\p{Nl}\p{Mn}\p{Mc}\p{Nd}\p{Pc}_$\x{200C}\x{200D}]`
)

var (
	jsIdentifier = regexp.MustCompile(`^` + idStart + idContinue + `*$`)
	jsMemberPath = regexp.MustCompile(`^` + idStart + idContinue + `*(\.` + idStart + idContinue + `*)*$`)
)

// IsIdentifier reports whether s is a JavaScript identifier.
func IsIdentifier(s string) bool {
	return jsIdentifier.MatchString(s)
}

// IsMemberPath reports whether s is an identifier or a dotted member path
// such as window.DOCS.
func IsMemberPath(s string) bool {
	return jsMemberPath.MatchString(s)
}

// Input is everything Generate needs for one file.
type Input struct {
	Source   string
	FilePath string
	// WorkDir anchors the registration key and prop parent paths. When
	// empty, FilePath is used as given.
	WorkDir        string
	ComponentDocs  []docgen.ComponentDoc
	CollectionName string
	SetDisplayName bool
}

// Generate returns Source with one block appended per record. Records
// without an identifier (anonymous default exports), and records already
// registered in Source, are skipped.
func Generate(in Input) (string, error) {
	var b strings.Builder
	b.WriteString(in.Source)

	for _, doc := range in.ComponentDocs {
		ref := doc.Identifier
		if !IsIdentifier(ref) {
			continue
		}

		key := RegistrationKey(in.WorkDir, in.FilePath, doc.DisplayName)
		quotedKey, err := marshal(key)
		if err != nil {
			return "", err
		}
		if strings.Contains(in.Source, in.CollectionName+"["+quotedKey+"]") {
			continue
		}

		info, err := docgenInfo(doc, in.WorkDir)
		if err != nil {
			return "", fmt.Errorf("codegen: encode %s: %w", doc.DisplayName, err)
		}
		quotedName, err := marshal(doc.DisplayName)
		if err != nil {
			return "", err
		}

		b.WriteString("\ntry {\n")
		if in.SetDisplayName {
			fmt.Fprintf(&b, "    // @ts-ignore\n    if (!%s.displayName) { %s.displayName = %s; }\n", ref, ref, quotedName)
		}
		fmt.Fprintf(&b, "    // @ts-ignore\n    %s.__docgenInfo = %s;\n", ref, info)
		fmt.Fprintf(&b, "    // @ts-ignore\n    if (typeof %s !== \"undefined\")\n", in.CollectionName)
		fmt.Fprintf(&b, "        // @ts-ignore\n        %s[%s] = { docgenInfo: %s.__docgenInfo, name: %s, path: %s };\n",
			in.CollectionName, quotedKey, ref, quotedName, quotedKey)
		fmt.Fprintf(&b, "}\ncatch (%s) { }\n", ErrorBinding)
	}
	return b.String(), nil
}

// RegistrationKey identifies a component in the collection:
// "<file relative to workDir>#<displayName>" with forward slashes.
func RegistrationKey(workDir, filePath, displayName string) string {
	return relativePath(workDir, filePath) + "#" + displayName
}

func relativePath(workDir, path string) string {
	if workDir != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(workDir, path); err == nil {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}

// docgenInfo renders the __docgenInfo object literal. Props keep their
// declaration order.
func docgenInfo(doc docgen.ComponentDoc, workDir string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"description":`)
	if err := writeJSON(&buf, doc.Description); err != nil {
		return "", err
	}
	buf.WriteString(`,"displayName":`)
	if err := writeJSON(&buf, doc.DisplayName); err != nil {
		return "", err
	}
	buf.WriteString(`,"props":{`)

	if doc.Props != nil {
		first := true
		for pair := doc.Props.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := writeJSON(&buf, pair.Key); err != nil {
				return "", err
			}
			buf.WriteByte(':')
			if err := writeJSON(&buf, newPropInfo(pair.Value, workDir)); err != nil {
				return "", err
			}
		}
	}
	buf.WriteString("}}")
	return buf.String(), nil
}

// propInfo fixes the field order of emitted props.
type propInfo struct {
	DefaultValue *docgen.DefaultValue `json:"defaultValue"`
	Description  string               `json:"description"`
	Name         string               `json:"name"`
	Parent       *docgen.ParentType   `json:"parent,omitempty"`
	Required     bool                 `json:"required"`
	Type         docgen.PropItemType  `json:"type"`
}

func newPropInfo(p docgen.PropItem, workDir string) propInfo {
	info := propInfo{
		DefaultValue: p.DefaultValue,
		Description:  p.Description,
		Name:         p.Name,
		Required:     p.Required,
		Type:         p.Type,
	}
	if p.Parent != nil {
		info.Parent = &docgen.ParentType{
			FileName: relativePath(workDir, p.Parent.FileName),
			Name:     p.Parent.Name,
		}
	}
	return info
}

// writeJSON encodes v without HTML escaping and without the trailing
// newline json.Encoder adds.
func writeJSON(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

func marshal(v any) (string, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
