package docgen

import (
	"fmt"
	"sort"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/tsdocgen/pkg/parser"
	"github.com/gnana997/tsdocgen/pkg/parser/queries"
)

type declKind int

const (
	declFunction declKind = iota
	declVariable
	declClass
	declInterface
	declTypeAlias
	declEnum
)

// declaration is a top-level binding of a module.
type declaration struct {
	name string
	kind declKind
	// node is the function_declaration, variable_declarator,
	// class_declaration, interface_declaration or type_alias_declaration.
	node *ts.Node
	// stmt is the top-level statement holding node; leading JSDoc attaches here.
	stmt *ts.Node
}

// importBinding records `import { imported as local } from source`.
// imported is "default" for default imports.
type importBinding struct {
	imported string
	source   string
}

// reexport records `export { name as alias } from source`.
type reexport struct {
	name   string
	source string
}

// module is the indexed form of one parsed file. Nodes reference tree, so
// a module is only valid until close.
type module struct {
	path    string
	source  []byte
	grammar parser.Grammar
	tree    *ts.Tree

	decls   map[string]*declaration
	imports map[string]importBinding
	// exports maps exported name to local binding name.
	exports map[string]string
	// reexports maps exported name to its origin module.
	reexports   map[string]reexport
	starExports []string
	// statics maps binding → member → assigned value for top-level
	// `Binding.member = value` statements.
	statics map[string]map[string]*ts.Node
	// anonymousDefault is the expression of `export default <expr>` when it
	// is not a plain identifier.
	anonymousDefault *ts.Node
	defaultStmt      *ts.Node
}

func (m *module) close() {
	if m.tree != nil {
		m.tree.Close()
		m.tree = nil
	}
}

func (m *module) text(n *ts.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(m.source)
}

// loadModule parses source and indexes its top-level declarations, imports,
// exports and static member assignments.
func loadModule(pm *parser.ParserManager, qm *queries.QueryManager, path string, source []byte) (*module, error) {
	grammar := parser.DetectGrammar(path)
	if grammar == parser.GrammarUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}

	tree, err := pm.Parse(source, grammar)
	if err != nil {
		return nil, fmt.Errorf("docgen: parse %s: %w", path, err)
	}

	m := &module{
		path:      path,
		source:    source,
		grammar:   grammar,
		tree:      tree,
		decls:     make(map[string]*declaration),
		imports:   make(map[string]importBinding),
		exports:   make(map[string]string),
		reexports: make(map[string]reexport),
		statics:   make(map[string]map[string]*ts.Node),
	}

	m.indexDeclarations()

	if err := m.indexBindings(qm); err != nil {
		m.close()
		return nil, err
	}
	return m, nil
}

func (m *module) indexDeclarations() {
	root := m.tree.RootNode()
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Kind() {
		case "export_statement":
			m.indexExport(stmt)
		default:
			m.indexDeclaration(stmt, stmt, false)
		}
	}
}

// indexExport handles the inline forms `export <decl>`, `export default
// <decl>` and `export default <expr>`. Export clauses are indexed from the
// imports query.
func (m *module) indexExport(stmt *ts.Node) {
	isDefault := false
	for i := uint(0); i < stmt.ChildCount(); i++ {
		if stmt.Child(i).Kind() == "default" {
			isDefault = true
			break
		}
	}

	if decl := stmt.ChildByFieldName("declaration"); decl != nil {
		names := m.indexDeclaration(decl, stmt, true)
		if isDefault && len(names) == 1 {
			m.exports["default"] = names[0]
		}
		if isDefault && len(names) == 0 {
			// export default function () {} / export default class {}
			m.anonymousDefault = decl
			m.defaultStmt = stmt
		}
		return
	}

	if !isDefault {
		return
	}
	value := stmt.ChildByFieldName("value")
	if value == nil {
		return
	}
	if value.Kind() == "identifier" {
		m.exports["default"] = m.text(value)
		return
	}
	m.anonymousDefault = value
	m.defaultStmt = stmt
}

// indexDeclaration records the bindings a statement declares and returns
// their names.
func (m *module) indexDeclaration(node, stmt *ts.Node, exported bool) []string {
	add := func(name string, kind declKind, n *ts.Node) {
		if name == "" {
			return
		}
		m.decls[name] = &declaration{name: name, kind: kind, node: n, stmt: stmt}
		if exported {
			m.exports[name] = name
		}
	}

	var names []string
	named := func(kind declKind) {
		name := m.text(node.ChildByFieldName("name"))
		if name == "" {
			return
		}
		add(name, kind, node)
		names = append(names, name)
	}

	switch node.Kind() {
	case "function_declaration", "generator_function_declaration", "function_signature":
		named(declFunction)
	case "class_declaration", "abstract_class_declaration":
		named(declClass)
	case "class":
		// export default class Name extends ... (JavaScript grammar)
		named(declClass)
	case "function_expression", "function":
		named(declFunction)
	case "interface_declaration":
		named(declInterface)
	case "type_alias_declaration":
		named(declTypeAlias)
	case "enum_declaration":
		named(declEnum)
	case "lexical_declaration", "variable_declaration":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			d := node.NamedChild(i)
			if d.Kind() != "variable_declarator" {
				continue
			}
			nameNode := d.ChildByFieldName("name")
			if nameNode == nil || nameNode.Kind() != "identifier" {
				continue
			}
			name := m.text(nameNode)
			add(name, declVariable, d)
			names = append(names, name)
		}
	case "ambient_declaration":
		// declare const X: ...; declare function X(): ...;
		for i := uint(0); i < node.NamedChildCount(); i++ {
			names = append(names, m.indexDeclaration(node.NamedChild(i), stmt, exported)...)
		}
	}
	return names
}

func (m *module) indexBindings(qm *queries.QueryManager) error {
	matches, err := qm.Run(m.tree, m.grammar, queries.QueryTypeImports, m.source)
	if err != nil {
		return fmt.Errorf("docgen: query imports in %s: %w", m.path, err)
	}
	for _, match := range matches {
		if src, ok := match.Capture("import.source"); ok {
			if local, ok := match.Capture("import.default"); ok {
				m.imports[local] = importBinding{imported: "default", source: src}
				continue
			}
			name, _ := match.Capture("import.name")
			local := name
			if alias, ok := match.Capture("import.alias"); ok {
				local = alias
			}
			m.imports[local] = importBinding{imported: name, source: src}
			continue
		}
		if src, ok := match.Capture("reexport.source"); ok {
			name, _ := match.Capture("reexport.name")
			exported := name
			if alias, ok := match.Capture("reexport.alias"); ok {
				exported = alias
			}
			m.reexports[exported] = reexport{name: name, source: src}
			continue
		}
		if src, ok := match.Capture("reexport_all.source"); ok {
			m.starExports = append(m.starExports, src)
			continue
		}
		if name, ok := match.Capture("export.name"); ok {
			exported := name
			if alias, ok := match.Capture("export.alias"); ok {
				exported = alias
			}
			m.exports[exported] = name
		}
	}

	statics, err := qm.Run(m.tree, m.grammar, queries.QueryTypeStatics, m.source)
	if err != nil {
		return fmt.Errorf("docgen: query statics in %s: %w", m.path, err)
	}
	for _, match := range statics {
		object, _ := match.Capture("static.object")
		property, _ := match.Capture("static.property")
		value := match.CaptureNode("static.value")
		if object == "" || property == "" || value == nil {
			continue
		}
		members, ok := m.statics[object]
		if !ok {
			members = make(map[string]*ts.Node)
			m.statics[object] = members
		}
		members[property] = value
	}
	return nil
}

// exportedDeclarations returns the local declarations reachable through the
// module's exports, each once, in source order.
func (m *module) exportedDeclarations() []*declaration {
	seen := make(map[string]bool)
	var out []*declaration
	for _, local := range m.exports {
		if seen[local] {
			continue
		}
		seen[local] = true
		if d, ok := m.decls[local]; ok {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].node.StartByte() < out[j].node.StartByte()
	})
	return out
}
