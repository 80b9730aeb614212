package docgen

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// typeRef is a named type being expanded; it breaks recursive type cycles.
type typeRef struct {
	path string
	name string
}

// propsResolver expands a props type into its members. One resolver serves
// a single Parse call.
type propsResolver struct {
	s        *session
	visiting map[typeRef]bool
}

// propsOf returns the members of a props type in declaration order.
// parent names the declaration the members come from, nil for literals.
func (r *propsResolver) propsOf(m *module, t *ts.Node, parent *ParentType, depth int) []PropItem {
	if t == nil {
		return nil
	}

	switch t.Kind() {
	case "type_annotation", "parenthesized_type":
		return r.propsOf(m, t.NamedChild(0), parent, depth)

	case "object_type", "interface_body":
		return r.members(m, t, parent)

	case "intersection_type":
		var out []PropItem
		for _, member := range namedChildren(t) {
			out = append(out, r.propsOf(m, member, parent, depth)...)
		}
		return out

	case "type_identifier":
		return r.named(m, m.text(t), depth)

	case "generic_type":
		return r.generic(m, t, parent, depth)
	}

	// Unions, lookups, mapped types and namespace-qualified names
	// (React.HTMLAttributes<...>) contribute nothing.
	return nil
}

// generic handles the utility types that reshape a props type and falls
// back to the generic's own declaration for anything else.
func (r *propsResolver) generic(m *module, t *ts.Node, parent *ParentType, depth int) []PropItem {
	name := m.text(t.ChildByFieldName("name"))
	args := namedChildren(t.ChildByFieldName("type_arguments"))

	switch name {
	case "Partial", "Required", "Readonly":
		if len(args) == 0 {
			return nil
		}
		props := r.propsOf(m, args[0], parent, depth)
		for i := range props {
			switch name {
			case "Partial":
				props[i].Required = false
			case "Required":
				props[i].Required = true
			}
		}
		return props

	case "Omit", "Pick":
		if len(args) < 2 {
			return nil
		}
		keys := literalKeys(m, args[1])
		var out []PropItem
		for _, p := range r.propsOf(m, args[0], parent, depth) {
			if keys[p.Name] == (name == "Pick") {
				out = append(out, p)
			}
		}
		return out
	}

	return r.named(m, name, depth)
}

// literalKeys collects the string literals of a key argument such as
// "a" | "b".
func literalKeys(m *module, t *ts.Node) map[string]bool {
	keys := make(map[string]bool)
	var walk func(n *ts.Node)
	walk = func(n *ts.Node) {
		switch n.Kind() {
		case "literal_type":
			if s := n.NamedChild(0); s != nil && s.Kind() == "string" {
				keys[unquote(m.text(s))] = true
			}
		case "union_type", "parenthesized_type":
			for _, c := range namedChildren(n) {
				walk(c)
			}
		}
	}
	walk(t)
	return keys
}

// named resolves a type name in the scope of m: local interfaces and type
// aliases first, then imported bindings.
func (r *propsResolver) named(m *module, name string, depth int) []PropItem {
	if d, ok := m.decls[name]; ok {
		return r.declared(m, d, depth)
	}
	if imp, ok := m.imports[name]; ok {
		target, local, ok := r.s.resolveExport(m, imp.source, imp.imported, depth)
		if !ok {
			return nil
		}
		return r.declared(target, local, depth+1)
	}
	return nil
}

// declared expands an interface or type alias declaration.
func (r *propsResolver) declared(m *module, d *declaration, depth int) []PropItem {
	if depth > r.s.p.maxImportDepth {
		return nil
	}
	ref := typeRef{path: m.path, name: d.name}
	if r.visiting[ref] {
		return nil
	}
	r.visiting[ref] = true
	defer delete(r.visiting, ref)

	parent := &ParentType{FileName: m.path, Name: d.name}

	switch d.kind {
	case declInterface:
		out := r.propsOf(m, d.node.ChildByFieldName("body"), parent, depth)
		if ext := findChildByKind(d.node, "extends_type_clause"); ext != nil {
			for _, base := range namedChildren(ext) {
				out = append(out, r.propsOf(m, base, nil, depth)...)
			}
		}
		return out

	case declTypeAlias:
		return r.propsOf(m, d.node.ChildByFieldName("value"), parent, depth)
	}
	return nil
}

// members reads property and method signatures of an object type.
func (r *propsResolver) members(m *module, body *ts.Node, parent *ParentType) []PropItem {
	var out []PropItem
	for _, member := range namedChildren(body) {
		var prop PropItem
		switch member.Kind() {
		case "property_signature":
			prop.Type = r.s.propType(m, member.ChildByFieldName("type"))
		case "method_signature":
			prop.Type = PropItemType{Name: methodTypeText(m, member)}
		default:
			continue
		}

		name, ok := memberName(m, member.ChildByFieldName("name"))
		if !ok {
			continue
		}
		prop.Name = name
		prop.Required = findChildByKind(member, "?") == nil
		if parent != nil {
			p := *parent
			prop.Parent = &p
		}

		if doc, ok := leadingJSDoc(member, m.source); ok {
			prop.Description = doc.description
			prop.Tags = doc.tags
			if v, ok := doc.tag("default", "defaultValue"); ok {
				prop.DefaultValue = &DefaultValue{Value: v}
			}
		}
		out = append(out, prop)
	}
	return out
}

func memberName(m *module, n *ts.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Kind() {
	case "property_identifier", "number", "private_property_identifier":
		return m.text(n), true
	case "string":
		return unquote(m.text(n)), true
	}
	return "", false
}

// methodTypeText renders `onClick(e: Event): void` as `(e: Event) => void`.
func methodTypeText(m *module, method *ts.Node) string {
	params := collapse(m.text(method.ChildByFieldName("parameters")))
	ret := "void"
	if rt := method.ChildByFieldName("return_type"); rt != nil {
		if t := rt.NamedChild(0); t != nil {
			ret = collapse(m.text(t))
		}
	}
	return params + " => " + ret
}

// propType renders a property's type. Optional properties without an
// annotation are reported as any.
func (s *session) propType(m *module, annotation *ts.Node) PropItemType {
	if annotation == nil {
		return PropItemType{Name: "any"}
	}
	t := annotation
	if t.Kind() == "type_annotation" {
		t = t.NamedChild(0)
	}
	if t == nil {
		return PropItemType{Name: "any"}
	}
	text := collapse(strings.TrimPrefix(strings.TrimSpace(m.text(t)), "|"))

	if s.p.opts.ShouldExtractLiteralValuesFromEnum {
		if values, ok := stringLiteralUnion(m, t); ok {
			return PropItemType{Name: "enum", Raw: text, Value: values}
		}
	}
	return PropItemType{Name: text}
}

// stringLiteralUnion flattens "a" | "b" | "c" into enum values with double
// quotes.
func stringLiteralUnion(m *module, t *ts.Node) ([]EnumValue, bool) {
	if t.Kind() != "union_type" {
		return nil, false
	}
	var values []EnumValue
	var walk func(n *ts.Node) bool
	walk = func(n *ts.Node) bool {
		switch n.Kind() {
		case "union_type":
			for _, c := range namedChildren(n) {
				if !walk(c) {
					return false
				}
			}
			return true
		case "literal_type":
			s := n.NamedChild(0)
			if s == nil || s.Kind() != "string" {
				return false
			}
			values = append(values, EnumValue{Value: `"` + unquote(m.text(s)) + `"`})
			return true
		}
		return false
	}
	if !walk(t) || len(values) == 0 {
		return nil, false
	}
	return values, true
}

// componentDefaults collects default values declared by the component
// itself: destructuring defaults of the props parameter, a
// `Name.defaultProps = {...}` assignment and a class `static defaultProps`.
// Later sources override earlier ones.
func (m *module) componentDefaults(c component) map[string]string {
	defaults := make(map[string]string)

	if param := firstParameter(c.fn); param != nil {
		if pattern := param.ChildByFieldName("pattern"); pattern != nil && pattern.Kind() == "object_pattern" {
			m.patternDefaults(pattern, defaults)
		}
	}

	if c.name != "" {
		if value, ok := m.statics[c.name]["defaultProps"]; ok {
			m.objectDefaults(value, defaults)
		}
	}

	if value := m.classStatic(c.class, "defaultProps"); value != nil {
		m.objectDefaults(value, defaults)
	}
	return defaults
}

func (m *module) patternDefaults(pattern *ts.Node, defaults map[string]string) {
	for _, entry := range namedChildren(pattern) {
		switch entry.Kind() {
		case "object_assignment_pattern":
			// { size = "md" }
			left := entry.ChildByFieldName("left")
			right := entry.ChildByFieldName("right")
			if left != nil && right != nil && left.Kind() == "shorthand_property_identifier_pattern" {
				defaults[m.text(left)] = m.defaultText(right)
			}
		case "pair_pattern":
			// { size: s = "md" }
			key, ok := memberName(m, entry.ChildByFieldName("key"))
			value := entry.ChildByFieldName("value")
			if !ok || value == nil {
				continue
			}
			if value.Kind() == "assignment_pattern" {
				if right := value.ChildByFieldName("right"); right != nil {
					defaults[key] = m.defaultText(right)
				}
			}
		}
	}
}

func (m *module) objectDefaults(object *ts.Node, defaults map[string]string) {
	for object != nil && (object.Kind() == "parenthesized_expression" || object.Kind() == "as_expression" || object.Kind() == "satisfies_expression") {
		object = object.NamedChild(0)
	}
	if object == nil || object.Kind() != "object" {
		return
	}
	for _, entry := range namedChildren(object) {
		switch entry.Kind() {
		case "pair":
			key, ok := memberName(m, entry.ChildByFieldName("key"))
			value := entry.ChildByFieldName("value")
			if ok && value != nil {
				defaults[key] = m.defaultText(value)
			}
		case "shorthand_property_identifier":
			name := m.text(entry)
			defaults[name] = name
		}
	}
}

// classStatic returns the initializer of `static <name> = ...` in a class
// body.
func (m *module) classStatic(class *ts.Node, name string) *ts.Node {
	if class == nil {
		return nil
	}
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	for _, member := range namedChildren(body) {
		if member.Kind() != "public_field_definition" && member.Kind() != "field_definition" {
			continue
		}
		if findChildByKind(member, "static") == nil {
			continue
		}
		field := member.ChildByFieldName("name")
		if field == nil {
			field = member.ChildByFieldName("property")
		}
		if m.text(field) == name {
			return member.ChildByFieldName("value")
		}
	}
	return nil
}

func (m *module) defaultText(value *ts.Node) string {
	if value.Kind() == "string" {
		return unquote(m.text(value))
	}
	return collapse(m.text(value))
}

// displayName returns an explicit displayName assignment, if any.
func (m *module) displayName(c component) (string, bool) {
	value := m.classStatic(c.class, "displayName")
	if c.name != "" {
		if v, ok := m.statics[c.name]["displayName"]; ok {
			value = v
		}
	}
	if value == nil || value.Kind() != "string" {
		return "", false
	}
	return unquote(m.text(value)), true
}

// firstParameter returns the first formal parameter of fn.
func firstParameter(fn *ts.Node) *ts.Node {
	if fn == nil {
		return nil
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	for _, p := range namedChildren(params) {
		return p
	}
	return nil
}

// parameterType returns the annotation of the props parameter.
func parameterType(fn *ts.Node) *ts.Node {
	param := firstParameter(fn)
	if param == nil {
		return nil
	}
	switch param.Kind() {
	case "required_parameter", "optional_parameter":
		return param.ChildByFieldName("type")
	}
	return nil
}

// document builds the record for a detected component.
func (s *session) document(m *module, c component) ComponentDoc {
	name := c.name
	if name == "" {
		name = displayNameFromPath(m.path)
	}
	if explicit, ok := m.displayName(c); ok {
		name = explicit
	}

	doc := NewComponentDoc(name, c.name, m.path)
	if jd, ok := leadingJSDoc(c.stmt, m.source); ok {
		doc.Description = jd.description
		doc.Tags = jd.tags
	}

	propsType := c.propsType
	if propsType == nil {
		propsType = parameterType(c.fn)
	}

	r := &propsResolver{s: s, visiting: make(map[typeRef]bool)}
	props := r.propsOf(m, propsType, nil, 0)
	defaults := m.componentDefaults(c)

	doc.Props = orderedmap.New[string, PropItem]()
	for _, p := range props {
		if _, exists := doc.Props.Get(p.Name); exists {
			continue
		}
		if v, ok := defaults[p.Name]; ok {
			p.DefaultValue = &DefaultValue{Value: v}
		}
		if !s.p.opts.PropFilter.Keep(p) {
			continue
		}
		doc.Props.Set(p.Name, p)
	}
	return doc
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
