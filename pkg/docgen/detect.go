package docgen

import (
	"path/filepath"
	"strings"
	"unicode"

	ts "github.com/tree-sitter/go-tree-sitter"
)

type componentKind int

const (
	componentFunction componentKind = iota
	componentForwardRef
	componentMemo
	componentClass
)

// component is a detected component before props extraction.
type component struct {
	name string // local binding, "" for anonymous default exports
	kind componentKind

	// fn is the function whose first parameter receives props. Its
	// destructuring defaults become prop defaults.
	fn *ts.Node
	// propsType is an explicit props type taken from type arguments
	// (forwardRef<E, P>, memo<P>, FC<P>, Component<P>).
	propsType *ts.Node
	// class is the class node for class components.
	class *ts.Node
	// stmt carries the component's leading JSDoc.
	stmt *ts.Node
}

var fcTypeNames = map[string]bool{
	"FC":                          true,
	"FunctionComponent":           true,
	"VFC":                         true,
	"VoidFunctionComponent":       true,
	"React.FC":                    true,
	"React.FunctionComponent":     true,
	"React.VFC":                   true,
	"React.VoidFunctionComponent": true,
}

var componentBaseClasses = map[string]bool{
	"Component":           true,
	"PureComponent":       true,
	"React.Component":     true,
	"React.PureComponent": true,
}

// detectComponents returns the exported components of m in source order.
func detectComponents(m *module) []component {
	var out []component
	for _, decl := range m.exportedDeclarations() {
		if !isComponentName(decl.name) {
			continue
		}
		if c, ok := m.detectDeclaration(decl, map[string]bool{}); ok {
			out = append(out, c)
		}
	}

	if m.anonymousDefault != nil {
		if c, ok := m.detectExpression(m.anonymousDefault, nil, map[string]bool{}); ok {
			c.stmt = m.defaultStmt
			out = append(out, c)
		}
	}
	return out
}

func isComponentName(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

// detectDeclaration classifies a top-level declaration. seen guards
// against alias cycles (const A = memo(B); const B = memo(A)).
func (m *module) detectDeclaration(decl *declaration, seen map[string]bool) (component, bool) {
	if seen[decl.name] {
		return component{}, false
	}
	seen[decl.name] = true

	var c component
	var ok bool
	switch decl.kind {
	case declFunction:
		if m.rendersElements(decl.node.ChildByFieldName("body")) {
			c, ok = component{kind: componentFunction, fn: decl.node}, true
		}
	case declClass:
		c, ok = m.detectClass(decl.node)
	case declVariable:
		c, ok = m.detectExpression(decl.node.ChildByFieldName("value"), decl.node.ChildByFieldName("type"), seen)
	}
	if !ok {
		return component{}, false
	}
	c.name = decl.name
	c.stmt = decl.stmt
	return c, true
}

// detectExpression classifies an initializer. annotation is the declared
// type of the binding, if any.
func (m *module) detectExpression(value, annotation *ts.Node, seen map[string]bool) (component, bool) {
	fcProps, isFC := m.fcAnnotation(annotation)

	if value == nil {
		// declare const Button: React.FC<Props>;
		if isFC {
			return component{kind: componentFunction, propsType: fcProps}, true
		}
		return component{}, false
	}

	switch value.Kind() {
	case "arrow_function", "function_expression", "function":
		if isFC || m.rendersElements(value.ChildByFieldName("body")) {
			return component{kind: componentFunction, fn: value, propsType: fcProps}, true
		}

	case "class":
		return m.detectClass(value)

	case "parenthesized_expression", "as_expression", "satisfies_expression":
		if inner := value.NamedChild(0); inner != nil {
			return m.detectExpression(inner, annotation, seen)
		}

	case "call_expression":
		callee := m.text(value.ChildByFieldName("function"))
		typeArgs := namedChildren(value.ChildByFieldName("type_arguments"))
		inner := firstArgument(value)

		switch callee {
		case "forwardRef", "React.forwardRef":
			c := component{kind: componentForwardRef, propsType: fcProps}
			if len(typeArgs) >= 2 {
				c.propsType = typeArgs[1]
			}
			if isFunctionNode(inner) {
				c.fn = inner
			}
			return c, true

		case "memo", "React.memo":
			c := component{kind: componentMemo, propsType: fcProps}
			if len(typeArgs) >= 1 {
				c.propsType = typeArgs[0]
			}
			switch {
			case isFunctionNode(inner):
				c.fn = inner
			case inner != nil && inner.Kind() == "call_expression":
				if wrapped, ok := m.detectExpression(inner, nil, seen); ok {
					c.fn = wrapped.fn
					if c.propsType == nil {
						c.propsType = wrapped.propsType
					}
				}
			case inner != nil && inner.Kind() == "identifier":
				if d, ok := m.decls[m.text(inner)]; ok {
					if wrapped, ok := m.detectDeclaration(d, seen); ok {
						c.fn = wrapped.fn
						c.class = wrapped.class
						if c.propsType == nil {
							c.propsType = wrapped.propsType
						}
					}
				}
			}
			return c, true
		}

		if isFC {
			return component{kind: componentFunction, propsType: fcProps}, true
		}

	default:
		if isFC {
			return component{kind: componentFunction, propsType: fcProps}, true
		}
	}
	return component{}, false
}

// detectClass accepts classes extending Component or PureComponent and
// takes the props type from the first heritage type argument.
func (m *module) detectClass(class *ts.Node) (component, bool) {
	heritage := findChildByKind(class, "class_heritage")
	if heritage == nil {
		return component{}, false
	}

	// TypeScript: class_heritage > extends_clause { value, type_arguments }
	if ext := findChildByKind(heritage, "extends_clause"); ext != nil {
		if !componentBaseClasses[m.text(ext.ChildByFieldName("value"))] {
			return component{}, false
		}
		c := component{kind: componentClass, class: class}
		if args := namedChildren(ext.ChildByFieldName("type_arguments")); len(args) > 0 {
			c.propsType = args[0]
		}
		return c, true
	}

	// JavaScript: class_heritage > expression
	if base := heritage.NamedChild(0); base != nil && componentBaseClasses[m.text(base)] {
		return component{kind: componentClass, class: class}, true
	}
	return component{}, false
}

// fcAnnotation reports whether a type annotation is React.FC<P> or one of
// its aliases and returns P.
func (m *module) fcAnnotation(annotation *ts.Node) (*ts.Node, bool) {
	if annotation == nil {
		return nil, false
	}
	t := annotation
	if t.Kind() == "type_annotation" {
		t = t.NamedChild(0)
	}
	if t == nil {
		return nil, false
	}
	switch t.Kind() {
	case "generic_type":
		if !fcTypeNames[m.text(t.ChildByFieldName("name"))] {
			return nil, false
		}
		if args := namedChildren(t.ChildByFieldName("type_arguments")); len(args) > 0 {
			return args[0], true
		}
		return nil, true
	case "type_identifier", "nested_type_identifier":
		return nil, fcTypeNames[m.text(t)]
	}
	return nil, false
}

// rendersElements reports whether a function body produces React elements,
// either as JSX or through createElement calls.
func (m *module) rendersElements(body *ts.Node) bool {
	if body == nil {
		return false
	}
	switch body.Kind() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	case "call_expression":
		callee := m.text(body.ChildByFieldName("function"))
		if callee == "createElement" || strings.HasSuffix(callee, ".createElement") {
			return true
		}
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		if m.rendersElements(body.NamedChild(i)) {
			return true
		}
	}
	return false
}

func isFunctionNode(n *ts.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind() {
	case "arrow_function", "function_expression", "function":
		return true
	}
	return false
}

func firstArgument(call *ts.Node) *ts.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	return args.NamedChild(0)
}

func namedChildren(n *ts.Node) []*ts.Node {
	if n == nil {
		return nil
	}
	out := make([]*ts.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

func findChildByKind(node *ts.Node, kind string) *ts.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// displayNameFromPath names anonymous default exports after their file,
// using the directory name for index files.
func displayNameFromPath(path string) string {
	base := filepath.Base(path)
	for {
		ext := filepath.Ext(base)
		if ext == "" {
			break
		}
		base = strings.TrimSuffix(base, ext)
	}
	if base == "index" {
		base = filepath.Base(filepath.Dir(path))
	}
	return base
}
