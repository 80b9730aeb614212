package statics

// Queries matches top-level assignments to a member of a module binding,
// which is how components receive a display name or default props after
// declaration:
//
//	Button.displayName = "FancyButton";
//	Button.defaultProps = { size: "md" };
//
// Captures:
//   - @static.object   - the binding (Button)
//   - @static.property - the member (displayName, defaultProps)
//   - @static.value    - the assigned expression
const Queries = `
(program
  (expression_statement
    (assignment_expression
      left: (member_expression
        object: (identifier) @static.object
        property: (property_identifier) @static.property)
      right: (_) @static.value)))
`
