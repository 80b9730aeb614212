package imports

// Queries contains tree-sitter query patterns for module-level import and
// export bindings. The same patterns compile against the TypeScript, TSX and
// JavaScript grammars.
//
// Each pattern yields one match per binding, so every match carries its own
// module source.
//
// Captures:
//   - @import.name, @import.alias, @import.source - import { name as alias } from 'source'
//   - @import.default, @import.source             - import Name from 'source'
//   - @reexport.name, @reexport.alias, @reexport.source - export { name as alias } from 'source'
//   - @reexport_all.source                        - export * from 'source'
//   - @export.name, @export.alias                 - export { name as alias }
const Queries = `
; import { Foo, Bar as Baz } from './types';
(import_statement
  (import_clause
    (named_imports
      (import_specifier
        name: (identifier) @import.name
        alias: (identifier)? @import.alias)))
  source: (string (string_fragment) @import.source))

; import Foo from './Foo';
(import_statement
  (import_clause
    (identifier) @import.default)
  source: (string (string_fragment) @import.source))

; export { Foo, Bar as Baz } from './types';
(export_statement
  (export_clause
    (export_specifier
      name: (identifier) @reexport.name
      alias: (identifier)? @reexport.alias))
  source: (string (string_fragment) @reexport.source))

; export * from './types';
(export_statement
  "*"
  source: (string (string_fragment) @reexport_all.source))

; export { Foo, Bar as Baz };
(export_statement
  (export_clause
    (export_specifier
      name: (identifier) @export.name
      alias: (identifier)? @export.alias))
  !source)
`
