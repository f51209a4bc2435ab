// Package lang runs programs written in lam, a small statically-checked
// expression language.
//
// A program is a sequence of statements, one per line. Each statement is
// lexed, parsed, bound and evaluated against a [Session], whose global
// scope persists across statements:
//
//	greet = s\: String cat "hello, " s
//	greet "world"
//
// # Grammar
//
//	statement  → assignment | closure | call
//	assignment → Identifier [':' Identifier] '=' statement
//	closure    → Identifier '\' ':' Identifier statement
//	           | Identifier ':' Identifier '→' statement
//	call       → primary { primary }
//	primary    → Identifier | literal | '(' statement ')'
//	literal    → Number | String | Boolean | None
//
// The lambda symbol may be written as '\', 'λ' or '→'. Application is by
// juxtaposition and folds to the left, so f x y is (f x) y.
//
// # Types
//
// Every expression has a static type: Number, String, Boolean, None or a
// closure type such as Number -> Number. A closure takes exactly one
// parameter whose type is named by its annotation; functions of several
// parameters are curried. Types are checked before evaluation and a
// statement with any diagnostic is not evaluated.
//
// # Scoping
//
// A name may be assigned once per scope. Each closure introduces a scope
// for its parameter, and inner names shadow outer ones. A closure cannot
// refer to the name it is being assigned to.
//
// # Library
//
// The global scope starts with the type definitions String, Number and
// Boolean and the modules inc, dec, add, sub, mul, div and cat. Further
// modules can be declared as expr-lang expressions; see
// [library.Extension].
//
// # Caching
//
// Parsed statements are cached process-wide by the xxh3 hash of their
// text, so repeated statements across sessions are parsed once.
package lang
