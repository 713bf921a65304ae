// Package ast defines the translation-unit tree consumed and produced by the
// analyzer.
//
// The tree is a simplified C++ statement/expression AST extended with the
// constructs under analysis: inline modes on functions, __shadow declarations,
// __undeclare statements and the source-location intrinsic. The analyzer
// output reuses the same types; InlineExpr and LeaveStmt only ever appear in
// output produced by the inliner.
//
// This package imports nothing internal. Every other package builds on it.
//
// Key constraints:
//   - Every node carries a Pos; positions are never rewritten by transforms
//   - Transforms work on clones, input trees are never mutated
//   - Canonical JSON (RFC 8785) is the only serialization used for hashing
package ast
