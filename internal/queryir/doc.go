// Package queryir provides the abstract syntax tree shared by both query
// front ends and every compiler pass.
//
// ARCHITECTURE:
//
//	[SQL text]   ─┐
//	              ├─> [Query AST] -> resolve -> transform -> [SQL WHERE + params]
//	[XPath text] ─┘
//
// Both grammars produce the same tree shape for the same logical
// predicate, so passes are grammar-agnostic.
//
// SEALED INTERFACES:
//
// Node and Operand are sealed interfaces using the marker method pattern.
// Only types in this package implement them, which keeps the type switches
// in the passes exhaustive:
//
//	switch n := node.(type) {
//	case Conjunction:
//	case Compare:
//	case BooleanLiteral:
//	}
//
// IMMUTABILITY:
//
// Passes never mutate a node they received. Each pass returns a new tree;
// slices inside operands are copied before a pass changes them.
//
// PROPERTY REFERENCES:
//
// A PropertyRef starts out symbolic (only Name is set). Type resolution
// fills Alias, Column and SQLType. The reserved jcr:path reference stays
// symbolic until path expansion replaces the whole comparison.
package queryir
