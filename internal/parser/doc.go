// Package parser contains the two query front ends: a SQL-like grammar
//
//	SELECT <props> FROM <type> WHERE <predicate> ORDER BY <prop> [ASC|DESC]
//
// and an XPath-like grammar
//
//	/jcr:root/<path>//element(*, <type>)[<predicate>] order by @<prop> ascending
//
// Both produce a queryir.Query with the same predicate shape for the same
// logical condition. Path constraints are emitted as ordinary comparisons
// against the reserved jcr:path property; folder expansion happens later.
//
// Parsing stops at the first error. Every failure is a *SyntaxError carrying
// the offending token and its position.
package parser
