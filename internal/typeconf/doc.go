// Package typeconf describes how repository properties map onto the
// physical content schema.
//
// A Catalog is loaded once from CUE files and is read-only afterwards. The
// query compiler resolves properties through a per-content-type View, which
// implements TypeConfiguration. Views and catalogs are safe for concurrent
// use.
package typeconf
