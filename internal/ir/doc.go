// Package ir provides the literal value model shared by every stage of the
// content-query compiler.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types - numeric literals are int64
//   - Strings are NFC normalized before they reach a bind parameter or the
//     canonical JSON output
//   - IRValue is sealed; backends switch over it exhaustively
package ir
