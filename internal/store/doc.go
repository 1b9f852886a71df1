// Package store provides the SQLite-backed folder index and statement
// execution used around the query compiler.
//
// The folder index maps repository folder paths to folder ids. It
// implements the compiler's folder expander:
//   - a plain path designates exactly that folder
//   - a LIKE pattern designates every folder whose items' paths the
//     pattern matches, so "/a/%" covers /a and its whole subtree
//
// Path matching is case-sensitive and ids are returned in ascending order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce parent folder integrity
package store
