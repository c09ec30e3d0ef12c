// Package ir defines the in-memory form of the persisted compiler IR:
// operands, instructions, scopes, the tag catalogues that give each of them a
// wire ordinal, and the compilation manager that owns shared constants.
//
// This package contains no wire code. internal/persist imports ir; ir imports
// nothing internal.
//
// Key design constraints:
//   - Operand and Instr are sealed: only types in this package implement them
//   - Catalogue declaration order is the wire format
//   - Descriptions (Describe) contain no floats and no offsets, so that
//     fingerprints depend only on program structure
package ir
