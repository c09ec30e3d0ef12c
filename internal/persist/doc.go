// Package persist reads and writes the binary archive form of IR programs.
//
// A Reader is one decode session over a fully buffered archive. Decoding is
// tag driven: every operand starts with an operand-kind byte and every
// instruction with an operation ordinal, and fixed per-kind tables pick the
// routine that reads the rest. Scope headers are read eagerly by
// ReadArchive; instruction lists are decoded lazily, per scope, from the
// offset recorded in the scope's header.
//
// Writer is the mirror image and Encode produces a complete archive.
package persist
