package ir

// Version constants for the IR dialect and tooling.
const (
	// DialectVersion names the instruction set described by the catalogues.
	// It appears in every program description, so changing it changes every
	// fingerprint.
	DialectVersion = "1"

	// ToolVersion is the irc tool version.
	ToolVersion = "0.1.0"
)
