package ast

// Version constants recorded with cached analysis results.
const (
	// SchemaVersion is the version of the ToValue tree layout.
	SchemaVersion = "1"

	// ToolVersion is the analyzer version.
	ToolVersion = "0.1.0"
)
