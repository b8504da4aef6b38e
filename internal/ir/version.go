package ir

// Version constants for the IR and the analyzer.
const (
	// IRVersion is the IR schema version.
	IRVersion = "1"

	// AnalyzerVersion is the framesynth analyzer version.
	AnalyzerVersion = "0.1.0"
)
