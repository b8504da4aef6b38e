package ir

// NOTE: These are store-internal types, not part of the schema value model.
// They use auto-increment IDs for FK references.

// PassRecord summarizes one recorded analysis pass (store-layer).
type PassRecord struct {
	ID              string `json:"id"`           // UUIDv7 pass ID
	ProgramHash     string `json:"program_hash"` // Content-addressed
	Source          string `json:"source,omitempty"`
	AnalyzerVersion string `json:"analyzer_version"`
	Calls           int64  `json:"calls"`
	Synthesized     int64  `json:"synthesized"`
	Diagnostics     int64  `json:"diagnostics"`
	CreatedAt       int64  `json:"created_at"` // Unix seconds
}

// ScopeRecord is one synthesized scope with its property list (store-layer).
type ScopeRecord struct {
	ID         int64            `json:"id"` // Auto-increment (store FK)
	PassID     string           `json:"pass_id"`
	CallID     string           `json:"call_id"`
	RootMarker string           `json:"root_marker"`
	Scope      string           `json:"scope"`
	Ordinal    int64            `json:"ordinal"` // Position in the root's associated scope list
	Properties []SchemaProperty `json:"properties"`
}

// DiagnosticRecord is one reported interpretation error (store-layer).
type DiagnosticRecord struct {
	ID      int64  `json:"id"` // Auto-increment (store FK)
	PassID  string `json:"pass_id"`
	CallID  string `json:"call_id"`
	Callee  string `json:"callee"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Pos     string `json:"pos,omitempty"`
}
