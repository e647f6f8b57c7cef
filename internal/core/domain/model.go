package domain

// Mode identifies which part of a table is scored.
type Mode string

const (
	// ModeFull compares structure and cell text.
	ModeFull Mode = "full"
	// ModeStructure compares tags and span attributes only.
	ModeStructure Mode = "structure"
)

// Prerequisite is the outcome of the table normalization stage that has to
// succeed before a table can be scored.
type Prerequisite struct {
	Success bool   `json:"success" yaml:"success"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result holds the outcome of a table similarity computation.
type Result struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Passed  bool    `json:"passed"`
	Success bool    `json:"success"`
	// Error is set when Success is false.
	Error string `json:"error,omitempty"`

	EditDistance     float64 `json:"edit_distance"`
	PredictedNodes   int     `json:"predicted_nodes"`
	GroundTruthNodes int     `json:"groundtruth_nodes"`
	MaxNodes         int     `json:"max_nodes"`
	Mode             Mode    `json:"mode"`
	Algorithm        string  `json:"algorithm"`
	// Degraded reports that the distance came from the node-count fallback.
	Degraded  bool                   `json:"degraded"`
	Threshold float64                `json:"threshold"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
