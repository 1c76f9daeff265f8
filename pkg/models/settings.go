package models

// TimeRange is a dashboard lookback window.
type TimeRange string

const (
	TimeRange1M  TimeRange = "1M"
	TimeRange3M  TimeRange = "3M"
	TimeRange6M  TimeRange = "6M"
	TimeRange1Y  TimeRange = "1Y"
	TimeRangeAll TimeRange = "ALL"
)

// OllamaSettings points at the local Ollama instance and names the models
// used for generation, judging, and embeddings.
type OllamaSettings struct {
	Host           string `json:"host"`
	PrimaryModel   string `json:"primaryModel"`
	JudgeModel     string `json:"judgeModel,omitempty"`
	EmbeddingModel string `json:"embeddingModel"`
}

// MCPServer describes an MCP server the UI may launch. Kept for settings
// fidelity; the engine itself does not speak MCP.
type MCPServer struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// FeatureSettings holds user-facing feature toggles.
type FeatureSettings struct {
	DualModelEnabled bool      `json:"dualModelEnabled"`
	DefaultTimeRange TimeRange `json:"defaultTimeRange"`
}

// AppSettings is the persisted application configuration. It is stored as a
// single record and served through a TTL-cached provider.
type AppSettings struct {
	Ollama   OllamaSettings  `json:"ollama"`
	MCP      MCPSettings     `json:"mcp"`
	Features FeatureSettings `json:"features"`
}

// MCPSettings wraps the configured MCP server list.
type MCPSettings struct {
	Servers []MCPServer `json:"servers"`
}

// DefaultSettings returns the settings used until the user saves their own.
func DefaultSettings() *AppSettings {
	return &AppSettings{
		Ollama: OllamaSettings{
			Host:           "http://localhost:11434",
			PrimaryModel:   "qwen2.5:14b",
			JudgeModel:     "qwen2.5:32b",
			EmbeddingModel: "nomic-embed-text",
		},
		MCP: MCPSettings{Servers: []MCPServer{}},
		Features: FeatureSettings{
			DualModelEnabled: false,
			DefaultTimeRange: TimeRange3M,
		},
	}
}
