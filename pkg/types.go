package pkg

import (
	"time"
)

// Shared wire types for the conversational data explorer.

// ConversationMessage represents a message in conversation history
type ConversationMessage struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// ----------------------------------------------------
// ================ Chat API ================

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// ChatResponse is the body returned by POST /chat
type ChatResponse struct {
	SessionID          string       `json:"session_id"`
	Reply              string       `json:"reply"`
	Tables             []Table      `json:"tables,omitempty"`
	ChartData          *ChartConfig `json:"chart_data,omitempty"`
	ClarifyingQuestion string       `json:"clarifying_question,omitempty"`
	Error              string       `json:"error,omitempty"`
}

// ResetRequest is the body of POST /reset
type ResetRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// UploadResult is returned by POST /upload and by the load_dataset tool
type UploadResult struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Rows      int    `json:"rows"`
	Cols      int    `json:"cols"`
	Schema    Schema `json:"schema"`
}

// ----------------------------------------------------
// ================ Dataset schema ================

// Schema buckets columns by inferred kind for schema-agnostic behavior
// across any uploaded file.
type Schema struct {
	Numeric     []string `json:"numeric"`
	Datetime    []string `json:"datetime"`
	Categorical []string `json:"categorical"`
}

// ----------------------------------------------------
// ================ Tables ================

// Table is a render-ready tabular result (describe, top-k, filter previews).
type Table struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// ----------------------------------------------------
// ================ Charts ================

// ChartConfig is a render-ready chart payload for the frontend.
type ChartConfig struct {
	Kind   string        `json:"kind"` // line, bar, area
	Title  string        `json:"title,omitempty"`
	XAxis  string        `json:"x_axis"`
	YAxis  string        `json:"y_axis"`
	Series []ChartSeries `json:"series"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name string       `json:"name"`
	Data []ChartPoint `json:"data"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ----------------------------------------------------
// ================ History ================

// HistoryResponse is returned by GET /sessions/{id}/history
type HistoryResponse struct {
	SessionID string                `json:"session_id"`
	Messages  []ConversationMessage `json:"messages"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}
