// Package router classifies incoming messages into coarse intents
// before the model sees them. Keyword detection is deliberately cheap:
// it steers tool hints and catches the one case that needs a
// clarifying question before any model call is made.
package router

import (
	"strings"

	"datachat_llm/internal/dataset"
	"datachat_llm/internal/session"
)

// Intent is the coarse category of a user message.
type Intent string

const (
	IntentUpload   Intent = "upload"
	IntentTopK     Intent = "top_k"
	IntentPlot     Intent = "plot"
	IntentDescribe Intent = "describe"
	IntentFilter   Intent = "filter"
	IntentChat     Intent = "chat"
)

var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentUpload, []string{"upload", "csv", "excel"}},
	{IntentTopK, []string{"top", "largest", "by "}},
	{IntentPlot, []string{"plot", "chart", "trend", "graph"}},
	{IntentDescribe, []string{"describe", "summary", "stats"}},
	{IntentFilter, []string{"filter", "where"}},
}

// Detect classifies a message. First matching keyword family wins;
// anything unmatched is general chat.
func Detect(message string) Intent {
	lower := strings.ToLower(message)
	for _, ik := range intentKeywords {
		for _, kw := range ik.keywords {
			if strings.Contains(lower, kw) {
				return ik.intent
			}
		}
	}
	return IntentChat
}

// ClarifyPlot returns a clarifying question when a plot request cannot
// pick an x-axis on its own: the active dataset has no datetime column
// and the session has no remembered preference. Empty means proceed.
func ClarifyPlot(s *session.Session, intent Intent) string {
	if intent != IntentPlot {
		return ""
	}
	if s.Pref("date_col") != "" {
		return ""
	}

	f, err := s.Registry.Get("")
	if err != nil {
		// the upload nudge comes from the tools, not the router
		return ""
	}
	for _, col := range f.Columns() {
		if col.Kind == dataset.KindDatetime {
			return ""
		}
	}
	return "Which column should be used on the x-axis? The dataset has no date column, so tell me e.g. \"use region\" or name any column."
}
