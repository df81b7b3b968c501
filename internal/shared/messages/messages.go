// Package messages holds the user-facing pt-BR text catalog. The engine
// reports categories and sentinel errors; the texts shown for them live
// here so presentation layers never hardcode copy.
package messages

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed messages.json
var raw []byte

type MessageText struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type Messages struct {
	Insights map[string]string      `json:"insights"`
	Errors   map[string]MessageText `json:"errors"`
	Notices  map[string]MessageText `json:"notices"`
}

var (
	loaded   Messages
	loadOnce sync.Once
	loadErr  error
)

// Load parses the embedded catalog and caches the result.
// Safe to call from multiple goroutines.
func Load() (*Messages, error) {
	loadOnce.Do(func() {
		if err := json.Unmarshal(raw, &loaded); err != nil {
			loadErr = fmt.Errorf("failed to parse messages catalog: %w", err)
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return &loaded, nil
}

// Insight returns the text for an insight category key (the String() of
// a report.Insight). Unknown keys fall back to the neutral message.
func (m *Messages) Insight(key string) string {
	if text, ok := m.Insights[key]; ok {
		return text
	}
	return m.Insights["keep_recording"]
}

// Error returns the titled text for an error key.
func (m *Messages) Error(key string) MessageText {
	return m.Errors[key]
}

// Notice returns the titled text for a success notice key.
func (m *Messages) Notice(key string) MessageText {
	return m.Notices[key]
}
