package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/df07/go-grid-raytracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning"
}

// WebLogger implements core.Logger by handing every message to a sink
type WebLogger struct {
	renderID string
	sink     func(ConsoleMessage)
}

// NewWebLogger creates a new web logger for a specific render. A nil sink
// only logs to stdout.
func NewWebLogger(renderID string, sink func(ConsoleMessage)) core.Logger {
	return &WebLogger{
		renderID: renderID,
		sink:     sink,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	// Also write to stdout for server logs
	fmt.Printf("[%s] %s", wl.renderID, message)

	if wl.sink != nil {
		wl.sink(ConsoleMessage{
			RenderID:  wl.renderID,
			Message:   message,
			Timestamp: time.Now(),
			Level:     messageLevel(message),
		})
	}
}

// messageLevel flags the renderer's discarded-sample diagnostics as warnings
func messageLevel(message string) string {
	if strings.Contains(message, "setting to black") || strings.HasPrefix(message, "Discarded") {
		return "warning"
	}
	return "info"
}
