package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// collect returns a sink that stores messages and the slice it appends to
func collect() (func(ConsoleMessage), *[]ConsoleMessage) {
	var messages []ConsoleMessage
	return func(msg ConsoleMessage) { messages = append(messages, msg) }, &messages
}

func TestWebLogger_BasicLogging(t *testing.T) {
	sink, messages := collect()
	logger := NewWebLogger("test-render-123", sink)

	logger.Printf("%s\n", "Test log message")

	if len(*messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(*messages))
	}
	msg := (*messages)[0]
	if msg.Message != "Test log message\n" {
		t.Errorf("Expected message 'Test log message\\n', got '%s'", msg.Message)
	}
	if msg.Level != "info" {
		t.Errorf("Expected level 'info', got '%s'", msg.Level)
	}
	if msg.RenderID != "test-render-123" {
		t.Errorf("Expected render id 'test-render-123', got '%s'", msg.RenderID)
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
	}
}

func TestWebLogger_FormattedMessages(t *testing.T) {
	sink, messages := collect()
	logger := NewWebLogger("test-render-format", sink)

	logger.Printf("Loaded mesh %s: %d triangles\n", "bunny.ply", 12345)

	expected := "Loaded mesh bunny.ply: 12345 triangles\n"
	if len(*messages) != 1 || (*messages)[0].Message != expected {
		t.Errorf("Expected formatted message '%s', got %v", expected, *messages)
	}
}

func TestWebLogger_Levels(t *testing.T) {
	tests := []struct {
		message  string
		expected string
	}{
		{"Completed final pass in 2s\n", "info"},
		{"Task 3: negative luminance -1 at (1.00, 2.00), setting to black\n", "warning"},
		{"Discarded 4 invalid samples (4 NaN, 0 negative, 0 infinite)\n", "warning"},
	}

	for _, tt := range tests {
		if got := messageLevel(tt.message); got != tt.expected {
			t.Errorf("messageLevel(%q): expected %q, got %q", tt.message, tt.expected, got)
		}
	}
}

func TestWebLogger_NilSink(t *testing.T) {
	logger := NewWebLogger("test-render-nil", nil)

	// This should not panic
	logger.Printf("Test message with nil sink\n")
}

func TestConsoleSink_DropsWhenFull(t *testing.T) {
	events := make(chan SSEEvent, 1)
	sink := consoleSink(context.Background(), events)

	// Neither call may block even though the channel only holds one event
	sink(ConsoleMessage{Message: "first", Level: "info"})
	sink(ConsoleMessage{Message: "second", Level: "info"})

	event := <-events
	if event.Type != "console" {
		t.Errorf("Expected a console event, got %q", event.Type)
	}
	var msg ConsoleMessage
	if err := json.Unmarshal([]byte(event.Data), &msg); err != nil {
		t.Fatalf("Failed to decode console event: %v", err)
	}
	if msg.Message != "first" {
		t.Errorf("Expected the first message, got %q", msg.Message)
	}
	select {
	case extra := <-events:
		t.Errorf("Expected the second message to be dropped, got %v", extra)
	default:
	}
}
