package renderer

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/df07/go-grid-raytracer/pkg/sampler"
)

// ErrCheckpointMismatch reports a checkpoint taken for a different task layout
var ErrCheckpointMismatch = errors.New("checkpoint does not match the render")

// Checkpoint records where every task's sampler stopped. Empty sub-windows
// have no cursor.
type Checkpoint struct {
	TaskCount int                    `json:"task_count"`
	Window    image.Rectangle        `json:"window"`
	Cursors   map[int]sampler.Cursor `json:"cursors"`
}

// SaveCheckpoint writes cp to path as JSON
func SaveCheckpoint(path string, cp *Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint %s: %w", path, err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint written by SaveCheckpoint
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", path, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint %s: %w", path, err)
	}
	return &cp, nil
}

// takeCheckpoint records the cursor of every task with a sampler
func takeCheckpoint(tasks []*Task, window image.Rectangle) *Checkpoint {
	cp := &Checkpoint{
		TaskCount: len(tasks),
		Window:    window,
		Cursors:   make(map[int]sampler.Cursor, len(tasks)),
	}
	for _, t := range tasks {
		if s := t.Sampler(); s != nil {
			cp.Cursors[t.ID()] = s.Cursor()
		}
	}
	return cp
}

// resume moves every task's sampler to its checkpointed cursor
func resume(tasks []*Task, window image.Rectangle, cp *Checkpoint) error {
	if cp.TaskCount != len(tasks) || cp.Window != window {
		return fmt.Errorf("%w: %d tasks over %v, render has %d tasks over %v",
			ErrCheckpointMismatch, cp.TaskCount, cp.Window, len(tasks), window)
	}
	for _, t := range tasks {
		s := t.Sampler()
		c, ok := cp.Cursors[t.ID()]
		if s == nil {
			if ok {
				return fmt.Errorf("%w: cursor for empty task %d", ErrCheckpointMismatch, t.ID())
			}
			continue
		}
		if !ok {
			return fmt.Errorf("%w: no cursor for task %d", ErrCheckpointMismatch, t.ID())
		}
		if err := s.Resume(c); err != nil {
			return fmt.Errorf("task %d: %w", t.ID(), err)
		}
	}
	return nil
}
