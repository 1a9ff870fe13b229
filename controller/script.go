package controller

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ScriptStep holds Buttons for Frames consecutive frames. A script is one
// step per line, "<frames> <BUTTONS>", with # comments.
type ScriptStep struct {
	Frames  int
	Buttons Buttons
}

func (s ScriptStep) String() string {
	return fmt.Sprintf("%d %s", s.Frames, s.Buttons)
}

// ReadScript parses a recorded input script.
func ReadScript(r io.Reader) ([]ScriptStep, error) {
	var steps []ScriptStep
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: want \"<frames> <buttons>\", got %q", lineNo, line)
		}
		frames, err := strconv.Atoi(parts[0])
		if err != nil || frames <= 0 {
			return nil, fmt.Errorf("line %d: invalid frame count %q", lineNo, parts[0])
		}
		b, err := ParseButtons(parts[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		steps = append(steps, ScriptStep{Frames: frames, Buttons: b})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

// Recorder writes one script line per run of identical input.
type Recorder struct {
	w       io.Writer
	current ScriptStep
}

// NewRecorder records to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w}
}

// Record notes the buttons held during one frame.
func (r *Recorder) Record(b Buttons) error {
	if r.current.Frames > 0 && b == r.current.Buttons {
		r.current.Frames++
		return nil
	}
	if err := r.Flush(); err != nil {
		return err
	}
	r.current = ScriptStep{Frames: 1, Buttons: b}
	return nil
}

// Flush writes the pending run.
func (r *Recorder) Flush() error {
	if r.current.Frames == 0 {
		return nil
	}
	_, err := fmt.Fprintln(r.w, r.current)
	r.current = ScriptStep{}
	return err
}
