package relay

import (
	"fmt"
	"os"

	"github.com/ohler55/ojg/oj"
)

// ReplayFile feeds a recorded frame log into the handler. The file holds a
// JSON array of "ws:m:event" frames in the same shape the relay delivers;
// frames of any other type are skipped. Useful for seeding a daemon from a
// capture without a live relay.
func ReplayFile(path string, handler Handler) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read replay file: %w", err)
	}
	parsed, err := oj.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse replay file %s: %w", path, err)
	}
	frames, ok := parsed.([]any)
	if !ok {
		return fmt.Errorf("replay file %s: expected a JSON array of frames", path)
	}
	for _, entry := range frames {
		frame, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if event, _ := frame["event"].(string); event != frameEvent {
			continue
		}
		data, _ := frame["data"].(map[string]any)
		dispatchEvent(handler, data)
	}
	return nil
}
