package eventio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// replayRecord is the envelope used by the newline-delimited JSON
// recording format: exactly one of Pick/Origin/Tick is set.
type replayRecord struct {
	Pick   *PickRecord   `json:"pick,omitempty"`
	Origin *OriginRecord `json:"origin,omitempty"`
	Tick   *string       `json:"tick,omitempty"` // RFC3339 timestamp
}

// Replay reads a recording of events from r and drives src with them
// in file order. This is an explicit, opt-in mechanism (wired to
// cmd/autolocd's "-replay" flag): autoloc does not replay past events
// automatically on startup, resolving the Open Question the
// distillation left unanswered.
func Replay(r io.Reader, src Source) error {
	dec := json.NewDecoder(bufio.NewReader(r))
	lineNo := 0
	for dec.More() {
		lineNo++
		var rec replayRecord
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("replay record %d: %w", lineNo, err)
		}
		switch {
		case rec.Pick != nil:
			if err := src.OnPick(*rec.Pick); err != nil {
				return fmt.Errorf("replay record %d: OnPick: %w", lineNo, err)
			}
		case rec.Origin != nil:
			if err := src.OnOrigin(*rec.Origin); err != nil {
				return fmt.Errorf("replay record %d: OnOrigin: %w", lineNo, err)
			}
		case rec.Tick != nil:
			t, err := parseTick(*rec.Tick)
			if err != nil {
				return fmt.Errorf("replay record %d: %w", lineNo, err)
			}
			if err := src.OnTick(t); err != nil {
				return fmt.Errorf("replay record %d: OnTick: %w", lineNo, err)
			}
		}
	}
	return nil
}

func parseTick(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
