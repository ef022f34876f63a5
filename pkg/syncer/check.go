package syncer

import (
	"fmt"
)

// CheckSignals validates a pair of signals before any work is done on them.
func CheckSignals(a, b Signal) error {
	for _, s := range []struct {
		name   string
		signal Signal
	}{
		{"A", a},
		{"B", b},
	} {
		if err := s.signal.Err(); err != nil {
			return fmt.Errorf("signal %s: %w: %w", s.name, ErrIncomplete, err)
		}
		if !s.signal.IsFinalized() {
			return fmt.Errorf("signal %s: %w", s.name, ErrNotFinalized)
		}
		if len(s.signal.Samples()) == 0 {
			return fmt.Errorf("signal %s: %w", s.name, ErrEmptySignal)
		}
	}
	return nil
}
