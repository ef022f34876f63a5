// Package channelselector decides which (stream, channel) of each input
// provides the signal to compare.
package channelselector

import (
	"errors"
	"fmt"

	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
)

var (
	ErrInsufficientChannels = errors.New("insufficient channels")
	ErrInvalidTarget        = errors.New("invalid target")
)

type Input string

const (
	InputA = Input("A")
	InputB = Input("B")
)

type ErrInsufficientChannelsFor struct {
	Input    Input
	SourceID string
}

func (e ErrInsufficientChannelsFor) Error() string {
	return fmt.Sprintf("input %s (%s): %v", e.Input, e.SourceID, ErrInsufficientChannels)
}

func (e ErrInsufficientChannelsFor) Unwrap() error {
	return ErrInsufficientChannels
}

type StreamLayout struct {
	Index    int
	IsAudio  bool
	Channels types.Channel
}

func (s StreamLayout) qualifies() bool {
	return s.IsAudio && s.Channels > 0
}

type Layout struct {
	// SourceID is equal for two layouts iff they describe the same media.
	SourceID string
	Streams  []StreamLayout
}

type Target struct {
	Stream  int
	Channel types.Channel
}

func (t Target) String() string {
	return fmt.Sprintf("stream #%d channel #%d", t.Stream, t.Channel)
}

type Selection struct {
	A Target
	B Target
}

// Selector chooses targets, optionally with some of them fixed by the user.
type Selector struct {
	A *Target
	B *Target
}

// Select picks the targets automatically.
func Select(a, b Layout) (Selection, error) {
	return Selector{}.Select(a, b)
}

// Select returns the lowest-indexed qualifying targets. For different
// sources it is channel 0 of the first audio stream of each. For the same
// source input A gets channel 0 of the first audio stream and input B gets
// channel 1 of the first stream (at or after A's one) that has two channels.
//
// A target fixed in the Selector is validated and kept; when the inputs are
// the same source the other target is the lowest one distinct from it.
// The result depends only on the arguments.
func (s Selector) Select(a, b Layout) (Selection, error) {
	if s.A != nil {
		if err := a.validate(*s.A); err != nil {
			return Selection{}, fmt.Errorf("input %s: %w", InputA, err)
		}
	}
	if s.B != nil {
		if err := b.validate(*s.B); err != nil {
			return Selection{}, fmt.Errorf("input %s: %w", InputB, err)
		}
	}

	if a.SourceID == b.SourceID {
		return s.selectSameSource(a)
	}

	var result Selection
	if s.A != nil {
		result.A = *s.A
	} else {
		t, ok := a.firstChannel()
		if !ok {
			return Selection{}, ErrInsufficientChannelsFor{Input: InputA, SourceID: a.SourceID}
		}
		result.A = t
	}
	if s.B != nil {
		result.B = *s.B
	} else {
		t, ok := b.firstChannel()
		if !ok {
			return Selection{}, ErrInsufficientChannelsFor{Input: InputB, SourceID: b.SourceID}
		}
		result.B = t
	}
	return result, nil
}

func (s Selector) selectSameSource(l Layout) (Selection, error) {
	switch {
	case s.A != nil && s.B != nil:
		if *s.A == *s.B {
			return Selection{}, fmt.Errorf("inputs %s and %s are the same source and both use %s: %w", InputA, InputB, *s.A, ErrInvalidTarget)
		}
		return Selection{A: *s.A, B: *s.B}, nil
	case s.A != nil:
		t, ok := l.secondChannel(*s.A)
		if !ok {
			return Selection{}, ErrInsufficientChannelsFor{Input: InputB, SourceID: l.SourceID}
		}
		return Selection{A: *s.A, B: t}, nil
	case s.B != nil:
		t, ok := l.secondChannel(*s.B)
		if !ok {
			return Selection{}, ErrInsufficientChannelsFor{Input: InputA, SourceID: l.SourceID}
		}
		return Selection{A: t, B: *s.B}, nil
	}

	first, ok := l.firstChannel()
	if !ok {
		return Selection{}, ErrInsufficientChannelsFor{Input: InputA, SourceID: l.SourceID}
	}
	second, ok := l.channelOneFrom(first.Stream)
	if !ok {
		return Selection{}, ErrInsufficientChannelsFor{Input: InputB, SourceID: l.SourceID}
	}
	return Selection{A: first, B: second}, nil
}

func (l Layout) firstChannel() (Target, bool) {
	for _, stream := range l.Streams {
		if stream.qualifies() {
			return Target{Stream: stream.Index, Channel: 0}, true
		}
	}
	return Target{}, false
}

// channelOneFrom returns channel 1 of the first audio stream with at least
// two channels, starting the scan at stream streamIndex.
func (l Layout) channelOneFrom(streamIndex int) (Target, bool) {
	started := false
	for _, stream := range l.Streams {
		if stream.Index == streamIndex {
			started = true
		}
		if !started {
			continue
		}
		if stream.IsAudio && stream.Channels >= 2 {
			return Target{Stream: stream.Index, Channel: 1}, true
		}
	}
	return Target{}, false
}

// secondChannel finds the lowest qualifying target distinct from taken:
// first within taken's stream, then in the following streams, then in
// the preceding ones.
func (l Layout) secondChannel(taken Target) (Target, bool) {
	pos := -1
	for idx, stream := range l.Streams {
		if stream.Index == taken.Stream {
			pos = idx
			break
		}
	}
	if pos < 0 {
		return Target{}, false
	}

	stream := l.Streams[pos]
	for ch := types.Channel(0); ch < stream.Channels; ch++ {
		if ch != taken.Channel {
			return Target{Stream: stream.Index, Channel: ch}, true
		}
	}

	for i := 1; i < len(l.Streams); i++ {
		stream := l.Streams[(pos+i)%len(l.Streams)]
		if stream.qualifies() {
			return Target{Stream: stream.Index, Channel: 0}, true
		}
	}
	return Target{}, false
}

func (l Layout) validate(t Target) error {
	for _, stream := range l.Streams {
		if stream.Index != t.Stream {
			continue
		}
		if !stream.IsAudio {
			return fmt.Errorf("stream #%d is not an audio stream: %w", t.Stream, ErrInvalidTarget)
		}
		if t.Channel >= stream.Channels {
			return fmt.Errorf("stream #%d has %d channels, channel #%d requested: %w", t.Stream, stream.Channels, t.Channel, ErrInvalidTarget)
		}
		return nil
	}
	return fmt.Errorf("source %s has no stream #%d: %w", l.SourceID, t.Stream, ErrInvalidTarget)
}
