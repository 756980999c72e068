package remote

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Decoder is the physical infrared decoder as seen by the daemon: a polled
// source of raw command codes. Implementations are thin and replaceable.
type Decoder interface {
	// Poll returns the next decoded event if one is available. It never
	// blocks.
	Poll() (RawEvent, bool)

	// Resume re-arms the decoder after an event has been consumed. Decoders
	// that deliver continuously may treat this as a no-op.
	Resume()
}

// Drain discards every event currently buffered in the decoder. The session
// machine uses this to flush stray presses before logging begins.
func Drain(d Decoder) {
	for {
		if _, ok := d.Poll(); !ok {
			return
		}
		d.Resume()
	}
}

// LineDecoder reads decoded events as text lines from a byte stream, one
// event per line:
//
//	<code>
//	<code>,repeat
//
// This is the framing used by serial IR receiver bridges. Lines that do not
// parse are dropped. A reader goroutine feeds a buffered channel so Poll
// stays non-blocking.
type LineDecoder struct {
	events chan RawEvent
}

// NewLineDecoder starts reading events from r. Reading stops when r reaches
// EOF or fails.
func NewLineDecoder(r io.Reader) *LineDecoder {
	d := &LineDecoder{events: make(chan RawEvent, 64)}
	go d.read(r)
	return d
}

func (d *LineDecoder) read(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		ev, ok := parseEventLine(scanner.Text())
		if !ok {
			continue
		}
		select {
		case d.events <- ev:
		default:
			// Buffer full: drop the oldest pending event to keep the
			// stream current rather than stall the bridge.
			select {
			case <-d.events:
			default:
			}
			d.events <- ev
		}
	}
	close(d.events)
}

// Poll returns the next buffered event without blocking.
func (d *LineDecoder) Poll() (RawEvent, bool) {
	select {
	case ev, ok := <-d.events:
		if !ok {
			return RawEvent{}, false
		}
		return ev, true
	default:
		return RawEvent{}, false
	}
}

// Resume is a no-op; the reader goroutine never stops between events.
func (d *LineDecoder) Resume() {}

func parseEventLine(line string) (RawEvent, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return RawEvent{}, false
	}

	codePart, flagPart, hasFlag := strings.Cut(line, ",")
	code, err := strconv.ParseUint(strings.TrimSpace(codePart), 10, 32)
	if err != nil {
		return RawEvent{}, false
	}

	ev := RawEvent{Code: uint32(code)}
	if hasFlag {
		repeat := strings.EqualFold(strings.TrimSpace(flagPart), "repeat")
		ev.Repeat = &repeat
	}
	return ev, true
}
