package audio

import (
	"gitlab.com/gomidi/midi/v2"
)

// EventFromMIDI converts a note message into an Event at offset. A note-on
// with zero velocity is a note-off. Other messages return false.
func EventFromMIDI(msg midi.Message, offset int) (Event, bool) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return NoteOnAt(offset, int(key), float64(vel)/127), true
	case msg.GetNoteEnd(&ch, &key):
		return NoteOffAt(offset, int(key)), true
	default:
		return Event{}, false
	}
}

// HandleMIDI queues the note messages of msg for the next block.
func (i *Instrument) HandleMIDI(msg midi.Message) bool {
	ev, ok := EventFromMIDI(msg, 0)
	if !ok {
		return false
	}
	i.events.push(event{Event: ev})
	return true
}
