// Package score extracts note events from standard MIDI files.
package score

import (
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Default pitch range kept when extracting notes.
const (
	DefaultMinPitch = 36
	DefaultMaxPitch = 84
)

// Note is a single pitched event with its placement on the timeline.
type Note struct {
	Pitch    uint8
	Velocity uint8
	Start    float64 // seconds
	End      float64 // seconds
}

// Duration returns the note length in seconds.
func (n Note) Duration() float64 {
	return n.End - n.Start
}

// FromSMF reads a standard MIDI file and returns the notes whose pitch lies
// in [minPitch, maxPitch], ordered by start time as they appear in the file.
// Note-on events with zero velocity are treated as note-offs. A note still
// sounding at end of file is dropped.
func FromSMF(path string, minPitch, maxPitch uint8) ([]Note, error) {
	if minPitch > maxPitch {
		return nil, fmt.Errorf("score: invalid pitch range %d..%d", minPitch, maxPitch)
	}

	type key struct {
		channel uint8
		pitch   uint8
	}
	open := make(map[key]Note)
	var notes []Note

	err := smf.ReadTracks(path).Do(func(ev smf.TrackEvent) {
		var channel, pitch, velocity uint8
		t := float64(ev.AbsMicroSeconds) / 1e6
		switch {
		case ev.Message.GetNoteStart(&channel, &pitch, &velocity):
			open[key{channel, pitch}] = Note{
				Pitch:    pitch,
				Velocity: velocity,
				Start:    t,
			}
		case ev.Message.GetNoteEnd(&channel, &pitch):
			k := key{channel, pitch}
			n, ok := open[k]
			if !ok {
				return
			}
			delete(open, k)
			n.End = t
			if n.Pitch >= minPitch && n.Pitch <= maxPitch {
				notes = append(notes, n)
			}
		}
	}).Error()
	if err != nil {
		return nil, fmt.Errorf("score: read %q: %w", path, err)
	}

	sortByStart(notes)
	return notes, nil
}

// Stretch scales every note's start and end time by factor. A factor of 1.3
// slows the piece down by 30%.
func Stretch(notes []Note, factor float64) []Note {
	out := make([]Note, len(notes))
	for i, n := range notes {
		n.Start *= factor
		n.End *= factor
		out[i] = n
	}
	return out
}

// EndTime returns the largest end time across all notes, or 0 for none.
func EndTime(notes []Note) float64 {
	end := 0.0
	for _, n := range notes {
		if n.End > end {
			end = n.End
		}
	}
	return end
}

// StartTimes returns the start time of each note, in order.
func StartTimes(notes []Note) []float64 {
	out := make([]float64, len(notes))
	for i, n := range notes {
		out[i] = n.Start
	}
	return out
}

func sortByStart(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Start < notes[j].Start
	})
}
