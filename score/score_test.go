package score

import (
	"math"
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// writeTestSMF writes a one-track MIDI file at 120 BPM containing the given
// (pitch, velocity, startQuarters, endQuarters) tuples.
func writeTestSMF(t *testing.T, notes [][4]int) string {
	t.Helper()

	clock := smf.MetricTicks(960)
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))

	type edge struct {
		tick uint32
		on   bool
		key  uint8
		vel  uint8
	}
	var edges []edge
	for _, n := range notes {
		edges = append(edges,
			edge{tick: clock.Ticks4th() * uint32(n[2]), on: true, key: uint8(n[0]), vel: uint8(n[1])},
			edge{tick: clock.Ticks4th() * uint32(n[3]), on: false, key: uint8(n[0])},
		)
	}
	for i := 0; i < len(edges); i++ {
		for j := i + 1; j < len(edges); j++ {
			if edges[j].tick < edges[i].tick {
				edges[i], edges[j] = edges[j], edges[i]
			}
		}
	}

	var prev uint32
	for _, e := range edges {
		delta := e.tick - prev
		prev = e.tick
		if e.on {
			tr.Add(delta, midi.NoteOn(0, e.key, e.vel))
		} else {
			tr.Add(delta, midi.NoteOff(0, e.key))
		}
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = clock
	if err := s.Add(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}

	path := filepath.Join(t.TempDir(), "notes.mid")
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("write smf: %v", err)
	}
	return path
}

func TestFromSMFExtractsNotesWithTimes(t *testing.T) {
	// 120 BPM: one quarter note = 0.5 s.
	path := writeTestSMF(t, [][4]int{
		{60, 100, 0, 2},
		{64, 80, 2, 4},
	})

	notes, err := FromSMF(path, DefaultMinPitch, DefaultMaxPitch)
	if err != nil {
		t.Fatalf("FromSMF: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}

	if notes[0].Pitch != 60 || notes[0].Velocity != 100 {
		t.Fatalf("unexpected first note: %+v", notes[0])
	}
	if math.Abs(notes[0].Start-0.0) > 1e-3 || math.Abs(notes[0].End-1.0) > 1e-3 {
		t.Fatalf("first note times: start=%g end=%g", notes[0].Start, notes[0].End)
	}
	if math.Abs(notes[1].Start-1.0) > 1e-3 || math.Abs(notes[1].End-2.0) > 1e-3 {
		t.Fatalf("second note times: start=%g end=%g", notes[1].Start, notes[1].End)
	}
}

func TestFromSMFFiltersPitchRange(t *testing.T) {
	path := writeTestSMF(t, [][4]int{
		{20, 100, 0, 1}, // below range
		{60, 100, 1, 2},
		{100, 100, 2, 3}, // above range
	})

	notes, err := FromSMF(path, DefaultMinPitch, DefaultMaxPitch)
	if err != nil {
		t.Fatalf("FromSMF: %v", err)
	}
	if len(notes) != 1 || notes[0].Pitch != 60 {
		t.Fatalf("expected only pitch 60, got %+v", notes)
	}
}

func TestFromSMFRejectsInvalidRange(t *testing.T) {
	if _, err := FromSMF("does-not-matter.mid", 84, 36); err == nil {
		t.Fatal("expected error for inverted pitch range")
	}
}

func TestStretchScalesTimes(t *testing.T) {
	notes := []Note{
		{Pitch: 60, Velocity: 100, Start: 1.0, End: 2.0},
		{Pitch: 62, Velocity: 90, Start: 2.0, End: 4.0},
	}
	out := Stretch(notes, 1.3)
	if math.Abs(out[0].Start-1.3) > 1e-12 || math.Abs(out[1].End-5.2) > 1e-12 {
		t.Fatalf("unexpected stretched times: %+v", out)
	}
	// Input untouched.
	if notes[0].Start != 1.0 {
		t.Fatalf("input mutated: %+v", notes[0])
	}
}

func TestEndTime(t *testing.T) {
	if got := EndTime(nil); got != 0 {
		t.Fatalf("EndTime(nil) = %g", got)
	}
	notes := []Note{
		{Start: 0, End: 1.5},
		{Start: 1, End: 3.25},
		{Start: 2, End: 2.5},
	}
	if got := EndTime(notes); got != 3.25 {
		t.Fatalf("EndTime = %g, want 3.25", got)
	}
}
