package clip

import (
	"math"
	"testing"
)

func TestEnvelopeWorkedExample(t *testing.T) {
	// sr=16000, 1 s note: 16000 sustain + 4800 release samples, attack 160.
	env := Envelope(1.0, 16000, DefaultEnvelopeOptions())
	if len(env) != 20800 {
		t.Fatalf("envelope length = %d, want 20800", len(env))
	}
	if env[0] != 0.0 {
		t.Fatalf("env[0] = %g, want 0", env[0])
	}
	if math.Abs(env[159]-1.0) > 1e-12 {
		t.Fatalf("attack end env[159] = %g, want 1", env[159])
	}
	if env[len(env)-1] != 0.0 {
		t.Fatalf("env[last] = %g, want 0", env[len(env)-1])
	}

	// Plateau between attack end and sustain end.
	for _, i := range []int{160, 8000, 15999} {
		if env[i] != 1.0 {
			t.Fatalf("plateau env[%d] = %g, want 1", i, env[i])
		}
	}

	// Release ramps monotonically down.
	for i := 16000; i < len(env)-1; i++ {
		if env[i+1] > env[i] {
			t.Fatalf("release not monotone at %d: %g -> %g", i, env[i], env[i+1])
		}
	}
}

func TestEnvelopeAttackDoesNotExtendLength(t *testing.T) {
	opt := DefaultEnvelopeOptions()
	short := Envelope(0.5, 16000, opt)
	want := int(16000*0.5) + int(16000*opt.Release)
	if len(short) != want {
		t.Fatalf("length = %d, want %d", len(short), want)
	}
}

func TestEnvelopeCapsNoteLength(t *testing.T) {
	opt := DefaultEnvelopeOptions()
	long := Envelope(10.0, 16000, opt)
	capped := Envelope(3.0, 16000, opt)
	if len(long) != len(capped) {
		t.Fatalf("10 s note not capped at 3 s: %d vs %d", len(long), len(capped))
	}
}

func TestEnvelopeAttackIsLinear(t *testing.T) {
	env := Envelope(1.0, 16000, DefaultEnvelopeOptions())
	attack := 160
	for i := 0; i < attack; i++ {
		want := float64(i) / float64(attack-1)
		if math.Abs(env[i]-want) > 1e-12 {
			t.Fatalf("attack env[%d] = %g, want %g", i, env[i], want)
		}
	}
}

func TestEnvelopeZeroLengthNote(t *testing.T) {
	opt := DefaultEnvelopeOptions()
	env := Envelope(0, 16000, opt)
	// Only the release remains.
	if len(env) != int(16000*opt.Release) {
		t.Fatalf("length = %d, want %d", len(env), int(16000*opt.Release))
	}
}

func TestEnvelopeInvalidSampleRate(t *testing.T) {
	if env := Envelope(1.0, 0, DefaultEnvelopeOptions()); env != nil {
		t.Fatalf("expected nil envelope for zero sample rate, got %d samples", len(env))
	}
}
