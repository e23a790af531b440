package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewParsesLevel(t *testing.T) {
	if got := New("debug", false).GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("level = %v, want debug", got)
	}
	// Unknown levels fall back to info.
	if got := New("loud", false).GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("level = %v, want info fallback", got)
	}
	if got := New("", true).GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("level = %v, want info default", got)
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	// Must not panic and must stay disabled through derived loggers.
	l.WithComponent("pipeline").WithCard("card.png").Info().Msg("dropped")
	if l.GetLevel() != zerolog.Disabled {
		t.Fatalf("nop logger level = %v", l.GetLevel())
	}
}
