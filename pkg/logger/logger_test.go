package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewZapLoggerLevels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"bogus": zapcore.InfoLevel,
	}
	for in, want := range cases {
		l, err := NewZapLogger(in)
		if err != nil {
			t.Fatalf("NewZapLogger(%q): %v", in, err)
		}
		if !l.Core().Enabled(want) {
			t.Fatalf("NewZapLogger(%q) must enable %v", in, want)
		}
		if want > zapcore.DebugLevel && l.Core().Enabled(want-1) {
			t.Fatalf("NewZapLogger(%q) must not enable %v", in, want-1)
		}
	}
}

func TestNewCLILoggerIsQuiet(t *testing.T) {
	l, err := NewCLILogger()
	if err != nil {
		t.Fatalf("NewCLILogger: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) || !l.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("CLI logger must log warnings and above only")
	}
}
