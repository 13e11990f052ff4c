package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"WARN":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"off":   zerolog.Disabled,
		"":      zerolog.InfoLevel,
		"loud":  zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetup_ConsoleAndFile(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "tracker.log")
	Setup(Config{Level: "info", File: file, Out: &buf})

	log.Debug().Msg("hidden")
	log.Info().Str("ticker", "AAPL").Msg("stock appended")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug line written at info level")
	}
	if !strings.Contains(buf.String(), "stock appended") {
		t.Errorf("console output = %q", buf.String())
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"ticker":"AAPL"`) {
		t.Errorf("file output = %q", data)
	}
}
