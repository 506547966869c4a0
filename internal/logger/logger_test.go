package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestLoggerLevels(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name        string
		logger      Logger
		log         func(l Logger)
		contains    string
		wantMissing bool
	}{
		{
			name:        "info hidden by default",
			logger:      Logger{},
			log:         func(l Logger) { l.Infof("scanning %s", "/code") },
			contains:    "scanning /code",
			wantMissing: true,
		},
		{
			name:     "info shown when verbose",
			logger:   Logger{Verbose: true},
			log:      func(l Logger) { l.Infof("scanning %s", "/code") },
			contains: "[info] scanning /code",
		},
		{
			name:     "info shown when debug",
			logger:   Logger{Debug: true},
			log:      func(l Logger) { l.Infof("scanning") },
			contains: "[info] scanning",
		},
		{
			name:        "debug hidden when only verbose",
			logger:      Logger{Verbose: true},
			log:         func(l Logger) { l.Debugf("depth %d", 3) },
			contains:    "depth 3",
			wantMissing: true,
		},
		{
			name:     "debug shown when debug",
			logger:   Logger{Debug: true},
			log:      func(l Logger) { l.Debugf("depth %d", 3) },
			contains: "[debug] depth 3",
		},
		{
			name:     "warn always shown",
			logger:   Logger{},
			log:      func(l Logger) { l.Warnf("skipped %s", "/root/private") },
			contains: "[warn] skipped /root/private",
		},
		{
			name:     "error always shown",
			logger:   Logger{},
			log:      func(l Logger) { l.Errorf("boom") },
			contains: "[error] boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := tt.logger
			l.Out = &buf

			tt.log(l)

			got := buf.String()
			if tt.wantMissing {
				if got != "" {
					t.Errorf("expected no output, got %q", got)
				}
				return
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("output %q does not contain %q", got, tt.contains)
			}
		})
	}
}
