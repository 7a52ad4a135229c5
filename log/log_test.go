package log

import (
	"context"
	"log/slog"
	"testing"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(InitLogger)

	tests := []struct {
		name    string
		level   string
		debug   bool
		enabled slog.Level
		muted   slog.Level
	}{
		{
			name:    "defaults to info",
			enabled: slog.LevelInfo,
			muted:   slog.LevelDebug,
		},
		{
			name:    "debug flag lowers the level",
			debug:   true,
			enabled: slog.LevelDebug,
			muted:   slog.LevelDebug, // nothing below debug to mute
		},
		{
			name:    "explicit level",
			level:   "warn",
			enabled: slog.LevelWarn,
			muted:   slog.LevelInfo,
		},
		{
			name:    "explicit level wins over debug flag",
			level:   "error",
			debug:   true,
			enabled: slog.LevelError,
			muted:   slog.LevelDebug,
		},
		{
			name:    "unknown level falls back",
			level:   "loud",
			enabled: slog.LevelInfo,
			muted:   slog.LevelDebug,
		},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Configure(tt.level, tt.debug)
			if !Logger.Enabled(ctx, tt.enabled) {
				t.Errorf("Configure(%q, %v): level %v should be enabled", tt.level, tt.debug, tt.enabled)
			}
			if tt.muted != tt.enabled && Logger.Enabled(ctx, tt.muted) {
				t.Errorf("Configure(%q, %v): level %v should be muted", tt.level, tt.debug, tt.muted)
			}
		})
	}
}
