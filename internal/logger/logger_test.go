package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		development bool
		want        zapcore.Level
	}{
		{name: "debug", level: "debug", want: zapcore.DebugLevel},
		{name: "warn development", level: "WARN", development: true, want: zapcore.WarnLevel},
		{name: "unknown falls back", level: "loud", want: zapcore.InfoLevel},
		{name: "empty falls back", level: "", want: zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New("jotnotes-test", tt.level, tt.development)
			require.NoError(t, err)
			assert.True(t, log.Desugar().Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, log.Desugar().Core().Enabled(tt.want-1))
			}
		})
	}
}
