// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/mediaconv/pkg/types"
)

func TestNewWithSinkLevels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{level: "", wantInfo: true},
		{level: "debug", wantDebug: true, wantInfo: true},
		{level: "WARN"},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log, err := NewWithSink(types.LogConfig{Level: tt.level}, zapcore.AddSync(&buf))
			require.NoError(t, err)
			assert.Equal(t, tt.wantDebug, log.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.wantInfo, log.Core().Enabled(zapcore.InfoLevel))
			assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
		})
	}
}

func TestNewWithSinkJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithSink(types.LogConfig{Format: "json"}, zapcore.AddSync(&buf))
	require.NoError(t, err)
	log.Info("download ready", zap.String("path", "/tmp/song-converted.wav"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "download ready", entry["msg"])
	assert.Equal(t, "/tmp/song-converted.wav", entry["path"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewWithSinkConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithSink(types.LogConfig{}, zapcore.AddSync(&buf))
	require.NoError(t, err)
	log.Warn("engine teardown failed")
	assert.Contains(t, buf.String(), "engine teardown failed")
}

func TestNewWithSinkErrors(t *testing.T) {
	_, err := NewWithSink(types.LogConfig{Level: "loud"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
	_, err = NewWithSink(types.LogConfig{Format: "xml"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}
