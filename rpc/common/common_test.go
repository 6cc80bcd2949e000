package common

import (
	"bytes"
	"encoding/json"
	"log"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logger.LogLevel
		ok   bool
	}{
		{"", logger.INFO, true},
		{"debug", logger.DEBUG, true},
		{"INFO", logger.INFO, true},
		{"warn", logger.WARNING, true},
		{"warning", logger.WARNING, true},
		{"error", logger.ERROR, true},
		{"loud", logger.INFO, false},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
		} else {
			require.Error(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := &kvLogger{name: "store", logger: log.New(&buf, "", 0)}
	l.SetLevel(logger.WARNING)

	l.Infof("hidden")
	l.Warningf("shown %d", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN  | store           | shown 1")
}

func TestInitLoggersRepeated(t *testing.T) {
	require.NoError(t, InitLoggers("info"))
	require.NotPanics(t, func() {
		require.NoError(t, InitLoggers("debug"))
	})
	require.NoError(t, InitLoggers("error"))
	assert.Error(t, InitLoggers("loud"))
}

func TestMessageTypeJSON(t *testing.T) {
	for _, mt := range []MessageType{MsgTError, MsgTKVSet, MsgTKVGet, MsgTKVInfo} {
		data, err := json.Marshal(mt)
		require.NoError(t, err)

		var decoded MessageType
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, mt, decoded)
	}

	data, err := json.Marshal(NewGetRequest("k"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"msg_type":"get","key":"k"}`, string(data))

	var mt MessageType
	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &mt))
}

func TestResponseFactories(t *testing.T) {
	resp := NewGetResponse("", true, nil)
	assert.True(t, resp.Ok)
	assert.Empty(t, resp.Err)

	resp = NewSetResponse(assert.AnError)
	assert.Equal(t, MsgTKVSet, resp.MsgType)
	assert.Equal(t, assert.AnError.Error(), resp.Err)
}

func TestConfigString(t *testing.T) {
	server := ServerConfig{
		Namespaces: []string{"querySubs", "settings"},
		DataDir:    "/data",
		Transport:  ServerTransportConfig{Endpoint: ":8080"},
		LogLevel:   "info",
	}
	s := server.String()
	assert.Contains(t, s, "querySubs")
	assert.Contains(t, s, "(build default)")
	assert.Contains(t, s, ":8080")

	client := ClientConfig{Transport: ClientTransportConfig{Endpoints: []string{"a:1", "b:2"}}}
	s = client.String()
	assert.Contains(t, s, "a:1")
	assert.Contains(t, s, "b:2")
}
