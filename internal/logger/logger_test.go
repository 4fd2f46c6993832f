package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("cart-service", &buf, slog.LevelDebug)

	log.Error("snapshot_save_failed", "Failed to save snapshot", "req-1", errors.New("disk full"), map[string]interface{}{
		"key": "food-delivery-cart",
	})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "Failed to save snapshot", record["msg"])
	assert.Equal(t, "cart-service", record["service"])
	assert.Equal(t, "snapshot_save_failed", record["action"])
	assert.Equal(t, "req-1", record["request_id"])

	fields, ok := record["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "food-delivery-cart", fields["key"])

	errGroup, ok := record["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "disk full", errGroup["msg"])
	assert.NotEmpty(t, errGroup["stack"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("cart-service", &buf, slog.LevelInfo)

	log.Debug("cart_command_applied", "debug is filtered", "", nil)
	assert.Zero(t, buf.Len())

	log.Info("service_started", "info passes", "", nil)
	assert.NotZero(t, buf.Len())
}

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
