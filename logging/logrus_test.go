package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-edu/logging"
)

func TestProvider_JSONEntriesCarryComponent(t *testing.T) {
	var buf bytes.Buffer
	provider := logging.NewProvider(logging.Config{Level: "debug", Format: "json", Output: &buf})

	provider.GetLogger("edu.register").Info("registered %s", "ada@example.com")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "registered ada@example.com", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "edu.register", entry["component"])
}

func TestProvider_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	provider := logging.NewProvider(logging.Config{Level: "warn", Output: &buf})
	logger := provider.GetLogger("edu.http")

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown %d", 1)
	logger.Error("shown %d", 2)
	out := buf.String()
	assert.Contains(t, out, "shown 1")
	assert.Contains(t, out, "shown 2")
	assert.Equal(t, 2, strings.Count(out, "component=edu.http"))
}

func TestProvider_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	provider := logging.NewProvider(logging.Config{Level: "loud", Output: &buf})

	assert.Equal(t, "info", provider.Logrus().GetLevel().String())
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	provider := logging.NewProvider(logging.Config{Format: "json", Output: &buf})

	logger := provider.GetLogger("edu.courses").(*logging.Logger)
	logger.With("course_id", "c-1").Info("updated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "c-1", entry["course_id"])
	assert.Equal(t, "edu.courses", entry["component"])
}
