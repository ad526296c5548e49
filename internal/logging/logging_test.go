package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := configure(logrus.New(), "debug", "json", &buf)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("component", "sim").Debug("map done")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "map done", line["msg"])
	assert.Equal(t, "sim", line["component"])
}

func TestConfigure_InvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	log := configure(logrus.New(), "loud", "text", &buf)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "invalid log level")
}

func TestFor(t *testing.T) {
	e := For("storage")
	assert.Equal(t, "storage", e.Data["component"])
}
