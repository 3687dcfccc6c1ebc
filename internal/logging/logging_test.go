package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_InfoHidesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)
	log.Debug("hidden")
	log.Info("shown")
	_ = log.Sync()

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_DebugShowsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true)
	log.Debug("visible")
	_ = log.Sync()

	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "shopkit")
}
