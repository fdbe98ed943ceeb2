package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew_WritesToProvidedOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", &buf)

	log.Info("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("not-a-level", &buf)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestReopen_SwapsOutputDestination(t *testing.T) {
	var first, second bytes.Buffer
	log := New("info", &first)

	log.Info("to first")
	log.Reopen(&second)
	log.Info("to second")

	assert.Contains(t, first.String(), "to first")
	assert.NotContains(t, first.String(), "to second")
	assert.Contains(t, second.String(), "to second")
}
