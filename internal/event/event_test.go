package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	assert.Equal(t, "PhaseStarted", PhaseStarted.String())
	assert.Equal(t, "FileUploaded", FileUploaded.String())
	assert.Equal(t, "EntryPublished", EntryPublished.String())
	assert.Equal(t, "Unknown", Type(0).String())
	assert.Equal(t, "Unknown", Type(99).String())
}
