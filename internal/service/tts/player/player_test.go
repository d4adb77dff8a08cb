package player

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlayRejectsNonWav(t *testing.T) {
	for _, format := range []string{"mp3", "ogg", ""} {
		err := New().Play(format, io.NopCloser(strings.NewReader("data")))
		assert.ErrorIs(t, err, ErrUnsupportedFormat, format)
	}
}

func TestPlayRejectsBrokenWav(t *testing.T) {
	err := NewWithVolume(-3).Play("WAV", io.NopCloser(strings.NewReader("not a riff header")))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}
