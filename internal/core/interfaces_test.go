// Package core_test tests the shared contracts.
package core_test

import (
	"strings"
	"testing"

	"github.com/book-expert/voice-clone/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlobPath(t *testing.T) {
	t.Parallel()

	relativePath, err := core.NewBlobPath(core.BucketUploads, "wav")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(relativePath, "uploads/"))
	assert.True(t, strings.HasSuffix(relativePath, ".wav"))

	other, err := core.NewBlobPath(core.BucketUploads, ".wav")
	require.NoError(t, err)
	assert.NotEqual(t, relativePath, other)

	_, err = core.NewBlobPath(core.Bucket("secrets"), ".mp3")
	require.ErrorIs(t, err, core.ErrInvalidBlobPath)
}

func TestCleanBlobPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "generated/a.mp3", want: "generated/a.mp3"},
		{name: "leading slash", input: "/uploads/a.wav", want: "uploads/a.wav"},
		{name: "backslashes", input: "uploads\\a.wav", want: "uploads/a.wav"},
		{name: "traversal", input: "uploads/../../etc/passwd", wantErr: true},
		{name: "unknown bucket", input: "other/a.wav", wantErr: true},
		{name: "nested", input: "uploads/x/a.wav", wantErr: true},
		{name: "bucket only", input: "uploads", wantErr: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, err := core.CleanBlobPath(testCase.input)
			if testCase.wantErr {
				require.ErrorIs(t, err, core.ErrInvalidBlobPath)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestParseModel(t *testing.T) {
	t.Parallel()

	model, err := core.ParseModel("")
	require.NoError(t, err)
	assert.Equal(t, core.ModelS1, model)

	model, err = core.ParseModel("speech-1.6")
	require.NoError(t, err)
	assert.Equal(t, core.ModelSpeech16, model)

	_, err = core.ParseModel("speech-9")
	require.ErrorIs(t, err, core.ErrUnknownModel)
}
