package blob_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-clone/internal/blob"
	"github.com/book-expert/voice-clone/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*blob.FilesystemStore, string) {
	t.Helper()

	root := filepath.Join(t.TempDir(), "public")

	testLogger, err := logger.New(t.TempDir(), "blob-test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = testLogger.Close() })

	store, err := blob.NewFilesystemStore(root, testLogger)
	require.NoError(t, err)

	return store, root
}

func TestFilesystemStore_StoreReadDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, root := newTestStore(t)

	_, statErr := os.Stat(filepath.Join(root, "uploads"))
	require.True(t, os.IsNotExist(statErr), "bucket directories are created lazily")

	data := []byte("RIFF fake wav")

	relativePath, err := store.Store(ctx, data, core.BucketUploads, ".wav")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(relativePath, "uploads/"))
	assert.True(t, strings.HasSuffix(relativePath, ".wav"))

	onDisk, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relativePath)))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	readBack, err := store.Read(ctx, relativePath)
	require.NoError(t, err)
	assert.Equal(t, data, readBack)

	require.NoError(t, store.Delete(ctx, relativePath))

	_, err = store.Read(ctx, relativePath)
	require.ErrorIs(t, err, core.ErrBlobNotFound)

	require.NoError(t, store.Delete(ctx, relativePath), "deleting a missing blob is a no-op")
}

func TestFilesystemStore_GeneratedBucket(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	first, err := store.Store(context.Background(), []byte("a"), core.BucketGenerated, blob.GeneratedExtension)
	require.NoError(t, err)

	second, err := store.Store(context.Background(), []byte("a"), core.BucketGenerated, blob.GeneratedExtension)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first, "generated/"))
	assert.True(t, strings.HasSuffix(first, ".mp3"))
	assert.NotEqual(t, first, second, "identical content is not deduplicated")
}

func TestFilesystemStore_RejectsEscapingPaths(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.Read(ctx, "../secrets.txt")
	require.ErrorIs(t, err, core.ErrInvalidBlobPath)

	err = store.Delete(ctx, "uploads/../../etc/passwd")
	require.ErrorIs(t, err, core.ErrInvalidBlobPath)
}

func TestNewFilesystemStore_EmptyRoot(t *testing.T) {
	t.Parallel()

	_, err := blob.NewFilesystemStore("", nil)
	require.ErrorIs(t, err, blob.ErrRootEmpty)
}

func TestUploadExtension(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"sample.wav":        ".wav",
		"Sample.WAV":        ".WAV",
		"take.Mp3":          ".Mp3",
		"clip.m4a":          ".m4a",
		"noextension":       ".mp3",
		"weird.w@v":         ".mp3",
		"":                  ".mp3",
		"dir\\voice.flac":   ".flac",
		"archive.extremely": ".mp3",
	}

	for filename, want := range tests {
		assert.Equal(t, want, blob.UploadExtension(filename), filename)
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "audio/mpeg", blob.ContentType("generated/a.mp3"))
	assert.Equal(t, "audio/wav", blob.ContentType("uploads/a.WAV"))
	assert.Equal(t, "application/octet-stream", blob.ContentType("uploads/a.bin"))
	assert.True(t, blob.IsValidAudioFile("voice.ogg"))
	assert.False(t, blob.IsValidAudioFile("notes.txt"))
}
