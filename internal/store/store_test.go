// Package store_test tests the SQLite store.
package store_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/book-expert/voice-clone/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	var (
		mu      sync.Mutex
		current = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	)

	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()

		current = current.Add(time.Second)

		return current
	}
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()

	testStore, err := store.Open(filepath.Join(t.TempDir(), "data", "app.db"), store.WithClock(steppingClock()))
	require.NoError(t, err)

	t.Cleanup(func() { _ = testStore.Close() })

	require.NoError(t, testStore.Migrate(context.Background()))

	return testStore
}

func TestVoiceLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	testStore := openTestStore(t)

	transcript := "hello there"
	created, err := testStore.CreateVoice(ctx, store.NewVoice{
		Name:       "Alex",
		AudioPath:  "uploads/a.wav",
		Transcript: &transcript,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	fetched, err := testStore.GetVoice(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alex", fetched.Name)
	require.NotNil(t, fetched.AudioPath)
	assert.Equal(t, "uploads/a.wav", *fetched.AudioPath)
	require.NotNil(t, fetched.Transcript)
	assert.Equal(t, transcript, *fetched.Transcript)
	assert.True(t, created.CreatedAt.Equal(fetched.CreatedAt))

	require.NoError(t, testStore.DeleteVoice(ctx, created.ID))

	_, err = testStore.GetVoice(ctx, created.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteUnknownVoiceIsNoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	testStore := openTestStore(t)

	kept, err := testStore.CreateVoice(ctx, store.NewVoice{Name: "Kept", AudioPath: "uploads/k.mp3"})
	require.NoError(t, err)

	require.NoError(t, testStore.DeleteVoice(ctx, "does-not-exist"))

	voices, err := testStore.ListVoices(ctx)
	require.NoError(t, err)
	require.Len(t, voices, 1)
	assert.Equal(t, kept.ID, voices[0].ID)
}

func TestListVoicesNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	testStore := openTestStore(t)

	empty, err := testStore.ListVoices(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	names := []string{"first", "second", "third"}
	for _, name := range names {
		_, err := testStore.CreateVoice(ctx, store.NewVoice{Name: name, AudioPath: "uploads/" + name + ".wav"})
		require.NoError(t, err)
	}

	voices, err := testStore.ListVoices(ctx)
	require.NoError(t, err)
	require.Len(t, voices, 3)
	assert.Equal(t, "third", voices[0].Name)
	assert.Equal(t, "second", voices[1].Name)
	assert.Equal(t, "first", voices[2].Name)
}

func TestListGenerationsCappedAndOrdered(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	testStore := openTestStore(t)

	const total = store.GenerationListLimit + 5

	var lastID string

	for range total {
		generation, err := testStore.CreateGeneration(ctx, store.NewGeneration{
			Text:      "hello",
			AudioPath: "generated/x.mp3",
			Model:     "s1",
		})
		require.NoError(t, err)

		lastID = generation.ID
	}

	generations, err := testStore.ListGenerations(ctx)
	require.NoError(t, err)
	require.Len(t, generations, store.GenerationListLimit)
	assert.Equal(t, lastID, generations[0].ID)

	for i := 1; i < len(generations); i++ {
		assert.True(t, generations[i-1].CreatedAt.After(generations[i].CreatedAt),
			"generation %d must be newer than generation %d", i-1, i)
	}
}

func TestGenerationKeepsSoftVoiceReference(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	testStore := openTestStore(t)

	voice, err := testStore.CreateVoice(ctx, store.NewVoice{Name: "Alex", AudioPath: "uploads/a.wav"})
	require.NoError(t, err)

	_, err = testStore.CreateGeneration(ctx, store.NewGeneration{
		VoiceID:   &voice.ID,
		VoiceName: &voice.Name,
		Text:      "hi",
		AudioPath: "generated/g.mp3",
		Model:     "speech-1.6",
	})
	require.NoError(t, err)

	require.NoError(t, testStore.DeleteVoice(ctx, voice.ID))

	generations, err := testStore.ListGenerations(ctx)
	require.NoError(t, err)
	require.Len(t, generations, 1)
	require.NotNil(t, generations[0].VoiceID)
	assert.Equal(t, voice.ID, *generations[0].VoiceID)
	require.NotNil(t, generations[0].VoiceName)
	assert.Equal(t, "Alex", *generations[0].VoiceName)
	assert.Equal(t, "speech-1.6", generations[0].Model)
}

func TestSettingsUpsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	testStore := openTestStore(t)

	_, found, err := testStore.GetSetting(ctx, store.KeyFishAPIKey)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, testStore.SetSetting(ctx, store.KeyFishAPIKey, "first-key"))
	require.NoError(t, testStore.SetSetting(ctx, store.KeyFishAPIKey, "second-key"))

	value, found, err := testStore.GetSetting(ctx, store.KeyFishAPIKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second-key", value)
}
