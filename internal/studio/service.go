// Package studio implements the voice clone operations on top of the
// relational store, the blob store and the text-to-speech provider.
package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-clone/internal/blob"
	"github.com/book-expert/voice-clone/internal/core"
	"github.com/book-expert/voice-clone/internal/store"
	"github.com/book-expert/voice-clone/internal/tts/text"
)

const (
	maskPrefix    = "***"
	maskSuffixLen = 4
)

var (
	// ErrInvalidInput marks missing or malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrVoiceNotFound is returned when a voice id matches no voice.
	ErrVoiceNotFound = errors.New("voice not found")
	// ErrAPIKeyNotConfigured is returned when synthesis is requested before a key was saved.
	ErrAPIKeyNotConfigured = errors.New("fish audio API key not configured")
)

// Repository is the subset of the relational store the service needs.
type Repository interface {
	CreateVoice(ctx context.Context, input store.NewVoice) (*store.Voice, error)
	GetVoice(ctx context.Context, id string) (*store.Voice, error)
	ListVoices(ctx context.Context) ([]store.Voice, error)
	DeleteVoice(ctx context.Context, id string) error
	CreateGeneration(ctx context.Context, input store.NewGeneration) (*store.Generation, error)
	ListGenerations(ctx context.Context) ([]store.Generation, error)
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Service coordinates the stores and the provider.
type Service struct {
	repo        Repository
	blobs       core.BlobStore
	synthesizer core.Synthesizer
	notifier    core.Notifier
	tagScanner  *text.TagScanner
	log         *logger.Logger
}

// NewService wires a Service. notifier may be nil.
func NewService(
	repo Repository,
	blobs core.BlobStore,
	synthesizer core.Synthesizer,
	notifier core.Notifier,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		blobs:       blobs,
		synthesizer: synthesizer,
		notifier:    notifier,
		tagScanner:  text.NewTagScanner(),
		log:         log,
	}
}

// NewVoice is an uploaded reference clip.
type NewVoice struct {
	Name       string
	Transcript *string
	Filename   string
	Audio      []byte
}

// Settings is the public view of the stored settings.
type Settings struct {
	HasAPIKey    bool
	MaskedAPIKey *string
}

// SynthesisInput is one text-to-speech request.
type SynthesisInput struct {
	Text    string
	VoiceID *string
	Model   string
}

// SynthesisResult is a persisted generation and the URL its audio is served under.
type SynthesisResult struct {
	Generation *store.Generation
	AudioURL   string
}

// ListVoices returns all voices, newest first.
func (s *Service) ListVoices(ctx context.Context) ([]store.Voice, error) {
	voices, err := s.repo.ListVoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}

	return voices, nil
}

// GetVoice returns one voice or ErrVoiceNotFound.
func (s *Service) GetVoice(ctx context.Context, id string) (*store.Voice, error) {
	voice, err := s.repo.GetVoice(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrVoiceNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load voice %s: %w", id, err)
	}

	return voice, nil
}

// CreateVoice stores the clip in the uploads bucket and then inserts the row.
func (s *Service) CreateVoice(ctx context.Context, input NewVoice) (*store.Voice, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	if len(input.Audio) == 0 {
		return nil, fmt.Errorf("%w: audio is required", ErrInvalidInput)
	}

	if !blob.IsValidAudioFile(input.Filename) {
		s.log.Warn("Uploaded file %q has no known audio extension, storing it anyway", input.Filename)
	}

	audioPath, err := s.blobs.Store(ctx, input.Audio, core.BucketUploads, blob.UploadExtension(input.Filename))
	if err != nil {
		return nil, fmt.Errorf("failed to store reference audio: %w", err)
	}

	voice, err := s.repo.CreateVoice(ctx, store.NewVoice{
		Name:       name,
		AudioPath:  audioPath,
		Transcript: optionalText(input.Transcript),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create voice: %w", err)
	}

	s.log.Info("Created voice %s (%s) with audio %s", voice.ID, voice.Name, audioPath)

	return voice, nil
}

// DeleteVoice removes the voice's blob and then its row. Generations that
// reference the voice are left as they are.
func (s *Service) DeleteVoice(ctx context.Context, id string) error {
	voice, err := s.GetVoice(ctx, id)
	if err != nil {
		return err
	}

	if voice.AudioPath != nil && *voice.AudioPath != "" {
		deleteErr := s.blobs.Delete(ctx, *voice.AudioPath)
		if deleteErr != nil {
			return fmt.Errorf("failed to delete audio for voice %s: %w", id, deleteErr)
		}
	}

	err = s.repo.DeleteVoice(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete voice %s: %w", id, err)
	}

	s.log.Info("Deleted voice %s", id)

	return nil
}

// ListGenerations returns the most recent generations.
func (s *Service) ListGenerations(ctx context.Context) ([]store.Generation, error) {
	generations, err := s.repo.ListGenerations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}

	return generations, nil
}

// Settings reports whether an API key is stored, masked to its last four characters.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	apiKey, err := s.apiKey(ctx)
	if err != nil {
		return Settings{}, err
	}

	if apiKey == "" {
		return Settings{HasAPIKey: false, MaskedAPIKey: nil}, nil
	}

	masked := MaskAPIKey(apiKey)

	return Settings{HasAPIKey: true, MaskedAPIKey: &masked}, nil
}

// SaveAPIKey trims and stores the provider key.
func (s *Service) SaveAPIKey(ctx context.Context, apiKey string) error {
	trimmed := strings.TrimSpace(apiKey)
	if trimmed == "" {
		return fmt.Errorf("%w: fish_api_key is required", ErrInvalidInput)
	}

	err := s.repo.SetSetting(ctx, store.KeyFishAPIKey, trimmed)
	if err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}

	s.log.Info("Provider API key updated")

	return nil
}

// Synthesize runs one text-to-speech request end to end: validate, call the
// provider, store the audio, record the generation and notify. The text is
// sent and recorded exactly as submitted.
func (s *Service) Synthesize(ctx context.Context, input SynthesisInput) (*SynthesisResult, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}

	apiKey, err := s.apiKey(ctx)
	if err != nil {
		return nil, err
	}

	if apiKey == "" {
		return nil, ErrAPIKeyNotConfigured
	}

	model, err := core.ParseModel(input.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	request := core.SynthesisRequest{
		Text:           input.Text,
		Model:          model,
		ReferenceAudio: nil,
		ReferenceText:  "",
		ReferenceID:    "",
	}

	var voiceID, voiceName *string

	if input.VoiceID != nil && *input.VoiceID != "" {
		voice, voiceErr := s.GetVoice(ctx, *input.VoiceID)
		if voiceErr != nil {
			return nil, voiceErr
		}

		voiceID = &voice.ID
		voiceName = &voice.Name

		refErr := s.attachReference(ctx, voice, &request)
		if refErr != nil {
			return nil, refErr
		}
	}

	tags := s.tagScanner.Tags(input.Text)
	if len(tags) > 0 {
		s.log.Info("Synthesizing %d characters with emotion tags %v", len([]rune(input.Text)), tags)
	}

	audio, err := s.synthesizer.Synthesize(ctx, apiKey, request)
	if err != nil {
		s.log.Error("Synthesis failed for model %s: %v", model, err)

		// The provider message is returned unchanged so callers can show it.
		return nil, err
	}

	audioPath, err := s.blobs.Store(ctx, audio, core.BucketGenerated, blob.GeneratedExtension)
	if err != nil {
		return nil, fmt.Errorf("failed to store generated audio: %w", err)
	}

	generation, err := s.repo.CreateGeneration(ctx, store.NewGeneration{
		VoiceID:   voiceID,
		VoiceName: voiceName,
		Text:      input.Text,
		AudioPath: audioPath,
		Model:     string(model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record generation: %w", err)
	}

	s.log.Info("Generation %s stored at %s (model %s)", generation.ID, audioPath, model)

	if s.notifier != nil {
		notifyErr := s.notifier.GenerationCreated(ctx, generation.ID, audioPath)
		if notifyErr != nil {
			s.log.Warn("Failed to publish generation %s: %v", generation.ID, notifyErr)
		}
	}

	return &SynthesisResult{
		Generation: generation,
		AudioURL:   "/" + audioPath,
	}, nil
}

func (s *Service) attachReference(ctx context.Context, voice *store.Voice, request *core.SynthesisRequest) error {
	if voice.AudioPath == nil || *voice.AudioPath == "" {
		return nil
	}

	audio, err := s.blobs.Read(ctx, *voice.AudioPath)
	if err != nil {
		return fmt.Errorf("failed to read reference audio for voice %s: %w", voice.ID, err)
	}

	request.ReferenceAudio = audio
	if voice.Transcript != nil {
		request.ReferenceText = *voice.Transcript
	}

	return nil
}

func (s *Service) apiKey(ctx context.Context) (string, error) {
	apiKey, found, err := s.repo.GetSetting(ctx, store.KeyFishAPIKey)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}

	if !found {
		return "", nil
	}

	return apiKey, nil
}

// MaskAPIKey hides all but the last four characters of key. Keys too short
// to keep a hidden part are masked entirely.
func MaskAPIKey(key string) string {
	runes := []rune(key)
	if len(runes) <= maskSuffixLen {
		return maskPrefix
	}

	return maskPrefix + string(runes[len(runes)-maskSuffixLen:])
}

// optionalText maps a missing or blank value to nil and keeps anything else verbatim.
func optionalText(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}

	return value
}
