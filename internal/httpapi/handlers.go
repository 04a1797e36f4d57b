package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/book-expert/voice-clone/internal/blob"
	"github.com/book-expert/voice-clone/internal/core"
	"github.com/book-expert/voice-clone/internal/studio"
	"github.com/book-expert/voice-clone/internal/tts/text"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func init() {
	binding.EnableDecoderDisallowUnknownFields = true
}

// Messages returned for internal failures.
const (
	msgFetchVoicesFailed      = "failed to fetch voices"
	msgFetchVoiceFailed       = "failed to fetch voice"
	msgCreateVoiceFailed      = "failed to create voice"
	msgDeleteVoiceFailed      = "failed to delete voice"
	msgFetchGenerationsFailed = "failed to fetch generations"
	msgFetchSettingsFailed    = "failed to fetch settings"
	msgSaveSettingsFailed     = "failed to save settings"
	msgReadBlobFailed         = "failed to read audio"
	msgVoiceFieldsRequired    = "name and audio are required"
	msgBlobNotFound           = "audio not found"
)

// Multipart form fields of POST /api/voices.
const (
	formFieldName       = "name"
	formFieldTranscript = "transcript"
	formFieldAudio      = "audio"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse acknowledges mutations without a payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// SettingsResponse never carries the raw key.
type SettingsResponse struct {
	FishAPIKey *string `json:"fish_api_key"`
	HasAPIKey  bool    `json:"has_api_key"`
}

// UpdateSettingsRequest is the body of PUT /api/settings.
type UpdateSettingsRequest struct {
	FishAPIKey string `json:"fish_api_key" binding:"required"`
}

// SpeechRequest is the body of POST /api/tts.
type SpeechRequest struct {
	Text    string  `json:"text"`
	VoiceID *string `json:"voice_id"`
	Model   string  `json:"model"`
}

// SpeechResponse points at the stored audio of a new generation.
type SpeechResponse struct {
	ID        string    `json:"id"`
	AudioURL  string    `json:"audio_url"`
	CreatedAt time.Time `json:"created_at"`
}

// ModelsResponse lists the provider models.
type ModelsResponse struct {
	Models  []core.Model `json:"models"`
	Default core.Model   `json:"default"`
}

// EmotionTagsResponse lists the emotion tags offered by the editor.
type EmotionTagsResponse struct {
	Tags []string `json:"tags"`
}

// Controller holds the HTTP handlers.
type Controller struct {
	service *studio.Service
	blobs   core.BlobStore
}

// ListVoices handles GET /api/voices.
func (ctl *Controller) ListVoices(c *gin.Context) {
	voices, err := ctl.service.ListVoices(c.Request.Context())
	if err != nil {
		ctl.fail(c, err, msgFetchVoicesFailed)

		return
	}

	c.JSON(http.StatusOK, voices)
}

// GetVoice handles GET /api/voices/:id.
func (ctl *Controller) GetVoice(c *gin.Context) {
	voice, err := ctl.service.GetVoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		ctl.fail(c, err, msgFetchVoiceFailed)

		return
	}

	c.JSON(http.StatusOK, voice)
}

// CreateVoice handles the multipart upload of POST /api/voices.
func (ctl *Controller) CreateVoice(c *gin.Context) {
	name := c.PostForm(formFieldName)

	fileHeader, err := c.FormFile(formFieldAudio)
	if err != nil || name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msgVoiceFieldsRequired})

		return
	}

	audio, err := readFormFile(fileHeader)
	if err != nil {
		ctl.fail(c, err, msgCreateVoiceFailed)

		return
	}

	var transcript *string

	value, present := c.GetPostForm(formFieldTranscript)
	if present {
		transcript = &value
	}

	voice, err := ctl.service.CreateVoice(c.Request.Context(), studio.NewVoice{
		Name:       name,
		Transcript: transcript,
		Filename:   fileHeader.Filename,
		Audio:      audio,
	})
	if err != nil {
		ctl.fail(c, err, msgCreateVoiceFailed)

		return
	}

	c.JSON(http.StatusCreated, voice)
}

// DeleteVoice handles DELETE /api/voices/:id.
func (ctl *Controller) DeleteVoice(c *gin.Context) {
	err := ctl.service.DeleteVoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		ctl.fail(c, err, msgDeleteVoiceFailed)

		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// ListGenerations handles GET /api/generations.
func (ctl *Controller) ListGenerations(c *gin.Context) {
	generations, err := ctl.service.ListGenerations(c.Request.Context())
	if err != nil {
		ctl.fail(c, err, msgFetchGenerationsFailed)

		return
	}

	c.JSON(http.StatusOK, generations)
}

// GetSettings handles GET /api/settings.
func (ctl *Controller) GetSettings(c *gin.Context) {
	settings, err := ctl.service.Settings(c.Request.Context())
	if err != nil {
		ctl.fail(c, err, msgFetchSettingsFailed)

		return
	}

	c.JSON(http.StatusOK, SettingsResponse{
		FishAPIKey: settings.MaskedAPIKey,
		HasAPIKey:  settings.HasAPIKey,
	})
}

// UpdateSettings handles PUT /api/settings.
func (ctl *Controller) UpdateSettings(c *gin.Context) {
	var request UpdateSettingsRequest

	err := bindJSON(c, &request)
	if err != nil {
		ctl.fail(c, err, msgSaveSettingsFailed)

		return
	}

	err = ctl.service.SaveAPIKey(c.Request.Context(), request.FishAPIKey)
	if err != nil {
		ctl.fail(c, err, msgSaveSettingsFailed)

		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// CreateSpeech handles POST /api/tts.
func (ctl *Controller) CreateSpeech(c *gin.Context) {
	var request SpeechRequest

	err := bindJSON(c, &request)
	if err != nil {
		ctl.fail(c, err, "")

		return
	}

	result, err := ctl.service.Synthesize(c.Request.Context(), studio.SynthesisInput{
		Text:    request.Text,
		VoiceID: request.VoiceID,
		Model:   request.Model,
	})
	if err != nil {
		ctl.fail(c, err, "")

		return
	}

	c.JSON(http.StatusOK, SpeechResponse{
		ID:        result.Generation.ID,
		AudioURL:  result.AudioURL,
		CreatedAt: result.Generation.CreatedAt,
	})
}

// ListModels handles GET /api/models.
func (ctl *Controller) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, ModelsResponse{Models: core.Models(), Default: core.DefaultModel})
}

// ListEmotionTags handles GET /api/emotion-tags.
func (ctl *Controller) ListEmotionTags(c *gin.Context) {
	c.JSON(http.StatusOK, EmotionTagsResponse{Tags: text.EmotionTags()})
}

// Health handles GET /health.
func (ctl *Controller) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ServeBlob returns a handler streaming blobs of bucket through the blob store.
func (ctl *Controller) ServeBlob(bucket core.Bucket) gin.HandlerFunc {
	return func(c *gin.Context) {
		relativePath := string(bucket) + "/" + c.Param("name")

		data, err := ctl.blobs.Read(c.Request.Context(), relativePath)
		if errors.Is(err, core.ErrBlobNotFound) || errors.Is(err, core.ErrInvalidBlobPath) {
			c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: msgBlobNotFound})

			return
		}

		if err != nil {
			ctl.fail(c, err, msgReadBlobFailed)

			return
		}

		c.Data(http.StatusOK, blob.ContentType(relativePath), data)
	}
}

// fail maps err onto a status code and writes the error body. For internal
// failures message replaces the error text unless it is empty.
func (ctl *Controller) fail(c *gin.Context, err error, message string) {
	status := statusFor(err)

	body := err.Error()
	if status == http.StatusInternalServerError && message != "" {
		body = message
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: body})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, studio.ErrInvalidInput), errors.Is(err, studio.ErrAPIKeyNotConfigured):
		return http.StatusBadRequest
	case errors.Is(err, studio.ErrVoiceNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// bindJSON binds the request body into target through gin, which rejects
// unknown fields and runs the binding validator.
func bindJSON(c *gin.Context, target any) error {
	err := c.ShouldBindJSON(target)
	if err != nil {
		return fmt.Errorf("%w: %w", studio.ErrInvalidInput, err)
	}

	return nil
}

func readFormFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}

	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	return data, nil
}
