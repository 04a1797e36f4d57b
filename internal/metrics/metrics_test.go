package metrics_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/book-expert/voice-clone/internal/core"
	"github.com/book-expert/voice-clone/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errProvider = errors.New("provider down")

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubSynthesizer struct {
	err error
}

func (s *stubSynthesizer) Synthesize(_ context.Context, _ string, _ core.SynthesisRequest) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}

	return []byte("audio"), nil
}

func TestInstrumentSynthesizer(t *testing.T) {
	t.Parallel()

	m := metrics.New()

	ok := m.InstrumentSynthesizer(&stubSynthesizer{})
	audio, err := ok.Synthesize(context.Background(), "key", core.SynthesisRequest{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), audio)

	failing := m.InstrumentSynthesizer(&stubSynthesizer{err: errProvider})
	_, err = failing.Synthesize(context.Background(), "key", core.SynthesisRequest{Text: "hi", Model: core.ModelSpeech15})
	require.ErrorIs(t, err, errProvider)

	expected := `
# HELP voice_clone_provider_requests_total Total number of text-to-speech provider calls
# TYPE voice_clone_provider_requests_total counter
voice_clone_provider_requests_total{model="s1",status="success"} 1
voice_clone_provider_requests_total{model="speech-1.5",status="error"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"voice_clone_provider_requests_total"))
}

func TestMiddlewareAndHandler(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/api/voices", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/voices", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(),
		`voice_clone_http_requests_total{code="200",method="GET",route="/api/voices"} 1`)
}
