// Command speechfn is the isolated speech-synthesis function. It runs as
// its own process so a slow or failing synthesis provider can never block
// the primary API. One endpoint: POST /synthesize with {"text","voice_id"},
// answering raw MP3 audio.
package main

import (
	"errors"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/nicofratini/prospeo-bolt/internal/apperr"
	"github.com/nicofratini/prospeo-bolt/internal/integration/elevenlabs"
	"github.com/nicofratini/prospeo-bolt/internal/logger"
	"github.com/nicofratini/prospeo-bolt/internal/validate"
)

type synthesizeRequest struct {
	Text    string `json:"text" validate:"required,min=1,max=5000"`
	VoiceID string `json:"voice_id" validate:"omitempty,max=100"`
}

func main() {
	_ = godotenv.Load()
	log := logger.Get()
	defer func() { _ = log.Sync() }()

	apiKey := os.Getenv("ELEVENLABS_API_KEY")
	if apiKey == "" {
		log.Fatal("missing required env var: ELEVENLABS_API_KEY")
	}
	baseURL := os.Getenv("ELEVENLABS_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io/v1"
	}
	defaultVoice := os.Getenv("ELEVENLABS_DEFAULT_VOICE_ID")
	if defaultVoice == "" {
		defaultVoice = "EXAVITQu4vr4xnSDxMaL"
	}
	port := os.Getenv("SPEECHFN_PORT")
	if port == "" {
		port = "8090"
	}

	client := elevenlabs.New(baseURL, apiKey)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(echomw.CORS()) // called directly from browser clients

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	e.POST("/synthesize", func(c echo.Context) error {
		var req synthesizeRequest
		if err := validate.BindBody(c, &req); err != nil {
			return err
		}
		if req.VoiceID == "" {
			req.VoiceID = defaultVoice
		}

		audio, err := client.Synthesize(c.Request().Context(), req.Text, req.VoiceID)
		if err != nil {
			var ae *elevenlabs.APIError
			if errors.As(err, &ae) {
				return apperr.Upstream(ae.Status, ae.Message)
			}
			return apperr.Upstream(0, "speech provider unavailable")
		}
		return c.Blob(http.StatusOK, "audio/mpeg", audio)
	})

	log.Info("speechfn listening", zap.String("port", port))
	if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("speechfn stopped", zap.Error(err))
	}
}
