package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ai-rustic/OCR-Bill2Sheet/internal/ingest"
)

type OCRHandler struct {
	pipeline *ingest.Pipeline
	log      zerolog.Logger
}

func NewOCRHandler(pipeline *ingest.Pipeline, log zerolog.Logger) *OCRHandler {
	return &OCRHandler{pipeline: pipeline, log: log}
}

// Process accepts a multipart batch of bill images and streams one SSE
// event per pipeline step. A batch with zero images is rejected before
// the stream starts.
func (h *OCRHandler) Process(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("multipart form with a 'files' field is required"))
		return
	}

	uploads := form.File["files"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("No images provided"))
		return
	}

	// Buffer every image before the first event so a slow upload can
	// never stall the stream mid-batch.
	images := make([]ingest.Image, 0, len(uploads))
	for _, upload := range uploads {
		file, err := upload.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("failed to read uploaded file"))
			return
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("failed to read uploaded file"))
			return
		}

		mimeType := upload.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		filename := upload.Filename
		if filename == "" {
			filename = "unknown"
		}

		images = append(images, ingest.Image{
			Filename: filename,
			MimeType: mimeType,
			Content:  content,
		})
	}

	h.log.Info().Int("images", len(images)).Msg("starting OCR batch")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusAccepted)

	emit := func(ev ingest.Event) {
		c.SSEvent(ev.Name, ev.Data)
		c.Writer.Flush()
	}

	if err := h.pipeline.Process(c.Request.Context(), images, emit); err != nil {
		// Only reachable with an empty batch, which was rejected above.
		h.log.Error().Err(err).Msg("pipeline rejected batch")
	}
}
