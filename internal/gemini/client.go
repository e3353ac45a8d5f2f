package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ai-rustic/OCR-Bill2Sheet/internal/config"
	"github.com/ai-rustic/OCR-Bill2Sheet/pkg/apierr"
)

// RawExtraction is the decoded, shape-checked Gemini output. For the
// invoice+items shape Invoice holds the invoice metadata object; for
// the flat shape Invoice is nil and Items already carry every field.
type RawExtraction struct {
	Shape   config.ResponseShape
	Invoice map[string]any
	Items   []map[string]any
}

type Client struct {
	baseURL string
	model   string
	shape   config.ResponseShape
	rotator *KeyRotator
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(cfg *config.Config, rotator *KeyRotator, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GeminiBaseURL, "/"),
		model:   cfg.GeminiModel,
		shape:   cfg.GeminiResShape,
		rotator: rotator,
		// OCR inference is slow; the timeout is deliberately generous.
		http: &http.Client{Timeout: cfg.GeminiTimeout},
		log:  log,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Extract sends one image to the Gemini generateContent endpoint and
// returns the shape-checked extraction. A failed call surfaces
// immediately as a typed error; retrying is the caller's decision.
func (c *Client) Extract(ctx context.Context, imageBytes []byte, mimeType string) (RawExtraction, error) {
	apiKey, err := c.rotator.Next()
	if err != nil {
		return RawExtraction{}, err
	}

	payload := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: promptFor(c.shape)},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(imageBytes),
				}},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schemaFor(c.shape),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return RawExtraction{}, apierr.Wrap(apierr.KindInternal, err, "failed to encode gemini request")
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return RawExtraction{}, apierr.Wrap(apierr.KindInternal, err, "failed to build gemini request")
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().Str("model", c.model).Int("image_bytes", len(imageBytes)).Msg("calling gemini")

	resp, err := c.http.Do(req)
	if err != nil {
		return RawExtraction{}, apierr.Wrap(apierr.KindExternalService, err, "gemini request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return RawExtraction{}, apierr.Wrap(apierr.KindExternalService, err, "failed to read gemini response")
	}

	if resp.StatusCode >= 400 {
		c.log.Warn().Int("status", resp.StatusCode).Msg("gemini returned error status")
		return RawExtraction{}, apierr.Newf(apierr.KindExternalService,
			"gemini request failed (%d): %s", resp.StatusCode, string(raw))
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return RawExtraction{}, apierr.Wrap(apierr.KindExternalService, err, "invalid gemini response envelope")
	}

	text, ok := firstCandidateText(decoded)
	if !ok {
		return RawExtraction{}, apierr.New(apierr.KindExternalService, "gemini response did not contain text content")
	}

	return c.parseExtraction(stripCodeFence(text))
}

func firstCandidateText(resp generateResponse) (string, bool) {
	for _, candidate := range resp.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.Text != "" {
				return p.Text, true
			}
		}
	}
	return "", false
}

// stripCodeFence removes a leading/trailing triple-backtick line so a
// markdown-wrapped payload still parses.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}

// parseExtraction decodes the model's JSON text and validates the
// configured top-level shape. Numbers are kept as json.Number so
// monetary values never pass through a float.
func (c *Client) parseExtraction(text string) (RawExtraction, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return RawExtraction{}, apierr.Wrap(apierr.KindMalformedResponse, err, "gemini response is not valid JSON")
	}

	if c.shape == config.ShapeFlatItems {
		list, ok := parsed.([]any)
		if !ok {
			return RawExtraction{}, apierr.New(apierr.KindMalformedResponse, "gemini response JSON must be an array")
		}
		items, err := objectList(list)
		if err != nil {
			return RawExtraction{}, err
		}
		return RawExtraction{Shape: c.shape, Items: items}, nil
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return RawExtraction{}, apierr.New(apierr.KindMalformedResponse, "gemini response JSON must be an object")
	}
	invoice, ok := obj["invoice"].(map[string]any)
	if !ok {
		return RawExtraction{}, apierr.New(apierr.KindMalformedResponse, "gemini response is missing 'invoice' object")
	}
	rawItems, ok := obj["items"].([]any)
	if !ok {
		return RawExtraction{}, apierr.New(apierr.KindMalformedResponse, "gemini response 'items' must be a list")
	}
	items, err := objectList(rawItems)
	if err != nil {
		return RawExtraction{}, err
	}
	return RawExtraction{Shape: c.shape, Invoice: invoice, Items: items}, nil
}

func objectList(list []any) ([]map[string]any, error) {
	items := make([]map[string]any, 0, len(list))
	for _, el := range list {
		item, ok := el.(map[string]any)
		if !ok {
			return nil, apierr.New(apierr.KindMalformedResponse, "gemini response item is not an object")
		}
		items = append(items, item)
	}
	return items, nil
}
