package httpapi

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ai-rustic/OCR-Bill2Sheet/internal/bill"
	"github.com/ai-rustic/OCR-Bill2Sheet/internal/config"
	"github.com/ai-rustic/OCR-Bill2Sheet/internal/gemini"
)

type fakeExtractor struct {
	result gemini.RawExtraction
	err    error
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte, _ string) (gemini.RawExtraction, error) {
	return f.result, f.err
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return body, writer.FormDataContentType()
}

func TestOCRRejectsEmptyBatch(t *testing.T) {
	router := setupTestRouter(bill.NewMemoryStore(), &fakeExtractor{})

	body, contentType := multipartBody(t, nil)
	req, _ := http.NewRequest("POST", "/api/ocr", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "event:") {
		t.Fatalf("no events may be emitted for an empty batch, got %q", w.Body.String())
	}
}

func TestOCRStreamsEventsInOrder(t *testing.T) {
	store := bill.NewMemoryStore()
	extractor := &fakeExtractor{
		result: gemini.RawExtraction{
			Shape: config.ShapeInvoiceItems,
			Invoice: map[string]any{
				"invoice_no":  "INV-2024-001",
				"issued_date": "15/03/2024",
			},
			Items: []map[string]any{
				{"item_name": "A4 paper", "quantity": "10"},
			},
		},
	}
	router := setupTestRouter(store, extractor)

	body, contentType := multipartBody(t, map[string][]byte{
		"bill1.jpg": []byte("jpeg-bytes-1"),
		"bill2.jpg": []byte("jpeg-bytes-2"),
	})
	req, _ := http.NewRequest("POST", "/api/ocr", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	stream := w.Body.String()
	for name, want := range map[string]int{
		"image_started":    2,
		"image_processing": 2,
		"image_completed":  2,
		"finished":         1,
	} {
		if got := strings.Count(stream, "event:"+name); got != want {
			t.Fatalf("expected %d %s events, got %d in %q", want, name, got, stream)
		}
	}
	if strings.Contains(stream, "event:image_failed") {
		t.Fatalf("unexpected failure event in %q", stream)
	}

	started := strings.Index(stream, "event:image_started")
	completed := strings.Index(stream, "event:image_completed")
	finished := strings.Index(stream, "event:finished")
	if !(started < completed && completed < finished) {
		t.Fatalf("events out of order in %q", stream)
	}
	if !strings.Contains(stream, `"processed":2`) {
		t.Fatalf("finished event must carry the processed count, got %q", stream)
	}
	if !strings.Contains(stream, "2024-03-15") {
		t.Fatalf("completed payload must carry the normalized date, got %q", stream)
	}

	count, _ := store.Count(context.Background())
	if count != 2 {
		t.Fatalf("expected 2 persisted bills, got %d", count)
	}
}

func TestOCRFailureDoesNotStopBatch(t *testing.T) {
	store := bill.NewMemoryStore()
	router := setupTestRouter(store, &fakeExtractor{
		result: gemini.RawExtraction{
			Shape: config.ShapeInvoiceItems,
			Items: []map[string]any{{"item_name": "Pen"}},
		},
	})

	// An empty upload fails validation before extraction; the second
	// image must still be processed and finished still emitted.
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if _, err := writer.CreateFormFile("files", "empty.jpg"); err != nil {
		t.Fatal(err)
	}
	good, _ := writer.CreateFormFile("files", "good.jpg")
	good.Write([]byte("jpeg-bytes"))
	writer.Close()

	req, _ := http.NewRequest("POST", "/api/ocr", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	stream := w.Body.String()
	if got := strings.Count(stream, "event:image_failed"); got != 1 {
		t.Fatalf("expected 1 failed event, got %d in %q", got, stream)
	}
	if got := strings.Count(stream, "event:image_completed"); got != 1 {
		t.Fatalf("expected 1 completed event, got %d in %q", got, stream)
	}
	if !strings.Contains(stream, `"processed":2`) {
		t.Fatalf("finished event must count all images, got %q", stream)
	}

	count, _ := store.Count(context.Background())
	if count != 1 {
		t.Fatalf("expected only the good image persisted, got %d", count)
	}
}
