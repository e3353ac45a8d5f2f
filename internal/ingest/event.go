package ingest

import "github.com/ai-rustic/OCR-Bill2Sheet/internal/bill"

// Event names streamed to the caller, one per pipeline step.
const (
	EventImageStarted    = "image_started"
	EventImageProcessing = "image_processing"
	EventImageCompleted  = "image_completed"
	EventImageFailed     = "image_failed"
	EventFinished        = "finished"
)

// Event is one progress notification. Data is marshalled to JSON as the
// SSE payload; events are never persisted.
type Event struct {
	Name string
	Data any
}

type imageEventData struct {
	ImageIndex int    `json:"image_index"`
	Filename   string `json:"filename"`
}

type completedEventData struct {
	ImageIndex int            `json:"image_index"`
	Filename   string         `json:"filename"`
	Invoice    map[string]any `json:"invoice"`
	Items      []bill.Bill    `json:"items"`
}

type failedEventData struct {
	ImageIndex int    `json:"image_index"`
	Filename   string `json:"filename"`
	Message    string `json:"message"`
}

type finishedEventData struct {
	Processed int `json:"processed"`
}

func startedEvent(index int, filename string) Event {
	return Event{Name: EventImageStarted, Data: imageEventData{ImageIndex: index, Filename: filename}}
}

func processingEvent(index int, filename string) Event {
	return Event{Name: EventImageProcessing, Data: imageEventData{ImageIndex: index, Filename: filename}}
}

func completedEvent(index int, filename string, invoice map[string]any, items []bill.Bill) Event {
	if items == nil {
		items = []bill.Bill{}
	}
	return Event{Name: EventImageCompleted, Data: completedEventData{
		ImageIndex: index,
		Filename:   filename,
		Invoice:    invoice,
		Items:      items,
	}}
}

func failedEvent(index int, filename, message string) Event {
	return Event{Name: EventImageFailed, Data: failedEventData{
		ImageIndex: index,
		Filename:   filename,
		Message:    message,
	}}
}

func finishedEvent(processed int) Event {
	return Event{Name: EventFinished, Data: finishedEventData{Processed: processed}}
}
