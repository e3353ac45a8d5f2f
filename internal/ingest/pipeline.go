package ingest

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ai-rustic/OCR-Bill2Sheet/internal/bill"
	"github.com/ai-rustic/OCR-Bill2Sheet/internal/gemini"
	"github.com/ai-rustic/OCR-Bill2Sheet/pkg/apierr"
)

// Image is one uploaded file buffered for processing.
type Image struct {
	Filename string
	MimeType string
	Content  []byte
}

// Extractor is the external OCR boundary.
type Extractor interface {
	Extract(ctx context.Context, imageBytes []byte, mimeType string) (gemini.RawExtraction, error)
}

// EmitFunc receives each progress event in order.
type EmitFunc func(Event)

var ErrNoImages = errors.New("no images provided")

// Pipeline turns one batch of uploaded images into progress events and
// persisted bills. Images are processed strictly in sequence so the
// event order out to the client is deterministic.
type Pipeline struct {
	extractor Extractor
	store     bill.Store
	log       zerolog.Logger
}

func NewPipeline(extractor Extractor, store bill.Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{extractor: extractor, store: store, log: log}
}

// Process drives every image through extract → normalize → validate →
// persist. A failure on one image is contained to that image: its
// failed event is emitted and the next image is processed. The finished
// event always carries the number of images attempted.
func (p *Pipeline) Process(ctx context.Context, images []Image, emit EmitFunc) error {
	if len(images) == 0 {
		return ErrNoImages
	}

	for i, img := range images {
		index := i + 1
		emit(startedEvent(index, img.Filename))

		invoice, records, err := p.processImage(ctx, img, index, emit)
		if err != nil {
			p.log.Warn().Int("image_index", index).Str("filename", img.Filename).
				Str("kind", apierr.KindOf(err).String()).Err(err).Msg("image failed")
			emit(failedEvent(index, img.Filename, err.Error()))
			continue
		}

		p.log.Info().Int("image_index", index).Int("bills", len(records)).Msg("image completed")
		emit(completedEvent(index, img.Filename, invoice, records))
	}

	emit(finishedEvent(len(images)))
	return nil
}

// processImage handles the emit-processing-onward steps for one image.
// It can only return errors from the taxonomy: a recover at this
// boundary maps any unexpected fault to the internal kind.
func (p *Pipeline) processImage(ctx context.Context, img Image, index int, emit EmitFunc) (invoice map[string]any, records []bill.Bill, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apierr.Newf(apierr.KindInternal, "internal error while processing image: %v", r)
		}
	}()

	if len(img.Content) == 0 {
		return nil, nil, apierr.New(apierr.KindValidation, "uploaded image is empty")
	}

	emit(processingEvent(index, img.Filename))

	raw, err := p.extractor.Extract(ctx, img.Content, img.MimeType)
	if err != nil {
		return nil, nil, err
	}

	invoice, candidates := Normalize(raw)

	bills := make([]bill.Bill, 0, len(candidates))
	for _, candidate := range candidates {
		b, err := bill.FromCandidate(candidate)
		if err != nil {
			// One bad candidate fails the whole image; nothing persists.
			return nil, nil, err
		}
		bills = append(bills, b)
	}

	// An empty items list is a completed image with zero records.
	if len(bills) == 0 {
		return invoice, nil, nil
	}

	records, err = p.store.InsertBatch(ctx, bills)
	if err != nil {
		if apierr.KindOf(err) == apierr.KindInternal {
			err = apierr.Wrap(apierr.KindPersistence, err, "failed to save bills to database")
		}
		return nil, nil, err
	}

	return invoice, records, nil
}
