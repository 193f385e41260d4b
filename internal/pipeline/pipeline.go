/**
 * Extraction Pipeline - Scan Orchestrator
 *
 * Drives one ID scan end to end:
 *
 *   raw photo -> rectify -> whole-card multipass OCR + ROI crop OCR
 *             -> classify -> parse -> merge -> ExtractedInfo
 *
 * Whole-card OCR and the ROI crops run concurrently; every engine call
 * carries its own timeout so a hung engine degrades a pass, never the
 * scan. Failures degrade to "less data": geometry failure falls back to
 * the raw photo, a failed pass scores 0, and only a fully empty result
 * is reported as a failure to the caller.
 */

package pipeline

import (
	"bytes"
	"context"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ivisit/idscan-worker/internal/classify"
	"github.com/ivisit/idscan-worker/internal/clients"
	"github.com/ivisit/idscan-worker/internal/errors"
	"github.com/ivisit/idscan-worker/internal/logging"
	"github.com/ivisit/idscan-worker/internal/ocr"
	"github.com/ivisit/idscan-worker/internal/parse"
	"github.com/ivisit/idscan-worker/internal/rectify"
	"github.com/ivisit/idscan-worker/internal/template"
)

// VisionExtractor is the optional vision-model fallback path.
type VisionExtractor interface {
	ExtractFields(ctx context.Context, imageData []byte, mimeType string) (*clients.VisionFields, error)
}

// Result is what one scan produces. DebugImage is the rectified (or
// raw-fallback) card actually shown to OCR, kept for operator feedback.
type Result struct {
	Success    bool               `json:"success"`
	Record     parse.ExtractedInfo `json:"record"`
	DebugImage image.Image        `json:"-"`
	Method     string             `json:"method"`
	Score      int                `json:"score"`
	Reason     string             `json:"reason,omitempty"`
}

// Extractor owns the per-scan pipeline. Safe for concurrent scans: all
// mutable state is scan-local.
type Extractor struct {
	rectifier  *rectify.Rectifier
	multipass  *ocr.MultiPass
	engine     ocr.Engine
	vision     VisionExtractor
	roiTimeout time.Duration
	logger     *logging.Logger
}

// NewExtractor wires the pipeline. vision may be nil; the fallback path
// is then disabled.
func NewExtractor(rectifier *rectify.Rectifier, multipass *ocr.MultiPass, engine ocr.Engine, vision VisionExtractor, roiTimeout time.Duration) *Extractor {
	if roiTimeout <= 0 {
		roiTimeout = 15 * time.Second
	}
	return &Extractor{
		rectifier:  rectifier,
		multipass:  multipass,
		engine:     engine,
		vision:     vision,
		roiTimeout: roiTimeout,
		logger:     logging.NewLogger("Pipeline"),
	}
}

// roiFields holds the normalized per-region OCR output.
type roiFields struct {
	FullName string
	DOB      string
	IDNumber string
}

func (f roiFields) anySignal() bool {
	return f.FullName != "" || f.DOB != "" || f.IDNumber != ""
}

// ExtractFromPhoto runs one scan. expectedIDType is the operator's
// selection and may be empty; it picks the ROI template and acts as the
// classification fallback.
func (e *Extractor) ExtractFromPhoto(ctx context.Context, scanID string, photo image.Image, expectedIDType string) (Result, error) {
	start := time.Now()

	e.logger.Info("Step 1: Rectifying card geometry", "scanId", scanID)
	rect := e.rectifier.Rectify(photo)
	card := rect.Image
	if !rect.Success {
		// Geometry failure is recoverable: OCR the raw photo instead.
		geoErr := errors.NewGeometryFailedError(scanID, rect.Reason)
		e.logger.Warn("Rectification failed, using raw photo", "scanId", scanID, "error", geoErr)
		card = photo
	}

	e.logger.Info("Step 2: Running whole-card and ROI OCR", "scanId", scanID, "expectedType", expectedIDType)

	var (
		wg   sync.WaitGroup
		pass ocr.PassResult
		roi  roiFields
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		pass = e.multipass.Run(ctx, card)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		roi = e.extractRois(ctx, scanID, card, expectedIDType)
	}()

	wg.Wait()

	e.logger.Info("Step 3: Classifying ID type", "scanId", scanID, "method", string(pass.Method), "score", pass.Score)
	detected := classify.Classify(pass.Text)
	idType := resolveIDType(detected, expectedIDType)

	e.logger.Info("Step 4: Parsing fields", "scanId", scanID,
		"idType", idType,
		"detectedType", detected.IDType,
		"detectConfidence", detected.Confidence)
	parsed := parse.Parse(idType, pass.Text)

	e.logger.Info("Step 5: Merging ROI and whole-card fields", "scanId", scanID)
	record := mergeFields(idType, roi, parsed)

	if record.FullName == "" && record.DOB == "" && record.IDNumber == "" && !roi.anySignal() {
		if e.vision != nil {
			if res, ok := e.visionFallback(ctx, scanID, card); ok {
				res.DebugImage = card
				return res, nil
			}
		}
		scanErr := errors.NewNoSignalError(scanID)
		e.logger.Warn("Scan produced no usable data", "scanId", scanID, "elapsed", time.Since(start))
		return Result{
			Success:    false,
			DebugImage: card,
			Method:     string(pass.Method),
			Score:      pass.Score,
			Reason:     scanErr.Message,
		}, scanErr
	}

	e.logger.Info("Scan complete", "scanId", scanID,
		"idType", record.IDType,
		"hasName", record.FullName != "",
		"hasDOB", record.DOB != "",
		"hasNumber", record.IDNumber != "",
		"elapsed", time.Since(start))

	return Result{
		Success:    true,
		Record:     record,
		DebugImage: card,
		Method:     string(pass.Method),
		Score:      pass.Score,
	}, nil
}

// extractRois crops the expected type's regions and OCRs each crop
// concurrently. No template or an unknown type yields empty fields.
func (e *Extractor) extractRois(ctx context.Context, scanID string, card image.Image, expectedIDType string) roiFields {
	tmpl := template.Lookup(expectedIDType)
	if tmpl == nil {
		return roiFields{}
	}

	crops := template.CropRegions(card, tmpl.Rois)
	if len(crops) == 0 {
		return roiFields{}
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		fields = map[template.RoiKey]string{}
	)

	for key, crop := range crops {
		wg.Add(1)
		go func(key template.RoiKey, crop image.Image) {
			defer wg.Done()

			roiCtx, cancel := context.WithTimeout(ctx, e.roiTimeout)
			defer cancel()

			text, err := e.engine.Recognize(roiCtx, crop)
			if err != nil {
				// Same policy as a failed pass: this region contributes nothing.
				scanErr := errors.NewEngineFailedError(scanID, string(key), err)
				if roiCtx.Err() == context.DeadlineExceeded {
					scanErr = errors.NewEngineTimeoutError(scanID, string(key), e.roiTimeout)
				}
				e.logger.Warn("ROI OCR failed", "scanId", scanID, "roi", string(key), "error", scanErr)
				return
			}

			mu.Lock()
			fields[key] = text
			mu.Unlock()
		}(key, crop)
	}
	wg.Wait()

	return roiFields{
		FullName: parse.CleanNameField(fields[template.RoiFullName]),
		DOB:      parse.FindDate(fields[template.RoiDOB]),
		IDNumber: cleanRoiNumber(fields[template.RoiIDNumber]),
	}
}

// cleanRoiNumber reduces a number-region crop to its best ID-token
// candidate.
func cleanRoiNumber(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return parse.FindIDToken(text)
}

// visionFallback sends the card to the vision model when template OCR
// found nothing. Returns ok=false when the call fails or the model also
// found nothing.
func (e *Extractor) visionFallback(ctx context.Context, scanID string, card image.Image) (Result, bool) {
	e.logger.Info("Step 6: Falling back to vision extraction", "scanId", scanID)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, card, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		e.logger.Error("Failed to encode card for vision call", "scanId", scanID, "error", err)
		return Result{}, false
	}

	fields, err := e.vision.ExtractFields(ctx, buf.Bytes(), "image/jpeg")
	if err != nil {
		e.logger.Error("Vision extraction failed", "scanId", scanID,
			"error", errors.NewVisionCallFailedError(scanID, err))
		return Result{}, false
	}

	dob := parse.NormalizeDate(fields.DOB)
	if dob == "" {
		dob = fields.DOB
	}
	if fields.FullName == "" && dob == "" && fields.IDNumber == "" {
		return Result{}, false
	}

	idType := fields.IDType
	if idType == "" {
		idType = "Unknown"
	}

	record := parse.ExtractedInfo{
		FullName: fields.FullName,
		DOB:      dob,
		IDNumber: fields.IDNumber,
		IDType:   idType,
		Address:  fields.Address,
	}
	record.Confidence = parse.ScoreFields(record.FullName, record.DOB, record.IDNumber, record.Address)

	return Result{
		Success: true,
		Record:  record,
		Method:  "vision",
	}, true
}
