// Package verify composes text extraction, identifier recovery and zone
// parsing into one document verification call.
package verify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go-document-verifier/cnp"
	"go-document-verifier/mrz"
)

// MsgIdentifierNotDetected is the user-actionable error appended when none
// of the recovery strategies yields a valid identifier.
const MsgIdentifierNotDetected = "identifier not detected; rescan or enter manually"

// TextExtractor is one OCR session. Recognize may be called once or more;
// Close must be called exactly once when the session is done.
type TextExtractor interface {
	Recognize(ctx context.Context, image []byte, mime string) (string, error)
	Close() error
}

// ExtractorFactory opens a fresh OCR session. The orchestrator acquires one
// per verification call and never shares it across calls.
type ExtractorFactory func(ctx context.Context) (TextExtractor, error)

// Orchestrator runs the full verification flow over a captured or uploaded
// document image.
type Orchestrator struct {
	newExtractor ExtractorFactory
	now          func() time.Time
}

func NewOrchestrator(factory ExtractorFactory) *Orchestrator {
	return &Orchestrator{newExtractor: factory, now: time.Now}
}

// Verify extracts text from the image, recovers and validates the personal
// identifier and enriches the result with machine-readable-zone fields.
// It always returns a non-nil result with timing populated; failures are
// reported through Result.Errors, never as a panic or a nil result.
func (o *Orchestrator) Verify(ctx context.Context, image []byte, mime string) *Result {
	result := &Result{}
	result.ProcessingTime.Start = o.now()
	defer func() {
		result.ProcessingTime.End = o.now()
		result.ProcessingTime.Total = result.ProcessingTime.End.Sub(result.ProcessingTime.Start)
	}()

	extractor, err := o.newExtractor(ctx)
	if err != nil {
		result.Errors = append(result.Errors, "text extraction unavailable: "+err.Error())
		return result
	}
	defer func() {
		if err := extractor.Close(); err != nil {
			slog.Warn("failed to close text extractor", "error", err)
		}
	}()

	text, err := extractor.Recognize(ctx, image, mime)
	if err != nil {
		result.Errors = append(result.Errors, "text extraction failed: "+err.Error())
		return result
	}
	result.RawText = text

	// Zone fields are filled regardless of whether the identifier is
	// recovered; a readable zone on an otherwise bad scan is still useful.
	o.applyZone(result, text)

	code, found := FirstValid(NormalizeText(text), cnp.Validate,
		ExactMatches, LabelledMatches, WindowMatches)
	if !found {
		result.Errors = append(result.Errors, MsgIdentifierNotDetected)
		return result
	}

	result.Verified = true
	result.PersonalInfo.CNP = code
	o.applyIdentifier(result, code)

	slog.Info("document verified",
		"mrz", result.MRZ != nil && result.MRZ.Verified,
		"errors", len(result.Errors))
	return result
}

// applyZone copies machine-readable-zone fields into the result.
func (o *Orchestrator) applyZone(result *Result, text string) {
	record := mrz.Parse(text)
	if record == nil {
		return
	}

	result.MRZ = &MRZData{Lines: record.RawLines, Verified: record.Verified}
	result.PersonalInfo.FullName = strings.TrimSpace(record.Surname + " " + record.GivenNames)
	result.PersonalInfo.DateOfBirth = record.DateOfBirth
	result.PersonalInfo.Nationality = record.Nationality
	result.DocumentDetails.Type = record.DocumentType
	result.DocumentDetails.DocumentNumber = record.DocumentNumber
	result.DocumentDetails.ExpiryDate = record.ExpiryDate
}

// applyIdentifier fills person fields derivable from the validated
// identifier. Zone-derived values win when both sources have one.
func (o *Orchestrator) applyIdentifier(result *Result, code string) {
	info := cnp.ExtractInfo(code)
	if info == nil {
		return
	}
	result.PersonalInfo.Gender = string(info.Gender)
	if result.PersonalInfo.DateOfBirth == "" {
		result.PersonalInfo.DateOfBirth = info.DateOfBirthString()
	}
}
