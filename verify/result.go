package verify

import "time"

// PersonalInfo holds the person fields recovered from a document. CNP is the
// validated identifier; the rest is best-effort, filled from whatever the
// machine readable zone and the identifier itself yield.
type PersonalInfo struct {
	CNP         string `json:"cnp,omitempty"`
	FullName    string `json:"fullName,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

// DocumentDetails holds the document-level fields, best-effort.
type DocumentDetails struct {
	Type           string `json:"type,omitempty"`
	DocumentNumber string `json:"documentNumber,omitempty"`
	ExpiryDate     string `json:"expiryDate,omitempty"`
}

// MRZData reports what the machine readable zone contributed.
type MRZData struct {
	Lines    string `json:"lines,omitempty"`
	Verified bool   `json:"verified"`
}

// ProcessingTime records wall-clock timing of one verification call.
type ProcessingTime struct {
	Start time.Time     `json:"start"`
	End   time.Time     `json:"end"`
	Total time.Duration `json:"total"`
}

// Result is the output of one verification call. It is created at the start
// of the call, populated as far as the input allows and never mutated after
// being returned. Verified is true iff a checksum-valid identifier was
// recovered.
type Result struct {
	Verified        bool            `json:"verified"`
	PersonalInfo    PersonalInfo    `json:"personalInfo"`
	DocumentDetails DocumentDetails `json:"documentDetails"`
	MRZ             *MRZData        `json:"mrzData,omitempty"`
	ProcessingTime  ProcessingTime  `json:"processingTime"`
	RawText         string          `json:"rawText,omitempty"`
	Errors          []string        `json:"errors,omitempty"`
}
