package main

import (
	"crypto/rsa"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"go-document-verifier/verify"
)

// JwtCreator signs verification receipts handed back to the caller after a
// successful scan.
type JwtCreator interface {
	CreateReceiptJwt(sessionId string, result *verify.Result) (jwt string, err error)
}

func NewReceiptJwtCreator(privateKeyPath string, issuer string) (*ReceiptJwtCreator, error) {
	keyBytes, err := os.ReadFile(privateKeyPath)

	if err != nil {
		return nil, err
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(keyBytes)

	if err != nil {
		return nil, err
	}

	return &ReceiptJwtCreator{
		issuer:     issuer,
		privateKey: privateKey,
	}, nil
}

type ReceiptJwtCreator struct {
	privateKey *rsa.PrivateKey
	issuer     string
}

// Receipts are consumed promptly by the relying party; a day is plenty.
const receiptValidity = 24 * time.Hour

func (jc *ReceiptJwtCreator) CreateReceiptJwt(sessionId string, result *verify.Result) (string, error) {
	if result == nil {
		return "", fmt.Errorf("no verification result to sign")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":             jc.issuer,
		"iat":             now.Unix(),
		"exp":             now.Add(receiptValidity).Unix(),
		"session_id":      sessionId,
		"verified":        result.Verified,
		"identifier":      maskIdentifier(result.PersonalInfo.CNP),
		"document_type":   result.DocumentDetails.Type,
		"document_number": result.DocumentDetails.DocumentNumber,
		"expiry_date":     result.DocumentDetails.ExpiryDate,
		"processing_ms":   result.ProcessingTime.Total.Milliseconds(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(jc.privateKey)
}

// maskIdentifier hides the birth-date digits of the identifier; the receipt
// proves a scan happened without carrying the full personal code.
func maskIdentifier(code string) string {
	if len(code) != 13 {
		return ""
	}
	return code[:1] + strings.Repeat("*", 8) + code[9:]
}
