// Package exclusion answers whether a validated identifier belongs to a
// person who may not gamble: underage, self-excluded, or unverifiable.
package exclusion

import (
	"context"
	"fmt"
	"log/slog"

	"go-document-verifier/cnp"
)

// MinGamblingAge is the legal minimum age for gambling in Romania.
const MinGamblingAge = 18

// Status is the outcome of one exclusion check. Verified reports whether the
// answer is authoritative; an unverifiable check always excludes.
type Status struct {
	IsExcluded bool   `json:"isExcluded"`
	Reason     string `json:"reason,omitempty"`
	Verified   bool   `json:"verified"`
}

// LookupService resolves a validated identifier against the self-exclusion
// register. It is only consulted for adults with a valid identifier.
type LookupService interface {
	IsExcluded(ctx context.Context, code string) (bool, error)
}

// Checker combines local identifier checks with the external register.
type Checker struct {
	lookup LookupService
}

func NewChecker(lookup LookupService) *Checker {
	return &Checker{lookup: lookup}
}

// Check resolves the exclusion status for an identifier. Invalid identifiers
// and lookup failures exclude; only a positive register answer or a clean
// pass is marked verified.
func (c *Checker) Check(ctx context.Context, code string) Status {
	info := cnp.ExtractInfo(code)
	if info == nil {
		return Status{IsExcluded: true, Reason: "invalid identifier format", Verified: false}
	}

	// Underage is resolved locally; the register is never consulted.
	if info.Age < MinGamblingAge {
		return Status{
			IsExcluded: true,
			Reason:     fmt.Sprintf("under %d years old - not allowed to gamble", MinGamblingAge),
			Verified:   true,
		}
	}

	excluded, err := c.lookup.IsExcluded(ctx, code)
	if err != nil {
		slog.Error("exclusion lookup failed", "error", err)
		return Status{IsExcluded: true, Reason: "failed to check exclusion status", Verified: false}
	}

	if excluded {
		return Status{IsExcluded: true, Reason: "found in self-exclusion list", Verified: true}
	}
	return Status{IsExcluded: false, Reason: "allowed to gamble", Verified: true}
}
