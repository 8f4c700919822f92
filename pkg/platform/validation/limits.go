package validation

import (
	"fmt"

	dErrors "certledger/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize is the maximum allowed request body size (64 KB). A metadata
	// document plus issue fields stays well below it.
	MaxBodySize = 64 * 1024
)

// String element length limits
const (
	// MaxDisplayNameLength bounds subject, program and issuer names.
	MaxDisplayNameLength = 256

	// MaxGradeLength bounds the optional grade on a metadata document.
	MaxGradeLength = 32

	// MaxDescriptionLength bounds the optional free-text description.
	MaxDescriptionLength = 4096

	// MaxIssuedDateLength bounds the issued date as presented by the issuer.
	MaxIssuedDateLength = 64
)

// Slice element count limits
const (
	// MaxSeedEntries is the maximum number of issuers or certificates in a seed file.
	MaxSeedEntries = 10000
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}
