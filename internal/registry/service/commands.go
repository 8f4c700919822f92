package service

import (
	"strings"

	"certledger/internal/registry/models"
	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
)

// IssueCommand is the input to IssueCertificate. Id and timestamp are never part
// of it; the registry assigns both.
type IssueCommand struct {
	Caller      domain.Address
	Holder      domain.Address
	SubjectName string
	ProgramName string
	ContentHash domain.ContentHash
}

func (c *IssueCommand) Normalize() {
	c.SubjectName = strings.TrimSpace(c.SubjectName)
	c.ProgramName = strings.TrimSpace(c.ProgramName)
	c.ContentHash = domain.ContentHash(strings.TrimSpace(string(c.ContentHash)))
}

func (c *IssueCommand) Validate() error {
	if c.Holder.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "holder cannot be the zero address")
	}
	if c.SubjectName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "subject name is required")
	}
	if c.ProgramName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "program name is required")
	}
	if len(c.SubjectName) > models.MaxDisplayNameLength || len(c.ProgramName) > models.MaxDisplayNameLength {
		return dErrors.New(dErrors.CodeInvalidInput, "names must be 256 characters or less")
	}
	if c.ContentHash.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "content hash is required")
	}
	if len(c.ContentHash) > domain.MaxContentHashLength {
		return dErrors.New(dErrors.CodeInvalidInput, "content hash is too long")
	}
	return nil
}
