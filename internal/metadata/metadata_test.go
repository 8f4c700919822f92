package metadata

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/testutil"
)

func sampleDocument() *Metadata {
	return &Metadata{
		StudentName:    "Ada Lovelace",
		StudentAddress: testutil.TestAddresses.Student1.String(),
		CourseName:     "Analytical Engines 101",
		IssuerName:     "Difference University",
		IssuedDate:     "2025-03-14",
		Grade:          "A",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Metadata)
		want   string
	}{
		{"missing student name", func(m *Metadata) { m.StudentName = "" }, "student_name is required"},
		{"missing issued date", func(m *Metadata) { m.IssuedDate = "" }, "issued_date is required"},
		{"bad address", func(m *Metadata) { m.StudentAddress = "0x1234" }, "student_address is invalid"},
		{"zero address", func(m *Metadata) { m.StudentAddress = "0x0000000000000000000000000000000000000000" }, "zero address"},
		{"long grade", func(m *Metadata) { m.Grade = strings.Repeat("A", 33) }, "grade exceeds max length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sampleDocument()
			tt.mutate(m)
			err := m.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	require.NoError(t, sampleDocument().Validate())
}

func TestCanonicalIgnoresCosmeticDifferences(t *testing.T) {
	a := sampleDocument()
	b := sampleDocument()
	b.StudentName = "  Ada Lovelace "
	b.StudentAddress = strings.ToLower(b.StudentAddress)

	ca, err := Canonical(a)
	require.NoError(t, err)
	cb, err := Canonical(b)
	require.NoError(t, err)
	assert.Equal(t, string(ca), string(cb))
	assert.Contains(t, string(ca), `"studentAddress":"`+testutil.TestAddresses.Student1.String()+`"`)
	assert.NotContains(t, string(ca), "certificateId", "optional fields are omitted when empty")
}

func TestMemoryStoreIsContentAddressed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	h1, err := store.Put(ctx, sampleDocument())
	require.NoError(t, err)
	h2, err := store.Put(ctx, sampleDocument())
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "same document, same hash")
	assert.True(t, strings.HasPrefix(h1.String(), "sha256-"))
	assert.Len(t, h1.String(), len("sha256-")+64)
	assert.Equal(t, 1, store.Len())

	other := sampleDocument()
	other.Grade = "B"
	h3, err := store.Put(ctx, other)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)

	got, err := store.Get(ctx, h1)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.StudentName)
	assert.Equal(t, "A", got.Grade)

	_, err = store.Get(ctx, "sha256-missing")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestMemoryStoreRejectsInvalidDocument(t *testing.T) {
	m := sampleDocument()
	m.CourseName = " "
	_, err := NewMemoryStore().Put(context.Background(), m)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
