package string

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	cases := map[string]string{
		"ContentHash": "content_hash",
		"Holder":      "holder",
		"TxID":        "tx_id",
		"":            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ToSnakeCase(in), in)
	}
}

func TestTrimStrings(t *testing.T) {
	a, b := "  0xabc ", "\tCompilers\n"
	TrimStrings(&a, &b)
	assert.Equal(t, "0xabc", a)
	assert.Equal(t, "Compilers", b)
}
