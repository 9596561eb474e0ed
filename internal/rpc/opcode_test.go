package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpCodeString(t *testing.T) {
	assert.Equal(t, "CreateFile", OpCreateFile.String())
	assert.Equal(t, "ReportLoadTask", OpReportLoadTask.String())
	assert.Equal(t, "OpCode(9999)", OpCode(9999).String())
}

func TestOpCodeValid(t *testing.T) {
	assert.True(t, OpMkdir.Valid())
	assert.True(t, OpReportLoadTask.Valid())
	assert.False(t, OpCode(0).Valid())
	assert.False(t, OpCode(9999).Valid())
}

func TestOpCodeNamesAreUnique(t *testing.T) {
	seen := make(map[string]OpCode)
	for code, name := range opCodeNames {
		if prior, ok := seen[name]; ok {
			t.Fatalf("duplicate op name %q for codes %d and %d", name, prior, code)
		}
		seen[name] = code
	}
}
