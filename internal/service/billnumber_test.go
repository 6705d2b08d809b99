package service

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBillNumberValidator(t *testing.T) {
	v := NewBillNumberValidator(regexp.MustCompile(`^[A-Z]+ [1-9][0-9]*$`))

	assert.True(t, v.Valid("HF 1"))
	assert.True(t, v.Valid("SF 1234"))
	assert.False(t, v.Valid("HF 01"))
	assert.False(t, v.Valid("hf 1"))
	assert.False(t, v.Valid(""))
	assert.False(t, NewBillNumberValidator(nil).Valid("HF 1"))
}

func TestCompanionDetector(t *testing.T) {
	validator := NewBillNumberValidator(regexp.MustCompile(`^[A-Z]+ [1-9][0-9]*$`))

	t.Run("pattern capture group", func(t *testing.T) {
		d := NewCompanionDetector(regexp.MustCompile(`([A-Z]+ [1-9][0-9]*)`), nil, validator)

		id, ok := d.Detect("Companion: SF 42")
		assert.True(t, ok)
		assert.Equal(t, "SF 42", id)

		_, ok = d.Detect("no companion here")
		assert.False(t, ok)
	})

	t.Run("function wins over pattern", func(t *testing.T) {
		fn := func(text string) string { return strings.ToUpper(strings.TrimPrefix(text, "see ")) }
		d := NewCompanionDetector(regexp.MustCompile(`(nothing)`), fn, validator)

		id, ok := d.Detect("see sf 7")
		assert.True(t, ok)
		assert.Equal(t, "SF 7", id)
	})

	t.Run("candidate must validate", func(t *testing.T) {
		fn := func(string) string { return "not a bill" }
		d := NewCompanionDetector(nil, fn, validator)

		_, ok := d.Detect("anything")
		assert.False(t, ok)
	})

	t.Run("disabled", func(t *testing.T) {
		d := NewCompanionDetector(nil, nil, validator)
		_, ok := d.Detect("SF 1")
		assert.False(t, ok)
	})
}
