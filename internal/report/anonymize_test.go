package report

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeUserID_StableAndSalted(t *testing.T) {
	a := NewAnonymizer("deployment-salt")

	first := a.AnonymizeUserID("emp-1042")
	second := a.AnonymizeUserID("emp-1042")
	assert.Equal(t, first, second, "same user must map to the same pseudonym")
	assert.Len(t, first, 16)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), first)
	assert.NotContains(t, first, "emp-1042")

	other := a.AnonymizeUserID("emp-1043")
	assert.NotEqual(t, first, other)

	resalted := NewAnonymizer("different-salt").AnonymizeUserID("emp-1042")
	assert.NotEqual(t, first, resalted, "salt must change the mapping")
}

func TestNewReportID_Format(t *testing.T) {
	seen := map[string]struct{}{}
	idRe := regexp.MustCompile(`^SAFE-[0-9a-f]{16}$`)
	for i := 0; i < 100; i++ {
		id := NewReportID()
		assert.Regexp(t, idRe, id)
		_, dup := seen[id]
		assert.False(t, dup, "report IDs must not repeat")
		seen[id] = struct{}{}
	}
}

func TestNewAnonymizer_RequiresSalt(t *testing.T) {
	assert.Panics(t, func() { NewAnonymizer("") })
}
