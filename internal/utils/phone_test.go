package utils_test

import (
	"testing"

	"github.com/DubeTracker/dube_ledger_app/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestIsEthiopianPhone(t *testing.T) {
	valid := []string{
		"+251911234567",
		"+251712345678",
		"0911234567",
		"0712345678",
	}
	for _, p := range valid {
		assert.True(t, utils.IsEthiopianPhone(p), p)
	}

	invalid := []string{
		"",
		"0911",
		"+251811234567", // 8 is not a mobile prefix
		"251911234567",  // missing plus
		"09112345678",   // too long
		"phone",
	}
	for _, p := range invalid {
		assert.False(t, utils.IsEthiopianPhone(p), p)
	}
}
