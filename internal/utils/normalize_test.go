package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailHelpers(t *testing.T) {
	assert.Equal(t, "jane.doe@au.edu", NormalizeEmail("  Jane.Doe@AU.edu "))
	assert.Equal(t, "jane.doe", EmailLocalPart("jane.doe@au.edu"))
	assert.Equal(t, "noatsign", EmailLocalPart("noatsign"))

	assert.True(t, HasEmailDomain("Admin@AU.EDU", "@au.edu"))
	assert.False(t, HasEmailDomain("admin@gmail.com", "@au.edu"))
	assert.False(t, HasEmailDomain("@au.edu", "@au.edu"))
	assert.False(t, HasEmailDomain("admin@au.edu", ""))
}

func TestNormalizeUpper(t *testing.T) {
	assert.Equal(t, "HIGH", NormalizeUpper(" high "))
	assert.Equal(t, "", NormalizeUpper("   "))
}
