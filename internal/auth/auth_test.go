package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowAll(t *testing.T) {
	subject, err := AllowAll{}.Verify("anything")
	assert.NoError(t, err)
	assert.Equal(t, "dev", subject)

	_, err = AllowAll{}.Verify("")
	assert.Error(t, err)
}
