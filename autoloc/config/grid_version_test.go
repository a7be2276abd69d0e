package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckGridVersionAcceptsSupportedVersion(t *testing.T) {
	assert.NoError(t, CheckGridVersion("1.0"))
	assert.NoError(t, CheckGridVersion("1.5"))
}

func TestCheckGridVersionTreatsAbsentHeaderAsOnePointZero(t *testing.T) {
	assert.NoError(t, CheckGridVersion(""))
}

func TestCheckGridVersionRejectsUnsupportedMajorVersion(t *testing.T) {
	assert.Error(t, CheckGridVersion("2.0"))
	assert.Error(t, CheckGridVersion("0.9"))
}
