package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStationOverlayParsesFieldsAndSkipsComments(t *testing.T) {
	input := strings.NewReader("# comment\nGE WLF \"\" enabled 30 25\n\nGE WUT -- disabled 10\n")
	recs, err := LoadStationOverlay(input)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "GE", recs[0].Net)
	assert.Equal(t, "WLF", recs[0].Sta)
	assert.True(t, recs[0].Enabled)
	assert.Equal(t, 30.0, recs[0].MaxNucDist)
	assert.Equal(t, 25.0, recs[0].MaxLocDist)

	assert.False(t, recs[1].Enabled)
	assert.Equal(t, 10.0, recs[1].MaxNucDist)
	assert.Equal(t, 0.0, recs[1].MaxLocDist)
}

func TestLoadStationOverlayRejectsBadUsageField(t *testing.T) {
	_, err := LoadStationOverlay(strings.NewReader("GE WLF -- maybe 30\n"))
	assert.Error(t, err)
}

func TestLoadStationOverlayRejectsTooFewFields(t *testing.T) {
	_, err := LoadStationOverlay(strings.NewReader("GE WLF --\n"))
	assert.Error(t, err)
}
