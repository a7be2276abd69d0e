package autoloc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gfz-potsdam/autoloc/autoloc/config"
)

func testCoreForFakeOrigin() *Core {
	cfg := config.DefaultConfig()
	cfg.MinPhaseCount = 8
	cfg.MaxRMS = 2.0
	cfg.GoodRMS = 0.5
	return &Core{cfg: cfg}
}

func TestFakeOriginProbabilityIsOneWithNoDefiningPhases(t *testing.T) {
	c := testCoreForFakeOrigin()
	o := &Origin{}
	assert.Equal(t, 1.0, c.fakeOriginProbability(o))
}

func TestFakeOriginProbabilityLowForAWellConstrainedOrigin(t *testing.T) {
	c := testCoreForFakeOrigin()
	o := &Origin{Quality: OriginQuality{DefiningPhaseCount: 16, SecondaryAzimuthGap: 30, StandardError: 0.3}}
	p := c.fakeOriginProbability(o)
	assert.Less(t, p, 0.2)
}

func TestFakeOriginProbabilityHighForThinWideNoisyOrigin(t *testing.T) {
	c := testCoreForFakeOrigin()
	o := &Origin{Quality: OriginQuality{DefiningPhaseCount: 4, SecondaryAzimuthGap: 300, StandardError: 3}}
	p := c.fakeOriginProbability(o)
	assert.Greater(t, p, 0.5)
}

func TestFakeOriginProbabilityIsClampedToUnitInterval(t *testing.T) {
	c := testCoreForFakeOrigin()
	o := &Origin{Quality: OriginQuality{DefiningPhaseCount: 1, SecondaryAzimuthGap: 360, StandardError: 100}}
	p := c.fakeOriginProbability(o)
	assert.LessOrEqual(t, p, 1.0)
	assert.GreaterOrEqual(t, p, 0.0)
}
