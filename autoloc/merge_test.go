package autoloc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCoreForMerge() *Core {
	return &Core{Picks: NewPickPool(), Origins: NewOriginSet()}
}

func TestOriginsEquivalentRequiresBothTimeAndDistanceProximity(t *testing.T) {
	c := testCoreForMerge()
	now := time.Now()
	a := &Origin{Hypocenter: Hypocenter{Lat: 10, Lon: 10, Time: now}}
	nearby := &Origin{Hypocenter: Hypocenter{Lat: 10.01, Lon: 10.01, Time: now.Add(5 * time.Second)}}
	farAway := &Origin{Hypocenter: Hypocenter{Lat: 40, Lon: 40, Time: now.Add(5 * time.Second)}}
	longAfter := &Origin{Hypocenter: Hypocenter{Lat: 10.01, Lon: 10.01, Time: now.Add(2 * time.Minute)}}

	assert.True(t, c.originsEquivalent(a, nearby))
	assert.False(t, c.originsEquivalent(a, farAway))
	assert.False(t, c.originsEquivalent(a, longAfter))
}

func TestMergeOriginsUnionsArrivalsWithoutDuplicates(t *testing.T) {
	c := testCoreForMerge()

	shared := &Pick{Net: "GE", Sta: "A", Time: time.Now()}
	onlyOnIncoming := &Pick{Net: "GE", Sta: "B", Time: time.Now()}
	_, err := c.Picks.Insert(shared, "shared")
	require.NoError(t, err)
	_, err = c.Picks.Insert(onlyOnIncoming, "incoming-only")
	require.NoError(t, err)

	keep := &Origin{Score: 10, Arrivals: []Arrival{{PickID: shared.ID}}}
	c.Origins.Insert(keep)
	incoming := &Origin{Score: 5, Arrivals: []Arrival{{PickID: shared.ID}, {PickID: onlyOnIncoming.ID}}}
	c.Origins.Insert(incoming)

	c.mergeOrigins(keep, incoming)

	assert.Len(t, keep.Arrivals, 2, "shared pick must not be duplicated")
	_, stillThere := c.Origins.Get(incoming.ID)
	assert.False(t, stillThere, "incoming origin must be removed from the set after merge")
	assert.Equal(t, keep.ID, onlyOnIncoming.OriginID)
}

func TestMergeOriginsKeepsHigherScoringHypocenter(t *testing.T) {
	c := testCoreForMerge()
	keep := &Origin{Score: 5, Hypocenter: Hypocenter{Lat: 1}}
	incoming := &Origin{Score: 50, Hypocenter: Hypocenter{Lat: 2}}
	c.Origins.Insert(keep)
	c.Origins.Insert(incoming)

	c.mergeOrigins(keep, incoming)
	assert.Equal(t, 2.0, keep.Lat, "a higher-scoring incoming origin's hypocenter should win")
}
