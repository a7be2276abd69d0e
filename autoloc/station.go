package autoloc

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Station is an immutable entry in the Station Directory, keyed by
// "net.sta.loc". Latitude/Longitude are in degrees, Elevation in
// meters.
type Station struct {
	Net       string
	Sta       string
	Loc       string
	Lat       float64
	Lon       float64
	Elevation float64

	// Enabled mirrors the directory's usage flag: a disabled station
	// is only considered for association to an already-qualified
	// origin, never for nucleation.
	Enabled bool

	// MaxNucDist caps the distance, in degrees, at which a pick from
	// this station may trigger or join nucleation. Zero means "use the
	// grid point's default".
	MaxNucDist float64

	// MaxLocDist caps the distance, in degrees, beyond which arrivals
	// from this station are excluded during relocation. Zero means
	// "no station-specific cap", fall back to config.MaxStaDist.
	MaxLocDist float64
}

// Key returns the "net.sta.loc" identity string used throughout the
// pool and directory.
func (s *Station) Key() string {
	return stationKey(s.Net, s.Sta, s.Loc)
}

func stationKey(net, sta, loc string) string {
	return fmt.Sprintf("%s.%s.%s", net, sta, loc)
}

// Directory is the read-mostly map of known stations, built once at
// startup and consulted on every pick. It is safe for concurrent
// reads; Add is not safe to call once the core loop has started.
type Directory struct {
	stations map[string]*Station

	warnedMu sync.Mutex
	warned   map[string]bool
}

// NewDirectory returns an empty Directory.
func NewDirectory() *Directory {
	return &Directory{
		stations: make(map[string]*Station),
		warned:   make(map[string]bool),
	}
}

// Add inserts or replaces a station entry.
func (d *Directory) Add(s *Station) {
	d.stations[s.Key()] = s
}

// Lookup returns the station for net/sta/loc, or (nil, false) if it is
// not known. A missing station logs a warning at most once per key to
// avoid flooding the log when a misconfigured feed repeats picks from
// an unknown station.
func (d *Directory) Lookup(net, sta, loc string) (*Station, bool) {
	key := stationKey(net, sta, loc)
	if s, ok := d.stations[key]; ok {
		return s, true
	}
	d.warnedMu.Lock()
	if !d.warned[key] {
		d.warned[key] = true
		d.warnedMu.Unlock()
		log.Warnf("autoloc: unknown station %s", key)
	} else {
		d.warnedMu.Unlock()
	}
	return nil, false
}

// Len returns the number of known stations.
func (d *Directory) Len() int {
	return len(d.stations)
}
