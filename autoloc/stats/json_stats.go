package stats

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// OriginSnapshot is the shape of one entry in the /origins endpoint.
type OriginSnapshot struct {
	ID                 uint64  `json:"id"`
	Lat                float64 `json:"lat"`
	Lon                float64 `json:"lon"`
	Depth              float64 `json:"depth"`
	Score              float64 `json:"score"`
	DefiningPhaseCount int     `json:"definingPhaseCount"`
	AzimuthalGap       float64 `json:"azimuthalGap"`
}

// OriginsProvider is implemented by the core's caller to expose the
// current set of live origins to the stats server without the stats
// package importing the core package.
type OriginsProvider func() []OriginSnapshot

// JSONStatsServer exposes /counters and /origins over HTTP, grounded
// on the JSON stats server embedded in cmd/sptp/main.go's doWork.
type JSONStatsServer struct {
	addr      string
	counters  *Counters
	origins   OriginsProvider
	mux       *http.ServeMux
}

// NewJSONStatsServer returns a server bound to addr.
func NewJSONStatsServer(addr string, counters *Counters, origins OriginsProvider) *JSONStatsServer {
	s := &JSONStatsServer{addr: addr, counters: counters, origins: origins, mux: http.NewServeMux()}
	s.mux.HandleFunc("/counters", s.handleCounters)
	s.mux.HandleFunc("/origins", s.handleOrigins)
	return s
}

func (s *JSONStatsServer) handleCounters(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.counters.Snapshot()); err != nil {
		log.Errorf("autoloc: encoding counters: %v", err)
	}
}

func (s *JSONStatsServer) handleOrigins(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var snaps []OriginSnapshot
	if s.origins != nil {
		snaps = s.origins()
	}
	if err := json.NewEncoder(w).Encode(snaps); err != nil {
		log.Errorf("autoloc: encoding origins: %v", err)
	}
}

// Start runs the server, blocking the calling goroutine. Meant to be
// run in its own goroutine, the way cmd/sptp/main.go runs its JSON
// stats server.
func (s *JSONStatsServer) Start() error {
	log.Infof("autoloc: stats server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}
