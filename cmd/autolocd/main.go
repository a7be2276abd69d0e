// Command autolocd runs the autoloc core as a long-running daemon:
// it reads picks from stdin (one JSON PickRecord per line, the
// simplest possible Event Source) or from a replay recording, and
// republishes accepted origins to its stats server and log. Grounded
// on cmd/sptp/main.go's flag-based CLI and goroutine layout.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/shirou/gopsutil/process"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/gfz-potsdam/autoloc/autoloc"
	"github.com/gfz-potsdam/autoloc/autoloc/config"
	"github.com/gfz-potsdam/autoloc/autoloc/eventio"
	"github.com/gfz-potsdam/autoloc/autoloc/stats"

	_ "net/http/pprof"
)

// logEventSink implements eventio.Sink by logging; a real deployment
// replaces it with one that publishes to a message bus.
type logEventSink struct{}

func (logEventSink) Publish(ev eventio.OriginEvent) error {
	log.Infof("PUBLISH id=%d lat=%.3f lon=%.3f depth=%.1f score=%.1f phases=%d arrivals=%d",
		ev.ID, ev.Lat, ev.Lon, ev.Depth, ev.Score, ev.DefiningPhaseCount, ev.ArrivalCount)
	return nil
}

// eventSinkAdapter bridges autoloc.Sink's domain-object Publish to the
// wire-shaped eventio.Sink, keeping the Event Sink boundary (spec.md
// §6) a single seam that a real transport implementation replaces.
type eventSinkAdapter struct {
	sink eventio.Sink
}

func (a *eventSinkAdapter) Publish(o *autoloc.Origin) error {
	return a.sink.Publish(eventio.OriginEvent{
		ID:                 o.ID,
		Lat:                o.Lat,
		Lon:                o.Lon,
		Depth:              o.Depth,
		Time:               o.Time,
		Score:              o.Score,
		DefiningPhaseCount: o.Quality.DefiningPhaseCount,
		AzimuthalGap:       o.Quality.AzimuthalGap,
		ArrivalCount:       len(o.Arrivals),
	})
}

// coreSource adapts the Core's domain API to eventio.Source, the shape
// a replay recording (or a future live transport) drives events
// through.
type coreSource struct {
	core *autoloc.Core
}

func (s *coreSource) OnPick(rec eventio.PickRecord) error {
	s.core.ProcessPick(recordToPick(rec), rec.ID)
	return nil
}

func (s *coreSource) OnOrigin(rec eventio.OriginRecord) error {
	o := &autoloc.Origin{Hypocenter: autoloc.Hypocenter{Lat: rec.Lat, Lon: rec.Lon, Depth: rec.Depth, Time: rec.Time}}
	s.core.ImportOrigin(o)
	return nil
}

func (s *coreSource) OnTick(logicalTime time.Time) error {
	s.core.Tick(context.Background(), logicalTime)
	return nil
}

func loadStations(cfg *config.Config) (*autoloc.Directory, error) {
	dir := autoloc.NewDirectory()
	if cfg.StationFile == "" {
		return dir, nil
	}
	f, err := os.Open(cfg.StationFile)
	if err != nil {
		return nil, fmt.Errorf("opening station file %q: %w", cfg.StationFile, err)
	}
	defer f.Close()
	records, err := config.LoadStationOverlay(f)
	if err != nil {
		return nil, fmt.Errorf("loading station file %q: %w", cfg.StationFile, err)
	}
	for _, r := range records {
		dir.Add(&autoloc.Station{
			Net: r.Net, Sta: r.Sta, Loc: r.Loc,
			Enabled:    r.Enabled,
			MaxNucDist: r.MaxNucDist,
			MaxLocDist: r.MaxLocDist,
		})
	}
	return dir, nil
}

func loadGrid(core *autoloc.Core, cfg *config.Config) error {
	if cfg.GridFile == "" {
		return nil
	}
	f, err := os.Open(cfg.GridFile)
	if err != nil {
		return fmt.Errorf("opening grid file %q: %w", cfg.GridFile, err)
	}
	defer f.Close()
	return core.LoadGrid(f)
}

func loadAuthors(core *autoloc.Core, cfg *config.Config) error {
	if cfg.AuthorFile == "" {
		return nil
	}
	al, err := config.LoadAuthorList(cfg.AuthorFile)
	if err != nil {
		return fmt.Errorf("loading author file %q: %w", cfg.AuthorFile, err)
	}
	core.LoadAuthors(al)
	return nil
}

// updateSysStatsForever periodically samples this process's own
// CPU/memory/fd counts into counters, grounded on
// ptp/sptp/client/sysstats.go's CollectRuntimeStats.
func updateSysStatsForever(counters *stats.Counters, interval time.Duration) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warningf("autoloc: failed to open self process handle: %v", err)
		return
	}
	for {
		if val, err := proc.Percent(0); err == nil {
			counters.Add("autoloc.sys.process_cpu_pct_milli", int64(val*1000))
		}
		if val, err := proc.MemoryInfo(); err == nil {
			counters.Add("autoloc.sys.process_rss", int64(val.RSS))
		}
		if val, err := proc.NumFDs(); err == nil {
			counters.Add("autoloc.sys.process_num_fds", int64(val))
		}
		time.Sleep(interval)
	}
}

// stdinSource reads newline-delimited JSON PickRecords from stdin and
// feeds them to core, acting as the simplest possible Event Source.
func stdinSource(ctx context.Context, core *autoloc.Core, r io.Reader) error {
	dec := json.NewDecoder(bufio.NewReader(r))
	for dec.More() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		var rec eventio.PickRecord
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("decoding pick record: %w", err)
		}
		pick := recordToPick(rec)
		core.ProcessPick(pick, rec.ID)
	}
	return nil
}

func recordToPick(rec eventio.PickRecord) *autoloc.Pick {
	status := autoloc.StatusAutomatic
	switch rec.Status {
	case "manual":
		status = autoloc.StatusManual
	case "imported":
		status = autoloc.StatusImported
	}
	p := &autoloc.Pick{
		Net: rec.Net, Sta: rec.Sta, Loc: rec.Loc,
		Phase: rec.Phase, Time: rec.Time, Author: rec.Author,
		Status: status,
	}
	if rec.AmplValue != 0 || rec.SNR != 0 {
		p.Amplitude = &autoloc.Amplitude{Type: rec.AmplType, Value: rec.AmplValue, SNR: rec.SNR}
	}
	p.Amp = rec.AmplValue
	p.Per = rec.Period
	p.NormAmp = rec.NormAmp
	return p
}

func tickLoop(ctx context.Context, core *autoloc.Core, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			core.Tick(ctx, t)
		}
	}
}

func main() {
	var (
		verboseFlag bool
		configFlag  string
		replayFlag  string
		pprofFlag   string
	)

	flag.BoolVar(&verboseFlag, "verbose", false, "verbose output")
	flag.StringVar(&configFlag, "config", "", "path to the YAML run config")
	flag.StringVar(&replayFlag, "replay", "", "replay a newline-delimited JSON event recording instead of reading stdin")
	flag.StringVar(&pprofFlag, "pprof", "", "address to have the profiler listen on, disabled if empty")
	flag.Parse()

	log.SetLevel(log.InfoLevel)
	if verboseFlag {
		log.SetLevel(log.DebugLevel)
	}

	cfg := config.DefaultConfig()
	if configFlag != "" {
		var err error
		cfg, err = config.ReadConfig(configFlag)
		if err != nil {
			log.Fatal(err)
		}
	}

	if pprofFlag != "" {
		go func() {
			if err := http.ListenAndServe(pprofFlag, nil); err != nil {
				log.Errorf("autoloc: failed to start pprof: %v", err)
			}
		}()
	}

	dir, err := loadStations(cfg)
	if err != nil {
		log.Fatal(err)
	}

	counters := stats.NewCounters()
	tt := autoloc.NewConstantVelocityTable()
	sink := &eventSinkAdapter{sink: logEventSink{}}

	core := autoloc.NewCore(cfg, dir, tt, nil, sink)
	core.Counters = counters

	if err := loadGrid(core, cfg); err != nil {
		log.Fatal(err)
	}
	if err := loadAuthors(core, cfg); err != nil {
		log.Warningf("autoloc: %v", err)
	}

	jsonStats := stats.NewJSONStatsServer(cfg.StatsListenAddress, counters, core.SnapshotOrigins)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return jsonStats.Start() })
	g.Go(func() error {
		updateSysStatsForever(counters, 30*time.Second)
		return nil
	})
	g.Go(func() error { return tickLoop(ctx, core, time.Minute) })
	g.Go(func() error {
		if replayFlag != "" {
			f, err := os.Open(replayFlag)
			if err != nil {
				return fmt.Errorf("opening replay file %q: %w", replayFlag, err)
			}
			defer f.Close()
			return eventio.Replay(f, &coreSource{core: core})
		}
		return stdinSource(ctx, core, os.Stdin)
	})

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warningf("autoloc: sd_notify failed: %v", err)
	} else if !ok {
		log.Debug("autoloc: not running under systemd, skipping sd_notify")
	}

	if err := g.Wait(); err != nil && err != io.EOF {
		log.Fatal(err)
	}
}
