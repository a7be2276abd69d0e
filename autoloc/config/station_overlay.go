package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// StationRecord is one line of the station overlay file: "net sta loc
// usage maxNucDist [maxLocDist]", where usage is "enabled" or
// "disabled". Grounded on the station directory overlay format
// described alongside nucleator.cpp's grid file format.
type StationRecord struct {
	Net, Sta, Loc string
	Enabled       bool
	MaxNucDist    float64
	MaxLocDist    float64
}

// LoadStationOverlay parses r into a slice of StationRecords.
func LoadStationOverlay(r io.Reader) ([]StationRecord, error) {
	var out []StationRecord
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, fmt.Errorf("station overlay line %d: need at least 4 fields, got %d", lineNo, len(fields))
		}
		rec := StationRecord{Net: fields[0], Sta: fields[1], Loc: fields[2]}
		switch fields[3] {
		case "enabled":
			rec.Enabled = true
		case "disabled":
			rec.Enabled = false
		default:
			return nil, fmt.Errorf("station overlay line %d: usage must be enabled/disabled, got %q", lineNo, fields[3])
		}
		if len(fields) >= 5 {
			v, err := strconv.ParseFloat(fields[4], 64)
			if err != nil {
				return nil, fmt.Errorf("station overlay line %d: %w", lineNo, err)
			}
			rec.MaxNucDist = v
		}
		if len(fields) >= 6 {
			v, err := strconv.ParseFloat(fields[5], 64)
			if err != nil {
				return nil, fmt.Errorf("station overlay line %d: %w", lineNo, err)
			}
			rec.MaxLocDist = v
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}
