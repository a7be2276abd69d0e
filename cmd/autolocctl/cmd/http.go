package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// fetchJSON GETs url and decodes a JSON array of T, following the
// teacher's FetchStats/FetchCounters pattern of a short-timeout
// http.Client plus json.Unmarshal.
func fetchJSON[T any](url string) ([]T, error) {
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return out, nil
}
