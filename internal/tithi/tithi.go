// Package tithi answers read-only lunar-calendar lookups from a dated
// event dataset shipped as a JSON file.
package tithi

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// Event is one dated entry of the special-days dataset.
type Event struct {
	DateISO   string `json:"date_iso"`
	TithiType string `json:"tithi_type"`
	Name      string `json:"name,omitempty"`
}

// Service holds the dataset sorted by date.
type Service struct {
	events []Event
}

// New builds a service over an in-memory event list. Entries with
// unparseable dates are dropped.
func New(events []Event) *Service {
	kept := make([]Event, 0, len(events))
	for _, ev := range events {
		if _, err := time.Parse("2006-01-02", ev.DateISO); err == nil {
			kept = append(kept, ev)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].DateISO < kept[j].DateISO })
	return &Service{events: kept}
}

// LoadFile reads the dataset from a JSON file.
func LoadFile(path string) (*Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tithi dataset: %w", err)
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to parse tithi dataset: %w", err)
	}
	return New(events), nil
}

// NextEvent returns the nearest event of the given type on or after the
// given date, or false when none remains.
func (s *Service) NextEvent(tithiType string, after time.Time) (*Event, bool) {
	cutoff := after.Format("2006-01-02")
	for i := range s.events {
		ev := s.events[i]
		if ev.TithiType != tithiType {
			continue
		}
		if ev.DateISO >= cutoff {
			return &ev, true
		}
	}
	return nil, false
}
