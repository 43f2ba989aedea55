// Package poi serves the fixed points of interest shown on the home map.
package poi

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed locations.json
var defaultLocations []byte

// Point is one marker on the map.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

type document struct {
	Locations []Point `json:"locationsArray"`
}

// Load parses a locations file. An empty path falls back to the embedded
// default set.
func Load(path string) ([]Point, error) {
	data := defaultLocations
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read locations file: %w", err)
		}
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse locations: %w", err)
	}
	return doc.Locations, nil
}
