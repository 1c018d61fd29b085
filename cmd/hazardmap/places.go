package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/phanxgames/hazardmap"
)

// ErrNoPlacesFile is returned when neither a flag nor places.file names a file.
var ErrNoPlacesFile = errors.New("no places file configured")

// placesFile is the object form of a places document.
type placesFile struct {
	ActiveID *int              `json:"activeId"`
	Places   []hazardmap.Place `json:"places"`
}

// loadPlaces reads places from path. The file is either a bare JSON array of
// places or an object with a "places" array and an optional "activeId".
// Returns hazardmap.NoSelection when no active id is given.
func loadPlaces(path string) ([]hazardmap.Place, hazardmap.ActivePlace, error) {
	if path == "" {
		return nil, hazardmap.NoSelection, ErrNoPlacesFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, hazardmap.NoSelection, fmt.Errorf("read places: %w", err)
	}
	return parsePlaces(data)
}

func parsePlaces(data []byte) ([]hazardmap.Place, hazardmap.ActivePlace, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var places []hazardmap.Place
		if err := json.Unmarshal(data, &places); err != nil {
			return nil, hazardmap.NoSelection, fmt.Errorf("parse places: %w", err)
		}
		return places, hazardmap.NoSelection, nil
	}
	var f placesFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, hazardmap.NoSelection, fmt.Errorf("parse places: %w", err)
	}
	active := hazardmap.NoSelection
	if f.ActiveID != nil {
		active = hazardmap.SelectPlace(*f.ActiveID)
	}
	return f.Places, active, nil
}
