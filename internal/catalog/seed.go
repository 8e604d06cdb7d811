package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout of a catalog seed file.
type seedFile struct {
	Places []*Place `yaml:"places"`
}

// LoadSeed reads places from a YAML file of the form:
//
//	places:
//	  - id: plc_cubbon
//	    name: Cubbon Park
//	    category: park
//	    lat: 12.9763
//	    lon: 77.5929
//	    rating: 4.6
func LoadSeed(path string) ([]*Place, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates YAML seed data.
func ParseSeed(data []byte) ([]*Place, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for i, p := range f.Places {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("seed place %d (%q): %w", i, p.Name, err)
		}
		if p.ID == "" {
			p.ID = NewPlaceID()
		}
	}
	return f.Places, nil
}

// Seed upserts places into the repository.
func Seed(ctx context.Context, repo Repository, places []*Place) error {
	for _, p := range places {
		if err := repo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("seed %q: %w", p.Name, err)
		}
	}
	return nil
}

// DefaultPlaces returns the built-in Bengaluru catalog used when no seed file is configured.
func DefaultPlaces() []*Place {
	return []*Place{
		{ID: "plc_mg_road", Name: "MG Road", Category: "shopping", Lat: 12.9756, Lon: 77.6047, Rating: 4.2, Popularity: 950, AvgDwellMinutes: 60},
		{ID: "plc_cubbon_park", Name: "Cubbon Park", Category: "park", Lat: 12.9763, Lon: 77.5929, Rating: 4.6, Popularity: 880, AvgDwellMinutes: 60},
		{ID: "plc_lalbagh", Name: "Lalbagh Botanical Garden", Category: "park", Lat: 12.9507, Lon: 77.5848, Rating: 4.5, Popularity: 910, AvgDwellMinutes: 90},
		{ID: "plc_bangalore_palace", Name: "Bangalore Palace", Category: "landmark", Lat: 12.9987, Lon: 77.5921, Rating: 4.3, Popularity: 760, AvgDwellMinutes: 90},
		{ID: "plc_vidhana_soudha", Name: "Vidhana Soudha", Category: "landmark", Lat: 12.9796, Lon: 77.5906, Rating: 4.5, Popularity: 700, AvgDwellMinutes: 30},
		{ID: "plc_tipu_palace", Name: "Tipu Sultan's Summer Palace", Category: "landmark", Lat: 12.9593, Lon: 77.5737, Rating: 4.1, Popularity: 540, AvgDwellMinutes: 45},
		{ID: "plc_iskcon", Name: "ISKCON Temple", Category: "temple", Lat: 13.0098, Lon: 77.5511, Rating: 4.7, Popularity: 820, AvgDwellMinutes: 60},
		{ID: "plc_bull_temple", Name: "Bull Temple", Category: "temple", Lat: 12.9428, Lon: 77.5681, Rating: 4.5, Popularity: 480, AvgDwellMinutes: 30},
		{ID: "plc_orion_mall", Name: "Orion Mall", Category: "shopping", Lat: 13.0111, Lon: 77.5550, Rating: 4.5, Popularity: 990, AvgDwellMinutes: 120},
		{ID: "plc_commercial_street", Name: "Commercial Street", Category: "shopping", Lat: 12.9822, Lon: 77.6083, Rating: 4.2, Popularity: 870, AvgDwellMinutes: 90},
		{ID: "plc_vv_puram", Name: "VV Puram Food Street", Category: "food", Lat: 12.9490, Lon: 77.5730, Rating: 4.4, Popularity: 650, AvgDwellMinutes: 60},
		{ID: "plc_mtr", Name: "Mavalli Tiffin Rooms", Category: "food", Lat: 12.9553, Lon: 77.5855, Rating: 4.4, Popularity: 720, AvgDwellMinutes: 45},
		{ID: "plc_vv_museum", Name: "Visvesvaraya Industrial and Technological Museum", Category: "museum", Lat: 12.9752, Lon: 77.5963, Rating: 4.5, Popularity: 610, AvgDwellMinutes: 90},
		{ID: "plc_ngma", Name: "National Gallery of Modern Art", Category: "museum", Lat: 12.9886, Lon: 77.5886, Rating: 4.4, Popularity: 420, AvgDwellMinutes: 75},
		{ID: "plc_ub_city", Name: "UB City", Category: "shopping", Lat: 12.9716, Lon: 77.5960, Rating: 4.4, Popularity: 780, AvgDwellMinutes: 60},
		{ID: "plc_ulsoor_lake", Name: "Ulsoor Lake", Category: "park", Lat: 12.9822, Lon: 77.6200, Rating: 4.1, Popularity: 430, AvgDwellMinutes: 45},
	}
}
