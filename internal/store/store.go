package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rbacarra/cliweather/internal/models"
)

// ErrNotFound is returned when a named location or activity does not exist.
var ErrNotFound = errors.New("not found")

// ErrCorrupt marks an unreadable config file. Unlike the cache, user data is
// never silently discarded; the caller decides what to do.
var ErrCorrupt = errors.New("corrupt config file")

// Data is the persisted user document: saved locations and activities keyed
// by name.
type Data struct {
	Locations  map[string]models.Location `json:"locations"`
	Activities map[string]models.Activity `json:"activities"`
}

// Store persists user data as a single JSON document on disk.
type Store struct {
	path string
}

// New returns a store backed by path. The file is created with defaults on
// first load.
func New(path string) *Store {
	return &Store{path: path}
}

// defaults returns the initial document written when no config exists yet.
func defaults() *Data {
	return &Data{
		Locations: map[string]models.Location{
			"Manila": {Name: "Manila", Latitude: 14.5988, Longitude: 120.9834},
		},
		Activities: map[string]models.Activity{
			"walking": {
				Name: "walking",
				Criteria: models.Criteria{
					TempMin: models.Float(18),
					TempMax: models.Float(30),
					RainMax: models.Float(0),
					WindMin: models.Float(0),
					WindMax: models.Float(10),
				},
			},
		},
	}
}

// Load reads the document, creating it with defaults when missing.
func (s *Store) Load() (*Data, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			d := defaults()
			if err := s.Save(d); err != nil {
				return nil, err
			}
			return d, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if d.Locations == nil {
		d.Locations = map[string]models.Location{}
	}
	if d.Activities == nil {
		d.Activities = map[string]models.Activity{}
	}
	// The map key is authoritative for the name.
	for name, loc := range d.Locations {
		loc.Name = name
		d.Locations[name] = loc
	}
	for name, act := range d.Activities {
		act.Name = name
		d.Activities[name] = act
	}
	return &d, nil
}

// Save writes the document, creating parent directories as needed.
func (s *Store) Save(d *Data) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Location returns a saved location by name.
func (s *Store) Location(name string) (models.Location, error) {
	d, err := s.Load()
	if err != nil {
		return models.Location{}, err
	}
	loc, ok := d.Locations[name]
	if !ok {
		return models.Location{}, fmt.Errorf("location %q: %w", name, ErrNotFound)
	}
	return loc, nil
}

// SaveLocation validates and stores a location, overwriting any existing one
// with the same name.
func (s *Store) SaveLocation(loc models.Location) error {
	if err := models.ValidateLocation(loc); err != nil {
		return err
	}
	d, err := s.Load()
	if err != nil {
		return err
	}
	d.Locations[loc.Name] = loc
	return s.Save(d)
}

// DeleteLocation removes a saved location. Reports ErrNotFound when absent.
func (s *Store) DeleteLocation(name string) error {
	d, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := d.Locations[name]; !ok {
		return fmt.Errorf("location %q: %w", name, ErrNotFound)
	}
	delete(d.Locations, name)
	return s.Save(d)
}

// Locations returns all saved locations sorted by name.
func (s *Store) Locations() ([]models.Location, error) {
	d, err := s.Load()
	if err != nil {
		return nil, err
	}
	out := make([]models.Location, 0, len(d.Locations))
	for _, loc := range d.Locations {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Activity returns a saved activity by name.
func (s *Store) Activity(name string) (models.Activity, error) {
	d, err := s.Load()
	if err != nil {
		return models.Activity{}, err
	}
	act, ok := d.Activities[name]
	if !ok {
		return models.Activity{}, fmt.Errorf("activity %q: %w", name, ErrNotFound)
	}
	return act, nil
}

// SaveActivity validates and stores an activity, overwriting any existing one
// with the same name.
func (s *Store) SaveActivity(act models.Activity) error {
	if err := models.ValidateActivity(act); err != nil {
		return err
	}
	d, err := s.Load()
	if err != nil {
		return err
	}
	d.Activities[act.Name] = act
	return s.Save(d)
}

// DeleteActivity removes a saved activity. Reports ErrNotFound when absent.
func (s *Store) DeleteActivity(name string) error {
	d, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := d.Activities[name]; !ok {
		return fmt.Errorf("activity %q: %w", name, ErrNotFound)
	}
	delete(d.Activities, name)
	return s.Save(d)
}

// Activities returns all saved activities sorted by name.
func (s *Store) Activities() ([]models.Activity, error) {
	d, err := s.Load()
	if err != nil {
		return nil, err
	}
	out := make([]models.Activity, 0, len(d.Activities))
	for _, act := range d.Activities {
		out = append(out, act)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
