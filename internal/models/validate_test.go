package models

import (
	"errors"
	"strings"
	"testing"
)

// TestValidateName covers the trim, length, and character rules shared by
// location and activity names.
func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"simple", "Manila", "Manila", nil},
		{"trimmed", "  Baguio City  ", "Baguio City", nil},
		{"comma and hyphen", "Taguig, Metro-Manila", "Taguig, Metro-Manila", nil},
		{"unicode letters", "Öland", "Öland", nil},
		{"digits", "Area 51", "Area 51", nil},
		{"empty", "", "", ErrNameEmpty},
		{"whitespace only", "   ", "", ErrNameEmpty},
		{"too long", strings.Repeat("a", 65), "", ErrNameTooLong},
		{"at limit", strings.Repeat("a", 64), strings.Repeat("a", 64), nil},
		{"slash rejected", "a/b", "", ErrNameInvalidChars},
		{"newline rejected", "a\nb", "", ErrNameInvalidChars},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateName(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateName(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestValidateLocation verifies coordinate range enforcement.
func TestValidateLocation(t *testing.T) {
	tests := []struct {
		name    string
		loc     Location
		wantErr bool
	}{
		{"valid", Location{Name: "Manila", Latitude: 14.5988, Longitude: 120.9834}, false},
		{"poles", Location{Name: "South Pole", Latitude: -90, Longitude: 0}, false},
		{"latitude too high", Location{Name: "Nowhere", Latitude: 91, Longitude: 0}, true},
		{"longitude too low", Location{Name: "Nowhere", Latitude: 0, Longitude: -181}, true},
		{"bad name", Location{Name: "", Latitude: 0, Longitude: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLocation(tt.loc)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLocation() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidateCriteria covers the cross-field rules: bound ordering, negative
// amounts, and time window shape.
func TestValidateCriteria(t *testing.T) {
	tests := []struct {
		name    string
		c       Criteria
		wantErr bool
	}{
		{"empty is valid", Criteria{}, false},
		{"full set", Criteria{
			TempMin: Float(15), TempMax: Float(25),
			RainMax: Float(0),
			WindMin: Float(0), WindMax: Float(20),
			TimeStart: "08:00", TimeEnd: "12:00",
		}, false},
		{"single bound", Criteria{TempMax: Float(25)}, false},
		{"zero lower bound", Criteria{TempMin: Float(0)}, false},
		{"temp min above max", Criteria{TempMin: Float(30), TempMax: Float(20)}, true},
		{"wind min above max", Criteria{WindMin: Float(30), WindMax: Float(10)}, true},
		{"equal temp bounds", Criteria{TempMin: Float(20), TempMax: Float(20)}, false},
		{"negative rain cap", Criteria{RainMax: Float(-1)}, true},
		{"negative wind min", Criteria{WindMin: Float(-5)}, true},
		{"start without end", Criteria{TimeStart: "08:00"}, true},
		{"end without start", Criteria{TimeEnd: "12:00"}, true},
		{"malformed start", Criteria{TimeStart: "8am", TimeEnd: "12:00"}, true},
		{"out of range hour", Criteria{TimeStart: "25:00", TimeEnd: "12:00"}, true},
		{"midnight wrap is valid", Criteria{TimeStart: "22:00", TimeEnd: "04:00"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCriteria(tt.c)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCriteria() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("error type = %T, want *ValidationError", err)
				}
			}
		})
	}
}

// TestValidateActivity verifies an activity fails on either a bad name or bad
// criteria.
func TestValidateActivity(t *testing.T) {
	good := Activity{Name: "hiking", Criteria: Criteria{TempMin: Float(10)}}
	if err := ValidateActivity(good); err != nil {
		t.Errorf("ValidateActivity(valid) error = %v", err)
	}
	if err := ValidateActivity(Activity{Name: ""}); err == nil {
		t.Error("ValidateActivity() accepted an empty name")
	}
	bad := Activity{Name: "hiking", Criteria: Criteria{TempMin: Float(30), TempMax: Float(10)}}
	if err := ValidateActivity(bad); err == nil {
		t.Error("ValidateActivity() accepted inverted temperature bounds")
	}
}

// TestCriteria_Empty verifies the empty check sees every field.
func TestCriteria_Empty(t *testing.T) {
	if !(Criteria{}).Empty() {
		t.Error("zero Criteria not reported empty")
	}
	set := []Criteria{
		{TempMin: Float(1)},
		{TempMax: Float(1)},
		{RainMax: Float(1)},
		{WindMin: Float(1)},
		{WindMax: Float(1)},
		{TimeStart: "08:00", TimeEnd: "12:00"},
	}
	for i, c := range set {
		if c.Empty() {
			t.Errorf("criteria %d reported empty with a field set", i)
		}
	}
}
