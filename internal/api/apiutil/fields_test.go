package apiutil

import (
	"net/http/httptest"
	"testing"
)

func TestIDFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    int64
		wantErr bool
	}{
		{"valid", "42", 42, false},
		{"padded", " 7 ", 7, false},
		{"zero", "0", 0, true},
		{"negative", "-3", 0, true},
		{"empty", "", 0, true},
		{"text", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/things/1", nil)
			r.SetPathValue("id", tt.id)

			got, err := IDFromRequest(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("IDFromRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("IDFromRequest() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseClockValue(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"08:00", "08:00", false},
		{"8:5", "08:05", false},
		{"23:59", "23:59", false},
		{" 09:30 ", "09:30", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"noon", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseClockValue(tt.in, "opens_at")
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseClockValue(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseClockValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseIntField(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"15", 15, false},
		{" 7 ", 7, false},
		{"-2", -2, false},
		{"", 0, true},
		{"ten", 0, true},
		{"1.5", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseIntField(tt.in, "limit")
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseIntField(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseIntField(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseBoolField(t *testing.T) {
	for _, v := range []string{"1", "true", "on", "yes", " TRUE "} {
		if !ParseBoolField(v) {
			t.Errorf("ParseBoolField(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"", "0", "false", "off", "no", "maybe"} {
		if ParseBoolField(v) {
			t.Errorf("ParseBoolField(%q) = true, want false", v)
		}
	}
}
