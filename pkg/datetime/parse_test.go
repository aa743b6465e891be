package datetime

import (
	"testing"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Valid date", "2025-06-30", false},
		{"Leap day", "2024-02-29", false},
		{"Not a leap year", "2025-02-29", true},
		{"Month only", "2025-06", true},
		{"US format", "06/30/2025", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if IsValidDate(tt.input) == tt.wantErr {
				t.Errorf("IsValidDate(%q) disagrees with ParseDate", tt.input)
			}
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected int
	}{
		{"Same day", "2025-01-15", "2025-01-15", 0},
		{"Exactly one year", "2025-01-15", "2026-01-15", 12},
		{"Partial month not counted", "2025-01-15", "2025-03-14", 1},
		{"Five years", "2024-06-01", "2029-06-01", 60},
		{"End before start", "2026-01-01", "2025-01-01", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, err := ParseDate(tt.start)
			if err != nil {
				t.Fatal(err)
			}
			end, err := ParseDate(tt.end)
			if err != nil {
				t.Fatal(err)
			}
			if result := MonthsBetween(start, end); result != tt.expected {
				t.Errorf("MonthsBetween(%s, %s) = %d, expected %d", tt.start, tt.end, result, tt.expected)
			}
		})
	}
}

func TestDateBeforeDate(t *testing.T) {
	before, err := DateBeforeDate("2025-01-01", "2025-01-02")
	if err != nil || !before {
		t.Errorf("DateBeforeDate() = %v, %v, expected true, nil", before, err)
	}
	before, err = DateBeforeDate("2025-01-02", "2025-01-02")
	if err != nil || before {
		t.Errorf("DateBeforeDate() on equal dates = %v, %v, expected false, nil", before, err)
	}
	if _, err := DateBeforeDate("bad", "2025-01-02"); err == nil {
		t.Error("expected error for invalid first date")
	}
}
