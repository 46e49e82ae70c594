package lookup

import (
	"testing"
)

func TestDepartmentName(t *testing.T) {
	tests := []struct {
		code     string
		expected string
		ok       bool
	}{
		{"AGR", "Department of Agriculture (DOA)", true},
		{"hth", "Department of Health (DOH)", true},
		{" JUD ", "Judiciary", true},
		{"ZZZ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := DepartmentName(tt.code)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("DepartmentName(%q): got (%q, %v), want (%q, %v)", tt.code, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestDepartmentTablesAreInverse(t *testing.T) {
	if len(departmentCodes) != len(departmentNames) {
		t.Fatalf("duplicate codes: %d names, %d codes", len(departmentCodes), len(departmentNames))
	}
	for name, code := range departmentCodes {
		got, ok := DepartmentName(code)
		if !ok || got != name {
			t.Errorf("round trip for %q: got %q", code, got)
		}
		back, ok := DepartmentCode(name)
		if !ok || back != code {
			t.Errorf("DepartmentCode(%q): got %q, want %q", name, back, code)
		}
	}
}

func TestFundSource(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"A", "general funds"},
		{"n", "federal funds"},
		{"W", "revolving funds"},
		{"Q", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := FundSourceOrEmpty(tt.code)
			if got != tt.expected {
				t.Errorf("FundSource(%q): got %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}
