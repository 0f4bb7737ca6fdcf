package psw

import (
	"strings"
	"testing"
)

func TestValidateCompanyName(t *testing.T) {
	testCases := []struct {
		in      string
		wantErr bool
	}{
		{"Investor AB", false},
		{"3M", false},
		{"", true},
		{" A ", true},
		{"12345", true},
		{strings.Repeat("x", 256), true},
	}
	for _, tc := range testCases {
		if err := ValidateCompanyName(tc.in); (err != nil) != tc.wantErr {
			t.Errorf("ValidateCompanyName(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
	}
}

func TestValidateCountry(t *testing.T) {
	if err := ValidateCountry("Sweden"); err != nil {
		t.Errorf("ValidateCountry(Sweden) = %v", err)
	}
	for _, bad := range []string{"", "Atlantis", "sweden"} {
		if err := ValidateCountry(bad); err == nil {
			t.Errorf("ValidateCountry(%q) want an error", bad)
		}
	}
}

func TestValidateTicker(t *testing.T) {
	testCases := []struct {
		in      string
		wantErr bool
	}{
		{"", false},
		{"VOLV B", false},
		{"brk.b", false},
		{"ABC-PREF", false},
		{"A$B", true},
		{strings.Repeat("A", 21), true},
	}
	for _, tc := range testCases {
		if err := ValidateTicker(tc.in); (err != nil) != tc.wantErr {
			t.Errorf("ValidateTicker(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
	}
}

func TestValidCurrency(t *testing.T) {
	for _, good := range []string{"SEK", "usd", " EUR "} {
		if err := ValidCurrency(good); err != nil {
			t.Errorf("ValidCurrency(%q) = %v", good, err)
		}
	}
	for _, bad := range []string{"", "SE", "BRL", "XYZ"} {
		if err := ValidCurrency(bad); err == nil {
			t.Errorf("ValidCurrency(%q) want an error", bad)
		}
	}
}

func TestPriority(t *testing.T) {
	if PriorityHigh.String() != "High" || !PriorityCritical.Valid() || Priority(5).Valid() {
		t.Errorf("unexpected priority behaviour")
	}
	if Risk(0).Valid() || !Risk(3).Valid() {
		t.Errorf("unexpected risk behaviour")
	}
}
