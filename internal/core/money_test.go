package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Money
		wantErr bool
	}{
		{"integer", "12", 1200, false},
		{"two decimals", "12.34", 1234, false},
		{"one decimal", "0.5", 50, false},
		{"leading space", " 7.25 ", 725, false},
		{"zero", "0", 0, false},
		{"negative", "-3.10", -310, false},
		{"empty", "", 0, true},
		{"not a number", "abc", 0, true},
		{"three decimals", "12.345", 0, true},
		{"double dot", "1.2.3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMoney(%q) expected error, got %d", tt.input, got)
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("ParseMoney(%q) error = %v, want ErrValidation", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMoney(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMoney(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := Money(1).Validate(); err != nil {
		t.Errorf("Money(1).Validate() = %v, want nil", err)
	}
	for _, m := range []Money{0, -100} {
		err := m.Validate()
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Money(%d).Validate() = %v, want ErrValidation", m, err)
		}
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents Money
		want  string
	}{
		{1234, "12.34"},
		{1200, "12.00"},
		{5, "0.05"},
		{-310, "-3.10"},
		{0, "0.00"},
	}
	for _, tt := range tests {
		if got := tt.cents.String(); got != tt.want {
			t.Errorf("Money(%d).String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(Money(1050))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "10.5" {
		t.Errorf("marshal Money(1050) = %s, want 10.5", b)
	}

	var m Money
	if err := json.Unmarshal([]byte("300.25"), &m); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if m != 30025 {
		t.Errorf("unmarshal 300.25 = %d, want 30025", m)
	}

	if err := json.Unmarshal([]byte(`"99.99"`), &m); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if m != 9999 {
		t.Errorf("unmarshal \"99.99\" = %d, want 9999", m)
	}
}
