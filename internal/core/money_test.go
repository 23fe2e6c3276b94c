package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12", 1200, true},
		{"0.01", 1, true},
		{"12.345", 1234, true}, // rounds down
		{"12.346", 1235, true}, // rounds up
		{"", 0, false},
		{"abc", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"0", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseDecimalToCents(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseDecimalToCents(%q) expected error", tc.in)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		m    Money
		c    Currency
		want string
	}{
		{Money{Cents: 1234}, PEN, "S/.12.34"},
		{Money{Cents: 1234}, USD, "$12.34"},
		{Money{Cents: -50}, PEN, "-S/.0.50"},
		{Money{Cents: 100005}, USD, "$1000.05"},
	}
	for _, tc := range cases {
		if got := tc.m.Format(tc.c); got != tc.want {
			t.Fatalf("Format(%d, %s) = %q, want %q", tc.m.Cents, tc.c, got, tc.want)
		}
	}
}

func TestMoneyValue(t *testing.T) {
	if v := (Money{Cents: 1234}).Value(); v != 12.34 {
		t.Fatalf("Value() = %v, want 12.34", v)
	}
	if c := CentsFromFloat(12.345); c != 1235 {
		t.Fatalf("CentsFromFloat(12.345) = %d, want 1235", c)
	}
}
