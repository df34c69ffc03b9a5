package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"42.50", 4250, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{4250, "€42,50"},
		{1, "€0,01"},
		{123456, "€1234,56"},
		{-500, "-€5,00"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).Format(); got != tc.want {
			t.Fatalf("Format(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyDecimalRoundTrip(t *testing.T) {
	for _, cents := range []int64{1, 99, 100, 4250, 123456} {
		dec := Money{Cents: cents}.Decimal()
		back, err := ParseDecimalToCents(dec)
		if err != nil {
			t.Fatalf("ParseDecimalToCents(%q): %v", dec, err)
		}
		if back != cents {
			t.Fatalf("round trip %d -> %q -> %d", cents, dec, back)
		}
	}
}
