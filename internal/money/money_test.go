package money

import "testing"

func TestParseCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"5000.00", 500000},
		{"200", 20000},
		{"0.5", 50},
		{"12.34", 1234},
		{"-300.00", -30000},
		{"+1.01", 101},
		{".75", 75},
	}
	for _, tc := range cases {
		got, err := ParseCents(tc.in)
		if err != nil {
			t.Fatalf("ParseCents(%q): unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseCents(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseCentsInvalid(t *testing.T) {
	for _, in := range []string{"", ".", "abc", "1.234", "1.2.3", "-", "5.-1", "5.+1", "--5.00", "+-5.00", "1,00", "1 0"} {
		if _, err := ParseCents(in); err == nil {
			t.Fatalf("ParseCents(%q): expected error", in)
		}
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{500000, "5000.00"},
		{50, "0.50"},
		{-30000, "-300.00"},
		{101, "1.01"},
		{0, "0.00"},
	}
	for _, tc := range cases {
		if got := FormatCents(tc.in); got != tc.want {
			t.Fatalf("FormatCents(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFormatRoundTripToTheCent(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 499999, -1, -499999} {
		parsed, err := ParseCents(FormatCents(cents))
		if err != nil {
			t.Fatalf("round trip %d: %v", cents, err)
		}
		if parsed != cents {
			t.Fatalf("round trip %d came back as %d", cents, parsed)
		}
	}
}
