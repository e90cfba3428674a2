package provider

import "testing"

func TestFormatAmount(t *testing.T) {
	cases := map[int64]string{
		45000:  "450",
		45050:  "450.5",
		125099: "1250.99",
		1:      "0.01",
	}
	for cents, expected := range cases {
		if got := FormatAmount(cents); got != expected {
			t.Fatalf("FormatAmount(%d) = %s, expected %s", cents, got, expected)
		}
	}
}

func TestParseAmountCents(t *testing.T) {
	cases := map[string]int64{
		"450":      45000,
		"450.0":    45000,
		"1,000.0":  100000,
		" 12.34 ":  1234,
		"1,250.50": 125050,
	}
	for raw, expected := range cases {
		got, err := ParseAmountCents(raw)
		if err != nil {
			t.Fatalf("ParseAmountCents(%q) returned error: %v", raw, err)
		}
		if got != expected {
			t.Fatalf("ParseAmountCents(%q) = %d, expected %d", raw, got, expected)
		}
	}

	for _, raw := range []string{"", "abc", "1.005"} {
		if _, err := ParseAmountCents(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
