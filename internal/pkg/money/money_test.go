package money

import (
	"encoding/json"
	"testing"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want Amount
	}{
		{"29.99", 2999},
		{"0.05", 5},
		{"100", 10000},
		{"0", 0},
		{"-3.50", -350},
		{".99", 99},
		{"7.5", 750},
	}
	for _, c := range cases {
		got, err := ParseDecimal(c.in)
		if err != nil {
			t.Errorf("ParseDecimal(%q): unexpected error %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseDecimal(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseDecimalRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "abc", "1.999", "1.2.3", "1,50"} {
		if _, err := ParseDecimal(in); err == nil {
			t.Errorf("ParseDecimal(%q): expected error", in)
		}
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		in   Amount
		want string
	}{
		{5998, "59.98"},
		{5, "0.05"},
		{0, "0.00"},
		{-350, "-3.50"},
		{10000, "100.00"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Errorf("Amount(%d).String() = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMulQty(t *testing.T) {
	if got := Amount(2999).MulQty(2); got != 5998 {
		t.Fatalf("MulQty = %d, want 5998", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(Amount(2999))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "29.99" {
		t.Fatalf("marshal = %s, want 29.99", raw)
	}

	var a Amount
	if err := json.Unmarshal([]byte("29.99"), &a); err != nil {
		t.Fatal(err)
	}
	if a != 2999 {
		t.Fatalf("unmarshal number = %d, want 2999", a)
	}
	if err := json.Unmarshal([]byte(`"10.50"`), &a); err != nil {
		t.Fatal(err)
	}
	if a != 1050 {
		t.Fatalf("unmarshal string = %d, want 1050", a)
	}
}

func TestUnmarshalNeverRoundsThroughFloat(t *testing.T) {
	// 4003.57 is not representable in binary floating point; a float
	// path would drift by a cent somewhere in a long sum.
	var a Amount
	if err := json.Unmarshal([]byte("4003.57"), &a); err != nil {
		t.Fatal(err)
	}
	if a != 400357 {
		t.Fatalf("got %d, want 400357", a)
	}
}
