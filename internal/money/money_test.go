package money

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseValid(t *testing.T) {
	cases := map[string]string{
		"0":                "0.00",
		"100":              "100.00",
		"100.5":            "100.50",
		"30.00":            "30.00",
		"-12.34":           "-12.34",
		"9999999999999.99": "9999999999999.99",
	}
	for in, want := range cases {
		a, err := Parse(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if a.String() != want {
			t.Fatalf("parse %q: got %s, want %s", in, a.String(), want)
		}
	}
}

func TestParseRejected(t *testing.T) {
	for _, in := range []string{"", "abc", "1.005", "0.001", "10000000000000", "10000000000000.00", "1e5.5"} {
		if _, err := Parse(in); !errors.Is(err, ErrMalformed) {
			t.Fatalf("parse %q: expected ErrMalformed, got %v", in, err)
		}
	}
}

func TestArithmeticIsExact(t *testing.T) {
	a := MustParse("0.10")
	sum := Zero()
	for i := 0; i < 3; i++ {
		sum = sum.Add(a)
	}
	if !sum.Equal(MustParse("0.30")) {
		t.Fatalf("expected 0.30, got %s", sum)
	}

	diff := MustParse("150.00").Sub(MustParse("30.00"))
	if diff.String() != "120.00" {
		t.Fatalf("expected 120.00, got %s", diff)
	}
}

func TestComparisons(t *testing.T) {
	small := MustParse("99.99")
	big := MustParse("100.00")
	if !small.LessThan(big) {
		t.Fatal("expected 99.99 < 100.00")
	}
	if big.Cmp(small) != 1 {
		t.Fatal("expected Cmp to return 1")
	}
	if !MustParse("-1").IsNegative() || MustParse("-1").IsPositive() {
		t.Fatal("sign checks broken")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	a := MustParse("42.50")
	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `"42.50"` {
		t.Fatalf("unexpected JSON: %s", raw)
	}

	var back Amount
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(a) {
		t.Fatalf("round trip mismatch: %s", back)
	}

	var fromNumber Amount
	if err := json.Unmarshal([]byte(`30.5`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if fromNumber.String() != "30.50" {
		t.Fatalf("expected 30.50, got %s", fromNumber)
	}
}
