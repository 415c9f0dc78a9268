package fingerprint

import "testing"

func TestComputeDeterministic(t *testing.T) {
	a := Compute("user1", "2024-03-01", -250.00, "SWIGGY ORDER")
	b := Compute("user1", "2024-03-01", -250.00, "SWIGGY ORDER")
	if a != b {
		t.Errorf("identical tuples produced different fingerprints: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestComputeFieldSensitivity(t *testing.T) {
	base := Compute("user1", "2024-03-01", -250.00, "SWIGGY ORDER")

	variants := map[string]string{
		"user":        Compute("user2", "2024-03-01", -250.00, "SWIGGY ORDER"),
		"date":        Compute("user1", "2024-03-02", -250.00, "SWIGGY ORDER"),
		"amount":      Compute("user1", "2024-03-01", -250.01, "SWIGGY ORDER"),
		"sign":        Compute("user1", "2024-03-01", 250.00, "SWIGGY ORDER"),
		"description": Compute("user1", "2024-03-01", -250.00, "SWIGGY ORDERS"),
	}
	for field, got := range variants {
		if got == base {
			t.Errorf("changing %s did not change the fingerprint", field)
		}
	}
}

func TestComputeFixedPrecision(t *testing.T) {
	// 250 and 250.00 are the same amount at two decimals.
	a := Compute("user1", "2024-03-01", 250, "X")
	b := Compute("user1", "2024-03-01", 250.00, "X")
	if a != b {
		t.Errorf("equal amounts at 2dp produced different fingerprints")
	}
}
