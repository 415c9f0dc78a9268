package normalize

import "testing"

func TestAmount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1,00,000.50", 100000.50},
		{"(1,234.56)", -1234.56},
		{"9,720.00 CR", 9720.00},
		{"9,720.00 Cr", 9720.00},
		{"500.00 Dr", -500.00},
		{"-1,234.56", -1234.56},
		{"Rs. 2,500.00", 2500.00},
		{"₹1,250.75", 1250.75},
		{"INR 99", 99},
		{"$45.10", 45.10},
		{"250.00", 250.00},
		{"0.00", 0},
		{"", 0},
		{"N/A", 0},
		{"TOTAL", 0},
		{"12.34.56", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Amount(tt.input)
			if got != tt.want {
				t.Errorf("Amount(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"01/03/2024", "2024-03-01", true}, // day-first
		{"2024-03-01", "2024-03-01", true},
		{"15-Aug-2023", "2023-08-15", true},
		{"02 Jan 2024", "2024-01-02", true},
		{"31/12/2023", "2023-12-31", true},
		{"", "", false},
		{"not a date", "", false},
		{"SWIGGY ORDER", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Date(tt.input)
			if ok != tt.ok {
				t.Fatalf("Date(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Date(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDescription(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"UPI-SWIGGY*ORDER@ybl", "UPI SWIGGY ORDER YBL"},
		{"  NEFT/HDFC0001/rent  ", "NEFT HDFC0001 RENT"},
		{"swiggy   order", "SWIGGY ORDER"},
		{"", ""},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Description(tt.input)
			if got != tt.want {
				t.Errorf("Description(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
