package payments

import (
	"testing"
	"time"
)

func TestInvoiceNumber(t *testing.T) {
	issued := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		paymentID string
		want      string
	}{
		{
			name:      "uppercases the id suffix",
			paymentID: "abc123def456",
			want:      "INV-2026-DEF456",
		},
		{
			name:      "uuid style id",
			paymentID: "550e8400-e29b-41d4-a716-446655440000",
			want:      "INV-2026-440000",
		},
		{
			name:      "short id is used whole",
			paymentID: "ab12",
			want:      "INV-2026-AB12",
		},
		{
			name:      "exactly six characters",
			paymentID: "a1b2c3",
			want:      "INV-2026-A1B2C3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InvoiceNumber(tt.paymentID, issued)
			if got != tt.want {
				t.Errorf("InvoiceNumber(%q) = %q, want %q", tt.paymentID, got, tt.want)
			}
		})
	}
}

func TestInvoiceNumberUsesIssueYear(t *testing.T) {
	id := "abc123def456"

	got2025 := InvoiceNumber(id, time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC))
	if got2025 != "INV-2025-DEF456" {
		t.Errorf("got %q, want INV-2025-DEF456", got2025)
	}

	got2026 := InvoiceNumber(id, time.Date(2026, time.January, 1, 0, 1, 0, 0, time.UTC))
	if got2026 != "INV-2026-DEF456" {
		t.Errorf("got %q, want INV-2026-DEF456", got2026)
	}
}

func TestInvoiceNumberDeterministic(t *testing.T) {
	issued := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	first := InvoiceNumber("abc123def456", issued)
	second := InvoiceNumber("abc123def456", issued)
	if first != second {
		t.Errorf("invoice number not deterministic: %q != %q", first, second)
	}
}
