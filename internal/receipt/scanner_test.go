package receipt

import (
	"testing"
	"time"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "already clean",
			raw:  `{"amount": 12.5}`,
			want: `{"amount": 12.5}`,
		},
		{
			name: "json fence",
			raw:  "```json\n{\"amount\": 12.5}\n```",
			want: `{"amount": 12.5}`,
		},
		{
			name: "bare fence",
			raw:  "```\n{\"amount\": 12.5}\n```",
			want: `{"amount": 12.5}`,
		},
		{
			name: "prose around the object",
			raw:  "Here is the extraction:\n{\"amount\": 12.5}\nHope this helps!",
			want: `{"amount": 12.5}`,
		},
		{
			name: "surrounding whitespace",
			raw:  "\n\n  {\"amount\": 12.5}  \n",
			want: `{"amount": 12.5}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeFields(t *testing.T) {
	raw := "```json\n{\"amount\": 23.40, \"date\": \"2024-06-01\", \"description\": \"weekly shop\", \"merchantName\": \"Tesco\", \"category\": \"Groceries\"}\n```"

	fields, err := decodeFields(raw)
	if err != nil {
		t.Fatalf("decodeFields: %v", err)
	}
	if fields == nil {
		t.Fatal("decodeFields returned nil for a valid receipt")
	}
	if fields.Amount != 23.40 {
		t.Errorf("amount = %v, want 23.40", fields.Amount)
	}
	if !fields.Date.Equal(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v, want 2024-06-01", fields.Date)
	}
	if fields.MerchantName != "Tesco" {
		t.Errorf("merchant = %q, want Tesco", fields.MerchantName)
	}
	if fields.Category != "groceries" {
		t.Errorf("category = %q, want normalized \"groceries\"", fields.Category)
	}
}

func TestDecodeFieldsNotAReceipt(t *testing.T) {
	fields, err := decodeFields("{}")
	if err != nil {
		t.Fatalf("decodeFields({}): %v", err)
	}
	if fields != nil {
		t.Fatalf("decodeFields({}) = %+v, want nil", fields)
	}
}

func TestDecodeFieldsRFC3339Date(t *testing.T) {
	fields, err := decodeFields(`{"amount": 5, "date": "2024-06-01T14:30:00Z", "category": "food"}`)
	if err != nil {
		t.Fatalf("decodeFields: %v", err)
	}
	if fields == nil || fields.Date.IsZero() {
		t.Fatalf("timestamp date not parsed: %+v", fields)
	}
}

func TestDecodeFieldsGarbage(t *testing.T) {
	if _, err := decodeFields("the dog ate the receipt"); err == nil {
		t.Fatal("decodeFields accepted non-JSON input")
	}
}
