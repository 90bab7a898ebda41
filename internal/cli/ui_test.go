package cli

import (
	"testing"

	"github.com/matzehuels/idplease/pkg/passport"
)

func TestRecordRows(t *testing.T) {
	rec := passport.Record{
		Surname:     "alice",
		Nationality: passport.Nationality,
		MintDate:    "2024-03-05",
		ExpiryDate:  "not-a-date",
	}
	got := map[string]string{}
	for _, row := range recordRows(rec) {
		got[row[0]] = row[1]
	}

	tests := []struct {
		label, want string
	}{
		{"Surname", "alice"},
		{"Nationality", "6529"},
		{"Issued", "5 Mar 2024"},
		{"Expires", "not-a-date"},
		{"Authority", ""},
	}
	for _, tt := range tests {
		if got[tt.label] != tt.want {
			t.Errorf("%s = %q, want %q", tt.label, got[tt.label], tt.want)
		}
	}
	if len(got) != 12 {
		t.Errorf("recordRows() has %d rows, want 12", len(got))
	}
}

func TestOrDash(t *testing.T) {
	if got := orDash(""); got != passport.Placeholder {
		t.Errorf("orDash(\"\") = %q", got)
	}
	if got := orDash("x"); got != "x" {
		t.Errorf("orDash(\"x\") = %q", got)
	}
}
