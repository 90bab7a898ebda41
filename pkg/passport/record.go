package passport

import (
	"strings"
	"time"
)

const (
	// Nationality is printed on every passport; it cannot be overridden.
	Nationality = "6529"

	// Placeholder fills identity fields that were neither resolved nor
	// supplied by the user.
	Placeholder = "-"

	// DocumentType is the fixed value of the header "Type" column.
	DocumentType = "IDENTITY"

	isoDate = "2006-01-02"
)

// Record is the merged, render-ready content of a passport. Dates are kept
// as ISO YYYY-MM-DD strings so user overrides and resolved values share
// one representation; FormatDate converts them for display.
type Record struct {
	FirstName      string `json:"first_name"`
	Surname        string `json:"surname"`
	Nationality    string `json:"nationality"`
	TokenID        string `json:"token_id"`
	Reputation     string `json:"reputation"`
	LineNumber     string `json:"line_number"`
	Authority      string `json:"authority"`
	MintDate       string `json:"mint_date"`
	ExpiryDate     string `json:"expiry_date"`
	PassportNumber string `json:"passport_number"`
	Wallet         string `json:"wallet"`
	Avatar         string `json:"avatar,omitempty"`
}

// Resolved holds everything learned about a handle from the network.
// Zero values mean "not available".
type Resolved struct {
	Handle     string    `json:"handle"`
	Wallet     string    `json:"wallet,omitempty"`
	TokenID    string    `json:"token_id,omitempty"`
	Avatar     string    `json:"avatar,omitempty"`
	Reputation string    `json:"reputation,omitempty"`
	LineNumber string    `json:"line_number,omitempty"`
	ENSName    string    `json:"ens_name,omitempty"`
	ENSExpiry  time.Time `json:"ens_expiry,omitzero"`
	Created    time.Time `json:"created,omitzero"`
}

// Overrides are user-entered values. Blank (after trimming) means "use the
// resolved value".
type Overrides struct {
	FirstName      string `json:"first_name,omitempty"`
	Surname        string `json:"surname,omitempty"`
	TokenID        string `json:"token_id,omitempty"`
	Reputation     string `json:"reputation,omitempty"`
	LineNumber     string `json:"line_number,omitempty"`
	Authority      string `json:"authority,omitempty"`
	MintDate       string `json:"mint_date,omitempty"`
	ExpiryDate     string `json:"expiry_date,omitempty"`
	PassportNumber string `json:"passport_number,omitempty"`
	Wallet         string `json:"wallet,omitempty"`
	Avatar         string `json:"avatar,omitempty"`
}

// Build merges overrides onto resolved data. It performs no I/O and may be
// called any number of times as overrides change; each call returns a
// fresh Record.
func Build(res Resolved, ov Overrides) Record {
	wallet := pick(ov.Wallet, res.Wallet, "")
	return Record{
		FirstName:      pick(ov.FirstName, "", Placeholder),
		Surname:        pick(ov.Surname, res.Handle, Placeholder),
		Nationality:    Nationality,
		TokenID:        pick(ov.TokenID, res.TokenID, Placeholder),
		Reputation:     pick(ov.Reputation, res.Reputation, Placeholder),
		LineNumber:     pick(ov.LineNumber, res.LineNumber, Placeholder),
		Authority:      pick(ov.Authority, res.ENSName, ""),
		MintDate:       pick(ov.MintDate, isoDay(res.Created), ""),
		ExpiryDate:     pick(ov.ExpiryDate, isoDay(res.ENSExpiry), ""),
		PassportNumber: pick(ov.PassportNumber, PassportNumber(res.Wallet), Placeholder),
		Wallet:         wallet,
		Avatar:         pick(ov.Avatar, res.Avatar, ""),
	}
}

// With returns a copy of r with non-blank override fields applied on top.
// Used when re-rendering an imported record with new overrides.
func (r Record) With(ov Overrides) Record {
	out := r
	out.FirstName = pick(ov.FirstName, r.FirstName, Placeholder)
	out.Surname = pick(ov.Surname, r.Surname, Placeholder)
	out.Nationality = Nationality
	out.TokenID = pick(ov.TokenID, r.TokenID, Placeholder)
	out.Reputation = pick(ov.Reputation, r.Reputation, Placeholder)
	out.LineNumber = pick(ov.LineNumber, r.LineNumber, Placeholder)
	out.Authority = pick(ov.Authority, r.Authority, "")
	out.MintDate = pick(ov.MintDate, r.MintDate, "")
	out.ExpiryDate = pick(ov.ExpiryDate, r.ExpiryDate, "")
	out.PassportNumber = pick(ov.PassportNumber, r.PassportNumber, Placeholder)
	out.Wallet = pick(ov.Wallet, r.Wallet, "")
	out.Avatar = pick(ov.Avatar, r.Avatar, "")
	return out
}

// PassportNumber derives the passport number from a wallet: its last seven
// characters, uppercased.
func PassportNumber(wallet string) string {
	wallet = strings.TrimSpace(wallet)
	if len(wallet) > 7 {
		wallet = wallet[len(wallet)-7:]
	}
	return strings.ToUpper(wallet)
}

func pick(override, resolved, fallback string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	if v := strings.TrimSpace(resolved); v != "" {
		return v
	}
	return fallback
}

func isoDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoDate)
}
