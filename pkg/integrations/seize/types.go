package seize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Identity is the subset of the /api/identities/{handle} payload used to
// build a passport.
type Identity struct {
	Handle        string     `json:"handle"`
	PrimaryWallet string     `json:"primary_wallet,omitempty"`
	PFP           string     `json:"pfp,omitempty"`
	PFPTokenID    FlexString `json:"pfp_token_id,omitempty"`
}

// LogEntry is one item of the /api/profile-logs feed.
type LogEntry struct {
	ID                  FlexString  `json:"id"`
	Type                string      `json:"type"`
	ProfileHandle       string      `json:"profile_handle"`
	TargetProfileHandle string      `json:"target_profile_handle"`
	Contents            LogContents `json:"contents"`
	CreatedAt           Timestamp   `json:"created_at"`
}

// LogContents carries the rating-change payload of a REP log entry.
// NewRating is applied as a signed delta to the category's running total.
type LogContents struct {
	RatingMatter   string  `json:"rating_matter"`
	RatingCategory string  `json:"rating_category"`
	NewRating      FlexInt `json:"new_rating"`
	OldRating      FlexInt `json:"old_rating"`
	ChangeReason   string  `json:"change_reason"`
}

// logPage is the paginated envelope returned by /api/profile-logs.
type logPage struct {
	Count int        `json:"count"`
	Page  int        `json:"page"`
	Next  bool       `json:"next"`
	Data  []LogEntry `json:"data"`
}

// FlexString decodes JSON strings and numbers into a string.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*s = FlexString(n.String())
	return nil
}

// String returns the underlying string.
func (s FlexString) String() string { return string(s) }

// FlexInt decodes JSON numbers and numeric strings into an int64.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (i *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*i = 0
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	if raw == "" {
		*i = 0
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return fmt.Errorf("flex int %q: %w", raw, err)
		}
		n = int64(f)
	}
	*i = FlexInt(n)
	return nil
}

// Timestamp decodes the API's timestamp encodings: RFC 3339 strings (with
// or without a zone), bare dates, and epoch numbers (milliseconds, or
// seconds for small values). An unrecognized value decodes to the zero time
// with the input kept in Unparsed, so one odd entry never fails a page.
type Timestamp struct {
	time.Time
	Unparsed string `json:"-"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// epochMillisThreshold separates second-based from millisecond-based epochs.
const epochMillisThreshold = 100_000_000_000

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		return nil
	}
	if data[0] != '"' {
		n, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			t.Unparsed = string(data)
			return nil
		}
		if n >= epochMillisThreshold {
			t.Time = time.UnixMilli(n).UTC()
		} else {
			t.Time = time.Unix(n, 0).UTC()
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	t.Unparsed = s
	return nil
}

// MarshalJSON encodes the timestamp as RFC 3339, or null when zero.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
