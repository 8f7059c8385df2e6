package entity

import "encoding/json"

// LegacyImage is one entry of the legacy client-local image store:
// an opaque key and its binary payload. Read-only to this system.
type LegacyImage struct {
	ID   string
	Blob []byte
}

// LegacyContent is one element of the legacy admin content list,
// copied verbatim into the remote store during migration.
type LegacyContent struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	ImageID     string  `json:"imageId"`
	Position    float64 `json:"position"`
	Scale       float64 `json:"scale"`
}

// SettingValue is the tagged variant for a legacy settings entry:
// either successfully decoded JSON or the raw string as stored.
type SettingValue struct {
	json  any
	raw   string
	isRaw bool
}

// ParseSetting decodes a raw legacy settings blob. Entries that are not
// valid JSON are kept as raw strings rather than rejected.
func ParseSetting(raw string) SettingValue {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return SettingValue{raw: raw, isRaw: true}
	}

	return SettingValue{json: decoded}
}

// IsRaw reports whether the entry failed JSON decoding and is carried
// as the original string.
func (v SettingValue) IsRaw() bool {
	return v.isRaw
}

// Value returns the decoded JSON value, or the raw string for entries
// that did not decode.
func (v SettingValue) Value() any {
	if v.isRaw {
		return v.raw
	}

	return v.json
}
