package catalogue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/litescript/gaiamaps/internal/astro"
)

// Catalogue columns understood by decodeStar. Everything else lands in Extra.
// source_id wins over SOURCE_ID when both are set.
const (
	colSourceID       = "source_id"
	colSourceIDUpper  = "SOURCE_ID"
	colName           = "name"
	colDesignation    = "designation"
	colRA             = "ra"
	colDec            = "dec"
	colGMag           = "phot_g_mean_mag"
	colBPRP           = "bp_rp"
	colParallax       = "parallax"
	colPMRA           = "pmra"
	colPMDec          = "pmdec"
	colRadialVelocity = "radial_velocity"
	colAltDiff        = "alt_diff"
	colAzDiff         = "az_diff"
	colSubtitle       = "subtitle"
)

// decodeStar maps one catalogue row onto a Star. The service reports RA in
// degrees; Star carries hours. The returned offset is non-nil when the row
// has both alt_diff and az_diff.
func decodeStar(row map[string]json.RawMessage) (astro.Star, *astro.Offset, error) {
	var s astro.Star
	var altDiff, azDiff *float64

	for key, raw := range row {
		var err error
		switch key {
		case colSourceID:
			var id string
			if id, err = decodeID(raw); id != "" {
				s.SourceID = id
			}
		case colSourceIDUpper:
			var id string
			if id, err = decodeID(raw); id != "" && s.SourceID == "" {
				s.SourceID = id
			}
		case colName:
			s.Name, err = decodeString(raw)
		case colDesignation:
			s.Designation, err = decodeString(raw)
		case colRA:
			var ra *float64
			ra, err = decodeFloat(raw)
			if ra != nil {
				s.RAHours = astro.Float(*ra / 15)
			}
		case colDec:
			s.DecDeg, err = decodeFloat(raw)
		case colGMag:
			s.GMag, err = decodeFloat(raw)
		case colBPRP:
			s.BPRP, err = decodeFloat(raw)
		case colParallax:
			s.Parallax, err = decodeFloat(raw)
		case colPMRA:
			s.PMRA, err = decodeFloat(raw)
		case colPMDec:
			s.PMDec, err = decodeFloat(raw)
		case colRadialVelocity:
			s.RadialVelocity, err = decodeFloat(raw)
		case colAltDiff:
			altDiff, err = decodeFloat(raw)
		case colAzDiff:
			azDiff, err = decodeFloat(raw)
		default:
			var v any
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.UseNumber()
			if err = dec.Decode(&v); err == nil {
				if s.Extra == nil {
					s.Extra = make(map[string]any)
				}
				s.Extra[key] = v
			}
		}
		if err != nil {
			return astro.Star{}, nil, fmt.Errorf("column %s: %w", key, err)
		}
	}

	var off *astro.Offset
	if altDiff != nil && azDiff != nil {
		off = &astro.Offset{North: *altDiff, East: *azDiff}
	}
	return s, off, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeID accepts identifiers as JSON strings or numbers. Numbers keep their
// literal text so 19-digit source ids survive intact.
func decodeID(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	trimmed := bytes.TrimSpace(raw)
	if trimmed[0] == '"' {
		return decodeString(raw)
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func decodeString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func decodeFloat(raw json.RawMessage) (*float64, error) {
	if isNull(raw) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// encodeStar builds the star_info object sent with a report request.
func encodeStar(s astro.Star, subtitle string) map[string]any {
	info := make(map[string]any, len(s.Extra)+12)
	for k, v := range s.Extra {
		info[k] = v
	}

	if s.SourceID != "" {
		info[colSourceID] = s.SourceID
	}
	if s.Name != "" {
		info[colName] = s.Name
	}
	if s.Designation != "" {
		info[colDesignation] = s.Designation
	}
	if s.RAHours != nil {
		info[colRA] = *s.RAHours * 15
	}
	putFloat(info, colDec, s.DecDeg)
	putFloat(info, colGMag, s.GMag)
	putFloat(info, colBPRP, s.BPRP)
	putFloat(info, colParallax, s.Parallax)
	putFloat(info, colPMRA, s.PMRA)
	putFloat(info, colPMDec, s.PMDec)
	putFloat(info, colRadialVelocity, s.RadialVelocity)
	if subtitle != "" {
		info[colSubtitle] = subtitle
	}
	return info
}

func putFloat(m map[string]any, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}
