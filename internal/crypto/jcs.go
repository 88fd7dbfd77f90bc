package crypto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// JCSCanonicalize renders value (already unmarshaled into generic Go types —
// map[string]any, []any, string, float64/json.Number, bool, nil) as
// JCS-style canonical JSON: object keys sorted by UTF-16 code unit, no
// insignificant whitespace, numbers in shortest round-trip form, strings
// with Go's minimal-escape encoding.
//
// Numbers outside the JS safe-integer range must arrive as decimal strings
// in the data model (spec §4.1); this function rejects float64 values that
// are not exactly representable as a safe integer or a JSON-standard
// finite number, so it never silently mangles precision.
func JCSCanonicalize(value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, value); err != nil {
		return nil, newErr("JCSCanonicalize", ReasonMalformedInput, err)
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case string:
		return encodeString(buf, t)
	case json.Number:
		return encodeNumber(buf, t)
	case float64:
		return encodeNumber(buf, json.Number(strconv.FormatFloat(t, 'g', -1, 64)))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		buf.WriteString(fmt.Sprintf("%d", t))
		return nil
	case map[string]any:
		return encodeObject(buf, t)
	case []any:
		return encodeArray(buf, t)
	default:
		return fmt.Errorf("unsupported type %T in canonical form", v)
	}
}

func encodeObject(buf *bytes.Buffer, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessUTF16(keys[i], keys[j]) })
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeValue(buf, m[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeArray(buf *bytes.Buffer, a []any) error {
	buf.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(buf, v); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// lessUTF16 compares two strings by UTF-16 code unit, as JCS (RFC 8785)
// requires — not by raw UTF-8 byte value, which differs for code points
// above U+FFFF.
func lessUTF16(a, b string) bool {
	ua, ub := utf16Units(a), utf16Units(b)
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

func utf16Units(s string) []uint16 {
	out := make([]uint16, 0, len(s))
	for _, r := range s {
		if r > 0xFFFF {
			r -= 0x10000
			hi := 0xD800 + (r >> 10)
			lo := 0xDC00 + (r & 0x3FF)
			out = append(out, uint16(hi), uint16(lo))
		} else {
			out = append(out, uint16(r))
		}
	}
	return out
}

// encodeString writes s using Go's JSON string encoding, which already
// minimally escapes only the characters JSON requires (", \, and control
// characters) and is safe for JCS's "minimal escaping" rule.
func encodeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// encodeNumber validates and writes a shortest-round-trip JSON number.
func encodeNumber(buf *bytes.Buffer, n json.Number) error {
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("not a valid number: %s", n)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite numbers are not representable in canonical form: %s", n)
	}
	if f == math.Trunc(f) {
		if math.Abs(f) >= (1 << 53) {
			return fmt.Errorf("integer outside the safe range must travel as a decimal string: %s", n)
		}
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// ToGeneric decodes arbitrary JSON bytes into the generic representation
// JCSCanonicalize expects, preserving number precision via json.Number.
func ToGeneric(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
