package store

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/relvacode/iso8601"
)

func toBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch v {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return nil, &ConversionError{Kind: KindBool, Value: raw}
}

func toTime(raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := iso8601.ParseString(v)
		if err != nil {
			return nil, &ConversionError{Kind: KindDate, Value: raw, Err: err}
		}
		return t, nil
	}
	return nil, &ConversionError{Kind: KindDate, Value: raw}
}

func toInt(raw any) (any, error) {
	if n, ok := integer(raw); ok {
		return n, nil
	}
	switch v := raw.(type) {
	case float32:
		return truncate(float64(v), raw, KindInt)
	case float64:
		return truncate(v, raw, KindInt)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, &ConversionError{Kind: KindInt, Value: raw, Err: err}
		}
		return truncate(f, raw, KindInt)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, &ConversionError{Kind: KindInt, Value: raw, Err: err}
		}
		return n, nil
	}
	return nil, &ConversionError{Kind: KindInt, Value: raw}
}

func toFloat(raw any) (any, error) {
	if n, ok := integer(raw); ok {
		return float64(n), nil
	}
	switch v := raw.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, &ConversionError{Kind: KindFloat, Value: raw, Err: err}
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, &ConversionError{Kind: KindFloat, Value: raw, Err: err}
		}
		return f, nil
	}
	return nil, &ConversionError{Kind: KindFloat, Value: raw}
}

// toLongInt accepts numbers and strings with embedded grouping separators
// ("978-0-13-468599-1"); every non-digit after an optional sign is dropped.
func toLongInt(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		digits := stripSeparators(v)
		if digits == "" || digits == "-" || digits == "+" {
			return nil, &ConversionError{Kind: KindLongInt, Value: raw}
		}
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return nil, &ConversionError{Kind: KindLongInt, Value: raw, Err: err}
		}
		return n, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, &ConversionError{Kind: KindLongInt, Value: raw, Err: err}
		}
		return truncate(f, raw, KindLongInt)
	case float32:
		return truncate(float64(v), raw, KindLongInt)
	case float64:
		return truncate(v, raw, KindLongInt)
	case bool:
		return nil, &ConversionError{Kind: KindLongInt, Value: raw}
	}
	if n, ok := integer(raw); ok {
		return n, nil
	}
	return nil, &ConversionError{Kind: KindLongInt, Value: raw}
}

func stripSeparators(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if i == 0 && (r == '-' || r == '+') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// split returns sequences unchanged and cuts strings on sep.
func split(raw any, sep string) (any, error) {
	switch v := raw.(type) {
	case []string, []any:
		return v, nil
	case string:
		return strings.Split(v, sep), nil
	}
	return nil, &ConversionError{Kind: KindSplit, Value: raw}
}

func integer(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), v <= math.MaxInt64
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= math.MaxInt64
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func truncate(f float64, raw any, kind Kind) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= 1<<63 || f < -1<<63 {
		return nil, &ConversionError{Kind: kind, Value: raw}
	}
	return int64(f), nil
}

// toStrings normalizes the sequences a split field may return.
func toStrings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, &ConversionError{Kind: KindSplit, Value: raw}
			}
			out[i] = s
		}
		return out, nil
	case string:
		return []string{v}, nil
	}
	return nil, &ConversionError{Kind: KindSplit, Value: raw}
}
