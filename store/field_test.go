package store_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jacentio/barrel/store"
)

func TestField_Get(t *testing.T) {
	f := store.NewField("userDisplayName")
	v, err := f.Get(userDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "Txtrskins Dev" {
		t.Errorf("expected 'Txtrskins Dev', got %v", v)
	}
}

func TestField_GetMissing(t *testing.T) {
	f := store.NewField("__nowhere")
	_, err := f.Get(userDoc())
	if !errors.Is(err, store.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestField_Default(t *testing.T) {
	f := store.NewField("__nowhere", store.WithDefault(""))
	v, err := f.Get(userDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "" {
		t.Errorf("expected empty default, got %v", v)
	}

	def, ok := f.Default()
	if !ok || def != "" {
		t.Errorf("expected configured default, got %v (%v)", def, ok)
	}
}

func TestField_DefaultIsCoerced(t *testing.T) {
	f := store.NewIntField("__nowhere", store.WithDefault("5"))
	v, err := f.Get(userDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != int64(5) {
		t.Errorf("expected int64(5), got %#v", v)
	}
}

func TestField_DefaultNotUsedWhenPresent(t *testing.T) {
	f := store.NewField("userDisplayName", store.WithDefault("nobody"))
	v, err := f.Get(userDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "Txtrskins Dev" {
		t.Errorf("expected stored value, got %v", v)
	}
}

func TestField_Set(t *testing.T) {
	doc := userDoc()
	f := store.NewField("settings:com.bookpac.user.settings.locale")
	if err := f.Set(doc, "fr"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := doc["settings"].(map[string]any)["com.bookpac.user.settings.locale"]
	if got != "fr" {
		t.Errorf("expected 'fr', got %v", got)
	}
}

func TestField_CustomSeparator(t *testing.T) {
	f := store.NewField("money/currency", store.WithSeparator("/"))
	v, err := f.Get(userDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "USD" {
		t.Errorf("expected 'USD', got %v", v)
	}
	if f.Separator() != "/" {
		t.Errorf("expected separator '/', got %q", f.Separator())
	}
}

func TestField_String(t *testing.T) {
	tests := []struct {
		field store.Field
		want  string
	}{
		{store.NewField("a"), "<raw field target=a>"},
		{store.NewBoolField("disabled"), "<boolean field target=disabled>"},
		{store.NewIntField("n", store.WithDefault(3)), "<integer field target=n default=3>"},
	}

	for _, tt := range tests {
		if got := tt.field.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

// --- Coercion Tests ---

func TestBoolField(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want bool
	}{
		{"string false", "false", false},
		{"string true", "true", true},
		{"native true", true, true},
		{"native false", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := store.NewBoolField("v").Get(map[string]any{"v": tt.raw})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v != tt.want {
				t.Errorf("expected %v, got %v", tt.want, v)
			}
		})
	}
}

func TestBoolField_Invalid(t *testing.T) {
	for _, raw := range []any{32217171, "yes", "True", nil} {
		_, err := store.NewBoolField("v").Get(map[string]any{"v": raw})
		if !errors.Is(err, store.ErrConversion) {
			t.Errorf("%#v: expected ErrConversion, got %v", raw, err)
		}
		var convErr *store.ConversionError
		if errors.As(err, &convErr) && convErr.Kind != store.KindBool {
			t.Errorf("expected kind boolean, got %s", convErr.Kind)
		}
	}
}

func TestDateField(t *testing.T) {
	v, err := store.NewDateField("passwordExpiration").Get(userDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := v.(time.Time)
	if !ok {
		t.Fatalf("expected time.Time, got %T", v)
	}
	want := time.Date(2014, 1, 25, 11, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDateField_PassesTimeThrough(t *testing.T) {
	now := time.Now()
	v, err := store.NewDateField("at").Get(map[string]any{"at": now})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.(time.Time).Equal(now) {
		t.Errorf("expected %v, got %v", now, v)
	}
}

func TestDateField_Invalid(t *testing.T) {
	_, err := store.NewDateField("at").Get(map[string]any{"at": "not a date"})
	if !errors.Is(err, store.ErrConversion) {
		t.Errorf("expected ErrConversion, got %v", err)
	}
}

func TestIntField(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want int64
	}{
		{"int", 32217171, 32217171},
		{"int64", int64(-4), -4},
		{"float truncated", 3.9, 3},
		{"string", " 42 ", 42},
		{"json number", json.Number("7"), 7},
		{"smallest float", float64(-1 << 63), -1 << 63},
		{"large json number", json.Number("9007199254740993"), 9007199254740993},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := store.NewIntField("v").Get(map[string]any{"v": tt.raw})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v != tt.want {
				t.Errorf("expected %d, got %#v", tt.want, v)
			}
		})
	}
}

func TestIntField_Invalid(t *testing.T) {
	for _, raw := range []any{"abc", "1.5", []any{1}, float64(1 << 63), 1e19, -1e19, json.Number("9223372036854775808")} {
		_, err := store.NewIntField("v").Get(map[string]any{"v": raw})
		if !errors.Is(err, store.ErrConversion) {
			t.Errorf("%#v: expected ErrConversion, got %v", raw, err)
		}
	}
}

func TestFloatField(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want float64
	}{
		{"string", "0.605714", 0.605714},
		{"float", 0.99, 0.99},
		{"int", 2, 2},
		{"json number", json.Number("1.25"), 1.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := store.NewFloatField("v").Get(map[string]any{"v": tt.raw})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v != tt.want {
				t.Errorf("expected %v, got %#v", tt.want, v)
			}
		})
	}
}

func TestLongIntField(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want int64
	}{
		{"dashed isbn", "978-3-16-148410-0", 9783161484100},
		{"plain isbn", "9783161484100", 9783161484100},
		{"spaces", " 12 345 ", 12345},
		{"negative", "-12 345", -12345},
		{"int", 9783161484100, 9783161484100},
		{"float", 12.0, 12},
		{"json number", json.Number("1234567890123456789"), 1234567890123456789},
		{"json decimal", json.Number("12.5"), 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := store.NewLongIntField("v").Get(map[string]any{"v": tt.raw})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v != tt.want {
				t.Errorf("expected %d, got %#v", tt.want, v)
			}
		})
	}
}

func TestLongIntField_Invalid(t *testing.T) {
	for _, raw := range []any{"", "-", "n/a", true, float64(1 << 63)} {
		_, err := store.NewLongIntField("v").Get(map[string]any{"v": raw})
		if !errors.Is(err, store.ErrConversion) {
			t.Errorf("%#v: expected ErrConversion, got %v", raw, err)
		}
	}
}

func TestSplitField(t *testing.T) {
	v, err := store.NewSplitField("tags").Get(userDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"fiction", "drama"}, v); diff != "" {
		t.Errorf("split mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitField_ValueSeparator(t *testing.T) {
	f := store.NewSplitField("v", store.WithValueSeparator(";"))
	v, err := f.Get(map[string]any{"v": "a;b;c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, v); diff != "" {
		t.Errorf("split mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitField_SequenceUnchanged(t *testing.T) {
	raw := []any{"x", "y"}
	v, err := store.NewSplitField("v").Get(map[string]any{"v": raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(raw, v); diff != "" {
		t.Errorf("sequence changed (-want +got):\n%s", diff)
	}
}

func TestSplitField_ListDefault(t *testing.T) {
	f := store.NewSplitField("__nowhere", store.WithDefault([]string{}))
	v, err := f.Get(userDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{}, v); diff != "" {
		t.Errorf("default mismatch (-want +got):\n%s", diff)
	}
}

func TestTypedField_SetCoerces(t *testing.T) {
	doc := map[string]any{"disabled": "false", "count": 1}

	if err := store.NewBoolField("disabled").Set(doc, "true"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc["disabled"] != true {
		t.Errorf("expected native true, got %#v", doc["disabled"])
	}

	if err := store.NewIntField("count").Set(doc, "12"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc["count"] != int64(12) {
		t.Errorf("expected int64(12), got %#v", doc["count"])
	}
}

func TestTypedField_SetRejectsInvalid(t *testing.T) {
	doc := map[string]any{"disabled": "false"}
	err := store.NewBoolField("disabled").Set(doc, "maybe")
	if !errors.Is(err, store.ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
	if doc["disabled"] != "false" {
		t.Errorf("expected document untouched, got %#v", doc["disabled"])
	}
}

func TestTypedField_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		field *store.ValueField
		value any
	}{
		{"bool", store.NewBoolField("v"), true},
		{"int", store.NewIntField("v"), int64(7)},
		{"float", store.NewFloatField("v"), 1.5},
		{"long int", store.NewLongIntField("v"), int64(9783161484100)},
		{"split", store.NewSplitField("v"), []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := map[string]any{}
			if err := tt.field.Set(doc, tt.value); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, err := tt.field.Get(doc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.value, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	if store.KindLongInt.String() != "long integer" {
		t.Errorf("expected 'long integer', got %q", store.KindLongInt.String())
	}
	if store.Kind(99).String() != "Kind(99)" {
		t.Errorf("expected 'Kind(99)', got %q", store.Kind(99).String())
	}
}
