package emit

import (
	"strings"
	"testing"
)

func TestTableDesignatedRows(t *testing.T) {
	b := NewBuffer()

	err := b.Table("FRUIT_INFO", "struct FruitInfo", []TableRow{
		{Index: "Fruit_apple", Fields: []TableField{
			{Name: "weight", Value: "150"},
			{Name: "color", Value: `"red"`},
		}},
		{Index: "Fruit_kiwi", Fields: []TableField{
			{Name: "weight", Value: "75"},
			{Name: "color", Value: `"green"`},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := strings.Join([]string{
		"static const struct FruitInfo FRUIT_INFO[] =",
		"    {",
		`        [Fruit_apple] = { .weight = 150, .color = "red"   },`,
		`        [Fruit_kiwi ] = { .weight = 75 , .color = "green" },`,
		"    };",
		"",
	}, "\n")

	if got := b.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTableInfersElementType(t *testing.T) {
	b := NewBuffer()

	err := b.Table("KEYMAP", "", []TableRow{
		{Fields: []TableField{
			{Type: "int", Name: "code", Value: "10"},
			{Type: "char", Name: "sym", Value: "'a'"},
		}},
		{Fields: []TableField{
			{Type: "int", Name: "code", Value: "200"},
			{Type: "char", Name: "sym", Value: "'b'"},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := strings.Join([]string{
		"static const struct { int code; char sym; } KEYMAP[] =",
		"    {",
		"        { 10 , 'a' },",
		"        { 200, 'b' },",
		"    };",
		"",
	}, "\n")

	if got := b.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTableRejectsDuplicateIndex(t *testing.T) {
	b := NewBuffer()

	err := b.Table("T", "struct E", []TableRow{
		{Index: "A", Fields: []TableField{{Name: "v", Value: "1"}}},
		{Index: "A", Fields: []TableField{{Name: "v", Value: "2"}}},
	})
	if err == nil || !strings.Contains(err.Error(), "repeats index") {
		t.Fatalf("expected duplicate index error, got %v", err)
	}
}

func TestTableRejectsMixedIndexing(t *testing.T) {
	b := NewBuffer()

	err := b.Table("T", "struct E", []TableRow{
		{Index: "A", Fields: []TableField{{Name: "v", Value: "1"}}},
		{Fields: []TableField{{Name: "v", Value: "2"}}},
	})
	if err == nil || !strings.Contains(err.Error(), "mixes indexed and sequential") {
		t.Fatalf("expected mixed indexing error, got %v", err)
	}
}

func TestTableRejectsDuplicateField(t *testing.T) {
	b := NewBuffer()

	err := b.Table("T", "struct E", []TableRow{
		{Fields: []TableField{
			{Name: "v", Value: "1"},
			{Name: "v", Value: "2"},
		}},
	})
	if err == nil || !strings.Contains(err.Error(), "repeats field") {
		t.Fatalf("expected duplicate field error, got %v", err)
	}
}

func TestTableRequiresTypesWhenInferring(t *testing.T) {
	b := NewBuffer()

	err := b.Table("T", "", []TableRow{
		{Fields: []TableField{{Name: "v", Value: "1"}}},
	})
	if err == nil || !strings.Contains(err.Error(), "needs a type") {
		t.Fatalf("expected missing type error, got %v", err)
	}
}
