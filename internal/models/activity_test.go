package models

import (
	"testing"
	"time"
)

func TestNormalizeMetadata_ScalarKinds(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	out := NormalizeMetadata(map[string]any{
		"name":    "Parcela 42",
		"locked":  true,
		"count":   5,
		"ratio":   0.75,
		"big":     int64(1 << 40),
		"none":    nil,
		"when":    ts,
	})

	if out["name"] != "Parcela 42" {
		t.Errorf("expected name preserved, got %v", out["name"])
	}
	if out["locked"] != true {
		t.Errorf("expected locked true, got %v", out["locked"])
	}
	if out["count"] != float64(5) {
		t.Errorf("expected count coerced to float64, got %T %v", out["count"], out["count"])
	}
	if out["ratio"] != 0.75 {
		t.Errorf("expected ratio 0.75, got %v", out["ratio"])
	}
	if out["big"] != float64(1<<40) {
		t.Errorf("expected big coerced to float64, got %v", out["big"])
	}
	if v, ok := out["none"]; !ok || v != nil {
		t.Errorf("expected explicit nil preserved, got %v (present=%v)", v, ok)
	}
	if out["when"] != "2026-03-14T09:26:53Z" {
		t.Errorf("expected timestamp as RFC 3339 string, got %v", out["when"])
	}
}

func TestNormalizeMetadata_DropsUnserializable(t *testing.T) {
	out := NormalizeMetadata(map[string]any{
		"fn":   func() {},
		"ch":   make(chan int),
		"kept": "ok",
	})

	if _, ok := out["fn"]; ok {
		t.Errorf("expected function value to be dropped")
	}
	if _, ok := out["ch"]; ok {
		t.Errorf("expected channel value to be dropped")
	}
	if out["kept"] != "ok" {
		t.Errorf("expected serializable sibling preserved, got %v", out["kept"])
	}
}

func TestNormalizeMetadata_NestedStructures(t *testing.T) {
	out := NormalizeMetadata(map[string]any{
		"owner": map[string]any{
			"name":   "Juan Pérez",
			"cedula": "001-1234567-8",
			"bad":    make(chan int),
		},
		"areas": []any{100, 200.5, "n/a", func() {}},
	})

	owner, ok := out["owner"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested map, got %T", out["owner"])
	}
	if owner["name"] != "Juan Pérez" {
		t.Errorf("expected nested string preserved, got %v", owner["name"])
	}
	if _, ok := owner["bad"]; ok {
		t.Errorf("expected nested unserializable value dropped")
	}

	areas, ok := out["areas"].([]any)
	if !ok {
		t.Fatalf("expected list, got %T", out["areas"])
	}
	if len(areas) != 3 {
		t.Errorf("expected 3 serializable list items, got %d: %v", len(areas), areas)
	}
	if areas[0] != float64(100) || areas[1] != 200.5 || areas[2] != "n/a" {
		t.Errorf("unexpected list contents: %v", areas)
	}
}

func TestNormalizeMetadata_DepthTruncation(t *testing.T) {
	// Build nesting deeper than the normalization limit
	leaf := map[string]any{"leaf": "value"}
	current := map[string]any(leaf)
	for i := 0; i < 20; i++ {
		current = map[string]any{"next": current}
	}

	out := NormalizeMetadata(current)

	depth := 0
	var walk any = map[string]any(out)
	for {
		m, ok := walk.(map[string]any)
		if !ok || len(m) == 0 {
			break
		}
		next, ok := m["next"]
		if !ok {
			break
		}
		walk = next
		depth++
	}

	if depth >= 20 {
		t.Errorf("expected nesting truncated below input depth, walked %d levels", depth)
	}
}

func TestNormalizeMetadata_Nil(t *testing.T) {
	if out := NormalizeMetadata(nil); out != nil {
		t.Errorf("expected nil map to stay nil, got %v", out)
	}
}

func TestUser_IsLocked(t *testing.T) {
	now := time.Now()

	u := &User{}
	if u.IsLocked(now) {
		t.Errorf("expected user without lock timestamp to be unlocked")
	}

	future := now.Add(10 * time.Minute)
	u.LockedUntil = &future
	if !u.IsLocked(now) {
		t.Errorf("expected user locked while LockedUntil is in the future")
	}

	past := now.Add(-time.Minute)
	u.LockedUntil = &past
	if u.IsLocked(now) {
		t.Errorf("expected expired lock to be treated as unlocked")
	}
}
