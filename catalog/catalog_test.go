package catalog

import "testing"

func TestAll(t *testing.T) {
	all := All()
	if len(all) == 0 {
		t.Fatal("Expected non-empty catalog")
	}

	// Slugs must be unique
	seen := make(map[string]bool)
	for _, item := range all {
		if seen[item.Slug] {
			t.Errorf("Duplicate slug %q", item.Slug)
		}
		seen[item.Slug] = true

		if item.Name == "" || item.Image == "" {
			t.Errorf("Item %q missing name or image", item.Slug)
		}
		if len(item.Tags) == 0 {
			t.Errorf("Item %q has no tags", item.Slug)
		}
	}
}

func TestGet(t *testing.T) {
	item := Get("interior-wpc-oak")
	if item == nil {
		t.Fatal("Expected to find interior-wpc-oak")
	}
	if item.Name != "Interior WPC (Oak)" {
		t.Errorf("Unexpected name %q", item.Name)
	}

	if Get("no-such-slug") != nil {
		t.Error("Expected nil for unknown slug")
	}
}

func TestListByAnyTags(t *testing.T) {
	wpc := ListByAnyTags([]MaterialTag{TagWPC})
	if len(wpc) == 0 {
		t.Fatal("Expected WPC items")
	}
	for _, item := range wpc {
		found := false
		for _, tag := range item.Tags {
			if tag == TagWPC {
				found = true
			}
		}
		if !found {
			t.Errorf("Item %q returned without wpc tag", item.Slug)
		}
	}

	// Empty filter returns everything
	if len(ListByAnyTags(nil)) != len(All()) {
		t.Error("Expected full catalog for empty tag filter")
	}

	// Multi-tag filter unions
	doorsAndReflectors := ListByAnyTags([]MaterialTag{TagSoundproofDoor, TagReflector})
	if len(doorsAndReflectors) != 2 {
		t.Errorf("Expected 2 items, got %d", len(doorsAndReflectors))
	}
}

func TestListByDesign(t *testing.T) {
	acoustics := ListByDesign(DesignAcoustics)
	if len(acoustics) != 3 {
		t.Errorf("Expected 3 acoustics items, got %d", len(acoustics))
	}
	for _, item := range acoustics {
		if item.Design != DesignAcoustics {
			t.Errorf("Item %q has design %q", item.Slug, item.Design)
		}
	}

	if len(ListByDesign("kitchen")) != 0 {
		t.Error("Expected no items for unknown design kind")
	}
}

func TestNames(t *testing.T) {
	names := Names([]string{"interior-wpc-oak", "unknown", "wpc-2d-diffuser-oak"})
	if len(names) != 2 {
		t.Fatalf("Expected 2 names, got %d: %v", len(names), names)
	}
	if names[0] != "Interior WPC (Oak)" || names[1] != "WPC 2D Diffuser (Oak)" {
		t.Errorf("Unexpected names: %v", names)
	}
}
