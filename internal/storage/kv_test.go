package storage

import "testing"

func TestFileKV(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := kv.GetItem("absent")
		if err != nil {
			t.Fatalf("GetItem: %v", err)
		}
		if ok {
			t.Error("expected missing key")
		}
	})

	t.Run("set and get", func(t *testing.T) {
		if err := kv.SetItem("mak-theme", "dark"); err != nil {
			t.Fatalf("SetItem: %v", err)
		}
		got, ok, err := kv.GetItem("mak-theme")
		if err != nil {
			t.Fatalf("GetItem: %v", err)
		}
		if !ok || got != "dark" {
			t.Errorf("GetItem = (%q, %v), want (%q, true)", got, ok, "dark")
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		if err := kv.SetItem("mak-theme", "light"); err != nil {
			t.Fatalf("SetItem: %v", err)
		}
		got, _, _ := kv.GetItem("mak-theme")
		if got != "light" {
			t.Errorf("GetItem = %q, want %q", got, "light")
		}
	})
}
