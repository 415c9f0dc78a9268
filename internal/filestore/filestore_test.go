package filestore

import (
	"strings"
	"testing"
)

func TestSaveReadDelete(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	name, err := store.Save("stmt-1", "hdfc_mar_2024.csv", strings.NewReader("Date,Narration\n"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if name != "stmt-1.csv" {
		t.Errorf("stored as %q, want statement ID plus original extension", name)
	}

	data, err := store.Read(name)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "Date,Narration\n" {
		t.Errorf("read back %q", data)
	}

	if err := store.Delete(name); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Read(name); err == nil {
		t.Error("read after delete succeeded")
	}
	// Deleting again is not an error.
	if err := store.Delete(name); err != nil {
		t.Errorf("second delete: %v", err)
	}
}
