// formdata_test.go — Unit tests for FormData: ordering, duplicates, and
// Blob→File promotion on append/set.
package webapi

import "testing"

func TestFormData_AppendPreservesOrderAndDuplicates(t *testing.T) {
	t.Parallel()
	fd := NewFormData()
	fd.Append("a", "1")
	fd.Append("b", "2")
	fd.Append("a", "3")

	entries := fd.Entries()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	want := []string{"1", "2", "3"}
	for i, w := range want {
		if entries[i].Value.Str != w {
			t.Fatalf("entries[%d] = %q, want %q", i, entries[i].Value.Str, w)
		}
	}
}

func TestFormData_AppendBlobPromotesToFile(t *testing.T) {
	t.Parallel()
	fd := NewFormData()
	blob := NewBlob([]BlobPart{{Bytes: []byte("hi")}}, "text/plain")
	fd.AppendBlob("file", blob, "")

	v, ok := fd.Get("file")
	if !ok || !v.IsFile() {
		t.Fatal("expected a File value")
	}
	if v.File.Name() != "blob" {
		t.Fatalf("default filename = %q, want %q", v.File.Name(), "blob")
	}
}

func TestFormData_SetReplacesAllWithOne(t *testing.T) {
	t.Parallel()
	fd := NewFormData()
	fd.Append("a", "1")
	fd.Append("a", "2")
	fd.Set("a", "final")

	all := fd.GetAll("a")
	if len(all) != 1 || all[0].Str != "final" {
		t.Fatalf("GetAll(a) = %v, want single [final]", all)
	}
}

func TestFormData_DeleteByName(t *testing.T) {
	t.Parallel()
	fd := NewFormData()
	fd.Append("a", "1")
	fd.Append("b", "2")
	fd.Delete("a", nil)
	if fd.Has("a") {
		t.Fatal("expected a removed")
	}
	if !fd.Has("b") {
		t.Fatal("expected b to remain")
	}
}

func TestFormData_GetAllEmptyForMissing(t *testing.T) {
	t.Parallel()
	fd := NewFormData()
	if got := fd.GetAll("missing"); got != nil {
		t.Fatalf("GetAll(missing) = %v, want nil", got)
	}
}
