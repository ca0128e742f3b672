// blob_test.go — Unit tests for Blob/File: repeatable reads, slicing, and
// Blob→File promotion.
package webapi

import "testing"

func TestBlob_RepeatableReads(t *testing.T) {
	t.Parallel()
	b := NewBlob([]BlobPart{{Bytes: []byte("hello")}}, "text/plain")
	if b.Text() != "hello" || b.Text() != "hello" {
		t.Fatal("Text() must be repeatable")
	}
	if string(b.Bytes()) != string(b.Bytes()) {
		t.Fatal("Bytes() must be repeatable")
	}
}

func TestBlob_ConcatenatesPartsEagerly(t *testing.T) {
	t.Parallel()
	nested := NewBlob([]BlobPart{{Bytes: []byte("nested")}}, "")
	b := NewBlob([]BlobPart{
		{Bytes: []byte("a-")},
		{Blob: nested},
	}, "")
	if b.Text() != "a-nested" {
		t.Fatalf("Text() = %q, want %q", b.Text(), "a-nested")
	}
}

func TestBlob_SliceNegativeIndices(t *testing.T) {
	t.Parallel()
	b := NewBlob([]BlobPart{{Bytes: []byte("0123456789")}}, "")
	sliced := b.Slice(-5, -2, "")
	if sliced.Text() != "567" {
		t.Fatalf("Slice(-5,-2) = %q, want %q", sliced.Text(), "567")
	}
}

func TestBlob_SliceIsIndependent(t *testing.T) {
	t.Parallel()
	b := NewBlob([]BlobPart{{Bytes: []byte("abcdef")}}, "")
	sliced := b.Slice(0, 3, "")
	if sliced.ID() == b.ID() {
		t.Fatal("slice must have its own identity")
	}
}

func TestFile_FieldsAndBlobRefinement(t *testing.T) {
	t.Parallel()
	f := NewFile([]BlobPart{{Bytes: []byte("data")}}, "test.txt", "text/plain", 1000)
	if f.Name() != "test.txt" {
		t.Fatalf("Name() = %q", f.Name())
	}
	if f.LastModified() != 1000 {
		t.Fatalf("LastModified() = %d", f.LastModified())
	}
	if f.WebkitRelativePath() != "" {
		t.Fatal("WebkitRelativePath must always be empty")
	}
	if f.Size() != 4 {
		t.Fatalf("Size() = %d, want 4 (File refines Blob)", f.Size())
	}
}

func TestFile_DefaultLastModifiedIsSet(t *testing.T) {
	t.Parallel()
	f := NewFile([]BlobPart{{Bytes: []byte("x")}}, "a", "", 0)
	if f.LastModified() == 0 {
		t.Fatal("default lastModified must be non-zero (now)")
	}
}

func TestAsBlob_DefaultsFilenameToBlob(t *testing.T) {
	t.Parallel()
	b := NewBlob([]BlobPart{{Bytes: []byte("x")}}, "text/plain")
	f := AsBlob(b, "")
	if f.Name() != "blob" {
		t.Fatalf("Name() = %q, want %q", f.Name(), "blob")
	}
	if f.Type() != "text/plain" {
		t.Fatalf("Type() = %q, want inherited from source blob", f.Type())
	}
}
