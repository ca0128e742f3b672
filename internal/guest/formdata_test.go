package guest

import "testing"

func TestFormData_AppendAndGetAll(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const fd = new FormData();
		fd.append("tag", "a");
		fd.append("tag", "b");
		fd.getAll("tag").join(",");
	`)
	if got != "a,b" {
		t.Fatalf("got %v", got)
	}
}

func TestFormData_SetReplacesExisting(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const fd = new FormData();
		fd.append("tag", "a");
		fd.set("tag", "b");
		fd.getAll("tag").join(",");
	`)
	if got != "b" {
		t.Fatalf("got %v, want %q", got, "b")
	}
}

func TestFormData_BlobPromotedToFile(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const fd = new FormData();
		const blob = new Blob(["hi"], {type: "text/plain"});
		fd.append("upload", blob, "hi.txt");
		const f = fd.get("upload");
		f.name;
	`)
	if got != "hi.txt" {
		t.Fatalf("got %v, want the Blob promoted to a File named hi.txt", got)
	}
}

func TestFormData_EntriesPreserveInsertionOrder(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const fd = new FormData();
		fd.append("b", "2");
		fd.append("a", "1");
		fd.keys().join(",");
	`)
	if got != "b,a" {
		t.Fatalf("got %v, want insertion order b,a", got)
	}
}
