package guest

import "testing"

func TestBlob_SizeAndTypeFromParts(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const b = new Blob(["hello", " world"], {type: "text/plain"});
		[b.size, b.type].join("|");
	`)
	if got != "11|text/plain" {
		t.Fatalf("got %v", got)
	}
}

func TestBlob_SliceProducesIndependentBlob(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const b = new Blob(["hello world"]);
		const s = b.slice(0, 5);
		s.size;
	`)
	if got != int64(5) {
		t.Fatalf("got %v, want 5", got)
	}
}

func TestBlob_TextIsRepeatable(t *testing.T) {
	r := newTestRuntime(t)
	_, err := r.RunScript("test.js", `
		globalThis.__results = [];
		const b = new Blob(["abc"]);
		b.text().then(t => __results.push(t));
		b.text().then(t => __results.push(t));
	`)
	if err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	r.Drain()
	v, err := r.RunScript("check.js", `__results.join(",")`)
	if err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if got := v.Export(); got != "abc,abc" {
		t.Fatalf("got %v, want blob.text() callable more than once", got)
	}
}

func TestFile_NameAndWebkitRelativePath(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const f = new File(["data"], "a.txt", {type: "text/plain"});
		[f.name, f.webkitRelativePath].join("|");
	`)
	if got != "a.txt|" {
		t.Fatalf("got %v", got)
	}
}
