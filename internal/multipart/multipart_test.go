// multipart_test.go — Unit tests for the multipart/form-data codec: the
// upload round-trip scenario and the serialize format-selection rule.
package multipart

import (
	"mime"
	"strings"
	"testing"

	"github.com/dev-console/fetchbridge/internal/webapi"
)

func TestParse_FieldsAndFile(t *testing.T) {
	t.Parallel()
	boundary := "----B"
	raw := strings.Join([]string{
		"--" + boundary,
		`Content-Disposition: form-data; name="name"`,
		"",
		"John Doe",
		"--" + boundary,
		`Content-Disposition: form-data; name="file"; filename="test.txt"`,
		"Content-Type: text/plain",
		"",
		"Hello World",
		"--" + boundary + "--",
		"",
	}, "\r\n")

	fd, err := Parse([]byte(raw), boundary)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	name, ok := fd.Get("name")
	if !ok || name.Str != "John Doe" {
		t.Fatalf("name = %+v, ok=%v", name, ok)
	}

	file, ok := fd.Get("file")
	if !ok || !file.IsFile() {
		t.Fatal("expected a file entry")
	}
	if file.File.Name() != "test.txt" {
		t.Fatalf("filename = %q, want test.txt", file.File.Name())
	}
	if file.File.Size() != 11 {
		t.Fatalf("size = %d, want 11", file.File.Size())
	}
	if file.File.Text() != "Hello World" {
		t.Fatalf("content = %q", file.File.Text())
	}
}

func TestParse_EmptyBoundaryErrors(t *testing.T) {
	t.Parallel()
	if _, err := Parse([]byte("x"), ""); err == nil {
		t.Fatal("expected an error for an empty boundary")
	}
}

func TestSerialize_NoFilesUsesURLEncoded(t *testing.T) {
	t.Parallel()
	fd := webapi.NewFormData()
	fd.Append("a", "1")
	fd.Append("b", "2")

	contentType, body, err := Serialize(fd)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if contentType != "application/x-www-form-urlencoded" {
		t.Fatalf("contentType = %q", contentType)
	}
	if string(body) != "a=1&b=2" {
		t.Fatalf("body = %q", body)
	}
}

func TestSerialize_WithFileUsesMultipart(t *testing.T) {
	t.Parallel()
	fd := webapi.NewFormData()
	fd.Append("name", "John Doe")
	blob := webapi.NewBlob([]webapi.BlobPart{{Bytes: []byte("Hello World")}}, "text/plain")
	fd.AppendBlob("file", blob, "test.txt")

	contentType, body, err := Serialize(fd)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !strings.HasPrefix(contentType, "multipart/form-data; boundary=") {
		t.Fatalf("contentType = %q", contentType)
	}
	if !strings.Contains(string(body), "Hello World") || !strings.Contains(string(body), "John Doe") {
		t.Fatalf("body missing expected content: %q", body)
	}
}

func TestRoundTrip_SerializeThenParse(t *testing.T) {
	t.Parallel()
	fd := webapi.NewFormData()
	fd.Append("name", "John Doe")
	blob := webapi.NewBlob([]webapi.BlobPart{{Bytes: []byte("Hello World")}}, "text/plain")
	fd.AppendBlob("file", blob, "test.txt")

	contentType, body, err := Serialize(fd)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("mime.ParseMediaType: %v", err)
	}

	parsed, err := Parse(body, params["boundary"])
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	name, ok := parsed.Get("name")
	if !ok || name.Str != "John Doe" {
		t.Fatalf("name = %+v, ok=%v", name, ok)
	}
	file, ok := parsed.Get("file")
	if !ok || !file.IsFile() || file.File.Name() != "test.txt" || file.File.Text() != "Hello World" {
		t.Fatalf("file round-trip mismatch: %+v, ok=%v", file, ok)
	}
}
