// multipart.go — parse/serialize multipart/form-data (C9), grounded on
// stdlib mime/multipart: Parse feeds webapi.FormData.AppendFile/Append
// directly from a multipart.Reader; Serialize picks urlencoded when no
// entry is a file, multipart otherwise, generating a boundary absent from
// every value.
package multipart

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/dev-console/fetchbridge/internal/webapi"
)

// Parse decodes a multipart/form-data body into a FormData, promoting each
// file part to a webapi.File and each non-file part to a plain string
// entry, in the order they appear on the wire.
func Parse(data []byte, boundary string) (*webapi.FormData, error) {
	if boundary == "" {
		return nil, fmt.Errorf("multipart: empty boundary")
	}
	reader := multipart.NewReader(bytes.NewReader(data), boundary)
	fd := webapi.NewFormData()

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("multipart: reading part: %w", err)
		}

		body, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("multipart: reading part body: %w", err)
		}

		name := part.FormName()
		if filename := part.FileName(); filename != "" {
			contentType := part.Header.Get("Content-Type")
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			file := webapi.NewFile([]webapi.BlobPart{{Bytes: body}}, filename, contentType, 0)
			fd.AppendFile(name, file)
			continue
		}
		fd.Append(name, string(body))
	}
	return fd, nil
}

// Serialize encodes fd as application/x-www-form-urlencoded if no entry is
// a File, or as multipart/form-data otherwise. It returns the Content-Type
// header value (including boundary, for the multipart case) and the
// encoded bytes.
func Serialize(fd *webapi.FormData) (contentType string, body []byte, err error) {
	entries := fd.Entries()

	hasFile := false
	for _, e := range entries {
		if e.Value.IsFile() {
			hasFile = true
			break
		}
	}
	if !hasFile {
		sp := webapi.NewURLSearchParams("")
		for _, e := range entries {
			sp.Append(e.Name, e.Value.Str)
		}
		return "application/x-www-form-urlencoded", []byte(sp.String()), nil
	}

	values := make([]string, 0, len(entries)*2)
	for _, e := range entries {
		values = append(values, e.Name)
		if e.Value.IsFile() {
			values = append(values, e.Value.File.Text())
		} else {
			values = append(values, e.Value.Str)
		}
	}
	boundary, err := pickBoundary(values)
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(boundary); err != nil {
		return "", nil, fmt.Errorf("multipart: setting boundary: %w", err)
	}

	for _, e := range entries {
		if e.Value.IsFile() {
			f := e.Value.File
			header := make(textproto.MIMEHeader)
			header.Set("Content-Disposition", fmt.Sprintf(
				`form-data; name=%q; filename=%q`, e.Name, f.Name()))
			mimeType := f.Type()
			if mimeType == "" {
				mimeType = "application/octet-stream"
			}
			header.Set("Content-Type", mimeType)
			part, err := w.CreatePart(header)
			if err != nil {
				return "", nil, fmt.Errorf("multipart: creating file part: %w", err)
			}
			if _, err := part.Write(f.Bytes()); err != nil {
				return "", nil, fmt.Errorf("multipart: writing file part: %w", err)
			}
			continue
		}
		if err := w.WriteField(e.Name, e.Value.Str); err != nil {
			return "", nil, fmt.Errorf("multipart: writing field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, fmt.Errorf("multipart: closing writer: %w", err)
	}

	return mime.FormatMediaType("multipart/form-data", map[string]string{"boundary": w.Boundary()}), buf.Bytes(), nil
}

// pickBoundary generates a random hex boundary and retries until it appears
// in none of values, matching the serialize contract's "select a boundary
// that does not appear in any value" requirement.
func pickBoundary(values []string) (string, error) {
	for attempt := 0; attempt < 8; attempt++ {
		raw := make([]byte, 16)
		if _, err := rand.Read(raw); err != nil {
			return "", fmt.Errorf("multipart: generating boundary: %w", err)
		}
		boundary := "----FetchBridgeBoundary" + hex.EncodeToString(raw)
		collides := false
		for _, v := range values {
			if strings.Contains(v, boundary) {
				collides = true
				break
			}
		}
		if !collides {
			return boundary, nil
		}
	}
	return "", fmt.Errorf("multipart: could not find a boundary free of collisions")
}
