package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Form is a multipart/form-data body. Passing a *Form as Request.Body makes
// the client send multipart instead of JSON, with the boundary-bearing
// content type chosen by the multipart writer.
type Form struct {
	fields []formField
	files  []formFile
}

type formField struct {
	name  string
	value string
}

type formFile struct {
	field       string
	filename    string
	contentType string
	content     io.Reader
}

// NewForm returns an empty multipart form.
func NewForm() *Form {
	return &Form{}
}

// Set appends a text field. Fields are written in insertion order.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// AddFile appends a file part. An empty contentType defaults to
// application/octet-stream.
func (f *Form) AddFile(field, filename, contentType string, content io.Reader) *Form {
	f.files = append(f.files, formFile{field: field, filename: filename, contentType: contentType, content: content})
	return f
}

// Fields returns the names of all parts in the order they will be written.
func (f *Form) Fields() []string {
	names := make([]string, 0, len(f.fields)+len(f.files))
	for _, fld := range f.fields {
		names = append(names, fld.name)
	}
	for _, file := range f.files {
		names = append(names, file.field)
	}
	return names
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, fld := range f.fields {
		if err := w.WriteField(fld.name, fld.value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", fld.name, err)
		}
	}
	for _, file := range f.files {
		ct := file.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(file.field), quoteEscaper.Replace(file.filename)))
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", file.field, err)
		}
		if file.content != nil {
			if _, err := io.Copy(part, file.content); err != nil {
				return nil, "", fmt.Errorf("copy form file %s: %w", file.field, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
