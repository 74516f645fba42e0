package httpclient

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"sort"

	"github.com/kbukum/reqkit/errors"
)

// MultipartBody describes a multipart/form-data request body.
type MultipartBody struct {
	// Fields are simple key-value form fields, written in name order.
	Fields map[string]string
	// Files are file upload fields, written in order.
	Files []FileField
}

// FileField represents a file to upload in a multipart request.
type FileField struct {
	// FieldName is the form field name (e.g., "file", "report").
	FieldName string
	// FileName is the file name sent to the server.
	FileName string
	// ContentType is the MIME type. If empty, uses application/octet-stream.
	ContentType string
	// Data is the file content. Used if Reader is nil.
	Data []byte
	// Reader is read fully when the option is applied.
	Reader io.Reader
}

// WithMultipartBody encodes m as the request body with a
// multipart/form-data content type.
func WithMultipartBody(m MultipartBody) EntityOption {
	return entityOption(func(s *settings) error {
		data, contentType, err := m.encode()
		if err != nil {
			return errors.UnsupportedOperation("encode multipart body", err.Error()).WithCause(err)
		}
		s.body = &body{data: data, contentType: contentType}
		return nil
	})
}

// WithJSONBody encodes v as an application/json body.
func WithJSONBody(v any) EntityOption {
	return entityOption(func(s *settings) error {
		data, err := json.Marshal(v)
		if err != nil {
			return errors.UnsupportedOperation("encode JSON body", err.Error()).WithCause(err)
		}
		s.body = &body{data: data, contentType: "application/json"}
		return nil
	})
}

// WithFormBody encodes values as an application/x-www-form-urlencoded body.
func WithFormBody(values url.Values) EntityOption {
	return WithStringBody(values.Encode(), "application/x-www-form-urlencoded")
}

// encode builds the multipart body and returns it with the content-type header.
func (m *MultipartBody) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	names := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if err := w.WriteField(k, m.Fields[k]); err != nil {
			return nil, "", err
		}
	}

	for _, f := range m.Files {
		var part io.Writer
		var err error

		if f.ContentType != "" {
			header := make(textproto.MIMEHeader)
			header.Set("Content-Disposition",
				`form-data; name="`+escapeQuotes(f.FieldName)+`"; filename="`+escapeQuotes(f.FileName)+`"`)
			header.Set("Content-Type", f.ContentType)
			part, err = w.CreatePart(header)
		} else {
			part, err = w.CreateFormFile(f.FieldName, f.FileName)
		}
		if err != nil {
			return nil, "", err
		}

		if f.Data != nil {
			if _, err := part.Write(f.Data); err != nil {
				return nil, "", err
			}
		} else if f.Reader != nil {
			if _, err := io.Copy(part, f.Reader); err != nil {
				return nil, "", err
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// escapeQuotes escapes quotes and backslashes in header parameter values.
func escapeQuotes(s string) string {
	var buf bytes.Buffer
	for _, b := range []byte(s) {
		if b == '"' || b == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(b)
	}
	return buf.String()
}
