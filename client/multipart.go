package client

import (
	"bytes"
	"crypto/rand"
	"fmt"
)

// Part is a single named part of a multipart/form-data body. Order matters:
// parts are encoded in the order they are passed to EncodeMultipart.
type Part struct {
	Name        string
	ContentType string
	Filename    string
	Body        []byte
}

// StringPart builds a text/plain form field.
func StringPart(name, value string) Part {
	return Part{
		Name:        name,
		ContentType: "text/plain",
		Body:        []byte(value),
	}
}

// FilePart builds a file form field with an explicit content type.
func FilePart(name, filename, contentType string, body []byte) Part {
	return Part{
		Name:        name,
		ContentType: contentType,
		Filename:    filename,
		Body:        body,
	}
}

// MultipartBody is the encoded payload plus the header value the request must
// carry. Callers must use ContentType verbatim and not set their own.
type MultipartBody struct {
	ContentType string
	Boundary    string
	Bytes       []byte
}

const boundaryLength = 24
const boundaryAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// EncodeMultipart encodes the parts as a multipart/form-data body. The
// boundary is freshly generated per call.
func EncodeMultipart(parts []Part) (MultipartBody, error) {
	boundary, err := newBoundary()
	if err != nil {
		return MultipartBody{}, err
	}

	var buf bytes.Buffer
	for _, part := range parts {
		if part.Name == "" {
			return MultipartBody{}, fmt.Errorf("multipart part without a name")
		}

		contentType := part.ContentType
		if contentType == "" {
			if part.Filename != "" {
				return MultipartBody{}, fmt.Errorf("multipart file part %q requires a content type", part.Name)
			}
			contentType = "text/plain"
		}

		buf.WriteString("--" + boundary + "\r\n")
		buf.WriteString(`Content-Disposition: form-data; name="` + part.Name + `"`)
		if part.Filename != "" {
			buf.WriteString(`; filename="` + part.Filename + `"`)
		}
		buf.WriteString("\r\n")
		buf.WriteString("Content-Type: " + contentType + "\r\n\r\n")
		buf.Write(part.Body)
		buf.WriteString("\r\n")
	}
	buf.WriteString("--" + boundary + "--\r\n")

	return MultipartBody{
		ContentType: "multipart/form-data; boundary=" + boundary,
		Boundary:    boundary,
		Bytes:       buf.Bytes(),
	}, nil
}

func newBoundary() (string, error) {
	raw := make([]byte, boundaryLength)
	_, err := rand.Read(raw)
	if err != nil {
		return "", fmt.Errorf("failed to generate multipart boundary: %w", err)
	}

	for i, b := range raw {
		raw[i] = boundaryAlphabet[int(b)%len(boundaryAlphabet)]
	}

	return string(raw), nil
}
