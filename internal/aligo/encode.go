package aligo

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"

	// attachmentField is the form field the gateway reads MMS files from.
	attachmentField = "image"

	boundaryPrefix = "AligoFormBoundary"
)

var attachmentContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// AttachmentContentType returns the MIME type the gateway expects for a file,
// based on its extension.
func AttachmentContentType(path string) string {
	if ct, ok := attachmentContentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Encode builds the request body for fields. It does not modify fields.
func Encode(fields *NormalizedFields) (*EncodedPayload, error) {
	if fields == nil {
		return nil, newDispatchError(ValidationError, "encode", fmt.Errorf("no fields to encode"))
	}
	if !fields.HasAttachment() {
		return &EncodedPayload{
			ContentType: contentTypeForm,
			Body:        []byte(fields.Values().Encode()),
		}, nil
	}
	return encodeMultipart(fields)
}

func encodeMultipart(fields *NormalizedFields) (*EncodedPayload, error) {
	// Read the whole file up front; the handle is released before any body is built.
	data, err := os.ReadFile(fields.AttachmentPath)
	if err != nil {
		return nil, newDispatchError(AttachmentNotFound, "encode", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(newBoundary()); err != nil {
		return nil, newDispatchError(ValidationError, "encode", err)
	}

	for _, f := range fields.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, newDispatchError(ValidationError, "encode", err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`,
		attachmentField, filepath.Base(fields.AttachmentPath)))
	h.Set("Content-Type", AttachmentContentType(fields.AttachmentPath))

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, newDispatchError(ValidationError, "encode", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, newDispatchError(ValidationError, "encode", err)
	}

	// Close writes the closing --boundary-- delimiter.
	if err := w.Close(); err != nil {
		return nil, newDispatchError(ValidationError, "encode", err)
	}

	return &EncodedPayload{
		ContentType: w.FormDataContentType(),
		Body:        buf.Bytes(),
	}, nil
}

// newBoundary derives a fresh boundary from a random UUID (122 random bits).
func newBoundary() string {
	return boundaryPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
