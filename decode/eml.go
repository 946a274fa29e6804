package decode

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"os"
	"strings"
)

// EML parses mail container files into a plain-text body and a header map.
// Multipart messages prefer text/plain parts that are not attachments; an
// empty body is not an error.
type EML struct{}

// Decode reads the file at path and returns (body text, headers).
func (EML) Decode(path string) (string, map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	msg, err := mail.ReadMessage(f)
	if err != nil {
		return "", nil, fmt.Errorf("parse mail %s: %w", path, err)
	}

	headers := make(map[string]string, len(msg.Header))
	for key, values := range msg.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	body, err := extractBody(textproto.MIMEHeader(msg.Header), msg.Body)
	if err != nil {
		return "", nil, fmt.Errorf("decode mail body %s: %w", path, err)
	}

	return strings.TrimSpace(body), headers, nil
}

func extractBody(header textproto.MIMEHeader, body io.Reader) (string, error) {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		data, err := io.ReadAll(decodeTransfer(header, body))
		return string(data), err
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Unparseable content type: fall back to the raw body.
		data, readErr := io.ReadAll(body)
		return string(data), readErr
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipart(body, params["boundary"])
	}

	data, err := io.ReadAll(decodeTransfer(header, body))
	return string(data), err
}

func extractMultipart(body io.Reader, boundary string) (string, error) {
	if boundary == "" {
		data, err := io.ReadAll(body)
		return string(data), err
	}

	var sb strings.Builder
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Tolerate truncated multipart payloads; keep what we have.
			break
		}

		disposition := part.Header.Get("Content-Disposition")
		if strings.Contains(strings.ToLower(disposition), "attachment") {
			continue
		}

		partType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			partType = "text/plain"
		}
		switch {
		case partType == "text/plain":
			data, err := io.ReadAll(decodeTransfer(part.Header, part))
			if err != nil {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.Write(data)
		case strings.HasPrefix(partType, "multipart/"):
			_, params, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
			if err != nil {
				continue
			}
			nested, err := extractMultipart(part, params["boundary"])
			if err == nil && nested != "" {
				if sb.Len() > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString(nested)
			}
		}
	}

	return sb.String(), nil
}

func decodeTransfer(header textproto.MIMEHeader, r io.Reader) io.Reader {
	switch strings.ToLower(header.Get("Content-Transfer-Encoding")) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	default:
		return r
	}
}
