package tokens

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
)

var _ driven.DocAdapter = (*Email)(nil)

// Email reads RFC 822 messages, such as certified mail exported from a
// mailbox. The sender, recipients, date and subject lead the single page,
// followed by the text body. HTML is used only when no text part exists.
type Email struct {
	fileBase
}

// Meta implements driven.DocAdapter. The subject is the title when present.
func (d *Email) Meta(_ context.Context) (domain.DocMeta, error) {
	msg, err := d.read()
	if err != nil {
		return domain.DocMeta{}, err
	}
	m, err := d.meta(1)
	if err != nil {
		return domain.DocMeta{}, err
	}
	if msg.subject != "" {
		m.Title = msg.subject
	}
	return m, nil
}

// StreamPages implements driven.DocAdapter.
func (d *Email) StreamPages(ctx context.Context) (<-chan domain.PageTokens, <-chan error) {
	msg, err := d.read()
	if err != nil {
		return failed(err)
	}
	return streamSlice(ctx, gridPages([]string{msg.text}))
}

type emailContent struct {
	subject string
	text    string
}

func (d *Email) read() (*emailContent, error) {
	name := filepath.Base(d.path)
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: not an email message: %w", name, domain.ErrInvalidInput)
	}

	subject := decodeHeader(msg.Header.Get("Subject"))
	var b strings.Builder
	for _, h := range []string{"From", "To", "Cc", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(h)); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", h, v)
		}
	}
	body, err := messageBody(msg.Header.Get("Content-Type"), msg.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	b.WriteString("\n")
	b.WriteString(body)

	text := strings.ReplaceAll(strings.TrimSpace(b.String()), "\r\n", "\n")
	return &emailContent{subject: subject, text: text}, nil
}

// decodeHeader decodes RFC 2047 encoded words, keeping the raw value when
// decoding fails.
func decodeHeader(v string) string {
	if v == "" {
		return ""
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}

func messageBody(contentType string, body io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		plain, rich := multipartBody(body, params["boundary"])
		if plain != "" {
			return plain, nil
		}
		return rich, nil
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if mediaType == "text/html" {
		return stripTags(string(data)), nil
	}
	return string(data), nil
}

// multipartBody collects the text/plain and text/html parts, descending into
// nested multiparts. Attachments are ignored.
func multipartBody(r io.Reader, boundary string) (plain, rich string) {
	if boundary == "" {
		return "", ""
	}
	var texts, htmls []string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		mediaType, params, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			mediaType = "application/octet-stream"
		}
		if part.FileName() != "" {
			part.Close()
			continue
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			continue
		}
		switch {
		case mediaType == "text/plain":
			texts = append(texts, string(data))
		case mediaType == "text/html":
			htmls = append(htmls, stripTags(string(data)))
		case strings.HasPrefix(mediaType, "multipart/"):
			t, h := multipartBody(bytes.NewReader(data), params["boundary"])
			if t != "" {
				texts = append(texts, t)
			}
			if h != "" {
				htmls = append(htmls, h)
			}
		}
	}
	return strings.Join(texts, "\n"), strings.Join(htmls, "\n")
}

// stripTags drops markup and blank lines from an HTML body and decodes entities.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	lines := strings.Split(html.UnescapeString(b.String()), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
