package fetcher

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// extractFile converts a local file into a title and plain text according to
// its extension. Unknown extensions are read as plain text. An empty title
// means the caller keeps its default.
func extractFile(path string, data []byte) (title, text string, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return extractHTML(bytes.NewReader(data))
	case ".md", ".markdown":
		title, text = extractMarkdown(string(data))
		return title, text, nil
	case ".docx":
		return extractDocx(data)
	case ".eml":
		return extractEmail(data)
	default:
		return "", string(data), nil
	}
}

var (
	mdCodeBlock   = regexp.MustCompile("(?s)```.*?```")
	mdInlineCode  = regexp.MustCompile("`([^`]+)`")
	mdImage       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLink        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdEmphasis    = regexp.MustCompile(`(\*\*|__|\*|_)([^*_\n]+)(\*\*|__|\*|_)`)
	mdBlockquote  = regexp.MustCompile(`(?m)^>\s?`)
	mdRule        = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	mdBullet      = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	mdNumbered    = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	mdBlankLines  = regexp.MustCompile(`\n{3,}`)
	mdFirstHeader = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// extractMarkdown strips markdown syntax. Fenced code is dropped; inline
// code keeps its text. The title is the first level-one heading.
func extractMarkdown(content string) (title, text string) {
	if m := mdFirstHeader.FindStringSubmatch(content); m != nil {
		title = strings.TrimSpace(m[1])
	}

	content = mdCodeBlock.ReplaceAllString(content, "")
	content = mdInlineCode.ReplaceAllString(content, "$1")
	content = mdImage.ReplaceAllString(content, "")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdHeading.ReplaceAllString(content, "")
	content = mdEmphasis.ReplaceAllString(content, "$2")
	content = mdBlockquote.ReplaceAllString(content, "")
	content = mdRule.ReplaceAllString(content, "")
	content = mdBullet.ReplaceAllString(content, "")
	content = mdNumbered.ReplaceAllString(content, "")
	content = mdBlankLines.ReplaceAllString(content, "\n\n")
	return title, strings.TrimSpace(content)
}

// docxBody mirrors the parts of word/document.xml that carry text.
type docxBody struct {
	Paragraphs []struct {
		Runs []struct {
			Text []string `xml:"t"`
		} `xml:"r"`
	} `xml:"body>p"`
}

// docxCore mirrors docProps/core.xml.
type docxCore struct {
	Title string `xml:"title"`
}

// extractDocx reads the paragraphs of a Word document, one per line.
func extractDocx(data []byte) (title, text string, err error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", "", fmt.Errorf("%w: not a docx archive: %w", domain.ErrInvalidInput, err)
	}

	raw, err := readZipEntry(zr, "word/document.xml")
	if err != nil {
		return "", "", err
	}
	var body docxBody
	if err := xml.Unmarshal(raw, &body); err != nil {
		return "", "", fmt.Errorf("%w: parse document.xml: %w", domain.ErrInvalidInput, err)
	}

	lines := make([]string, 0, len(body.Paragraphs))
	for _, p := range body.Paragraphs {
		var b strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				b.WriteString(t)
			}
		}
		lines = append(lines, b.String())
	}

	// docProps/core.xml is optional
	if raw, err := readZipEntry(zr, "docProps/core.xml"); err == nil {
		var core docxCore
		if xml.Unmarshal(raw, &core) == nil {
			title = strings.TrimSpace(core.Title)
		}
	}
	return title, strings.TrimSpace(strings.Join(lines, "\n")), nil
}

var errZipEntryMissing = errors.New("entry missing")

func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", domain.ErrInvalidInput, name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", domain.ErrInvalidInput, name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, name, errZipEntryMissing)
}

// extractEmail renders an RFC 822 message as a short header block followed
// by its body. Plain text parts win over HTML parts.
func extractEmail(data []byte) (title, text string, err error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("%w: parse email: %w", domain.ErrInvalidInput, err)
	}

	dec := new(mime.WordDecoder)
	header := func(name string) string {
		v := msg.Header.Get(name)
		if decoded, err := dec.DecodeHeader(v); err == nil {
			return decoded
		}
		return v
	}

	body, err := emailBody(msg.Header.Get("Content-Type"), msg.Body)
	if err != nil {
		return "", "", err
	}

	var b strings.Builder
	for _, name := range []string{"From", "To", "Date", "Subject"} {
		if v := header(name); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", name, v)
		}
	}
	b.WriteString("\n")
	b.WriteString(body)
	return header("Subject"), strings.TrimSpace(b.String()), nil
}

// emailBody extracts the text of a message body of the given content type.
func emailBody(contentType string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return multipartBody(r, params["boundary"])
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("%w: read email body: %w", domain.ErrInvalidInput, err)
	}
	if mediaType == "text/html" {
		_, text, err := extractHTML(bytes.NewReader(data))
		return text, err
	}
	return string(data), nil
}

func multipartBody(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	var plain, html []string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF or a truncated message: keep what was read
			break
		}
		mediaType, _, perr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if perr != nil {
			mediaType = "text/plain"
		}
		text, berr := emailBody(part.Header.Get("Content-Type"), part)
		part.Close()
		if berr != nil || strings.TrimSpace(text) == "" {
			continue
		}
		switch {
		case mediaType == "text/html":
			html = append(html, text)
		case mediaType == "text/plain", strings.HasPrefix(mediaType, "multipart/"):
			plain = append(plain, text)
		}
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n"), nil
	}
	return strings.Join(html, "\n"), nil
}
