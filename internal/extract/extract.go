package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"

	"clinical-backend/internal/shared/storage/object"
	"clinical-backend/internal/shared/telemetry"
)

// Kinds of input the extractor understands.
const (
	KindText = "text"
	KindPDF  = "pdf"
	KindDOCX = "docx"
	KindZip  = "zip"
)

// CacheSuffix is appended to a source key to store its extracted text.
const CacheSuffix = ".extracted.txt"

var ErrUnsupported = errors.New("unsupported file type")

// KindOf classifies a file by extension, sniffing zip payloads for OOXML documents.
func KindOf(fileName string, data []byte) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".md", ".txt":
		return KindText
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	case ".zip":
		if isDOCX(data) {
			return KindDOCX
		}
		return KindZip
	}
	return ""
}

// Supported reports whether fileName has an extension the extractor handles.
func Supported(fileName string) bool {
	if strings.HasSuffix(fileName, CacheSuffix) {
		return false
	}
	return KindOf(fileName, nil) != ""
}

// FromBytes extracts text from an in-memory payload. Zip archives are the caller's concern.
func FromBytes(ctx context.Context, data []byte, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch KindOf(fileName, data) {
	case KindText:
		return DecodeText(data), nil
	case KindPDF:
		pages, err := PDFPages(data)
		if err != nil {
			return "", err
		}
		return strings.Join(pages, "\n"), nil
	case KindDOCX:
		return extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, fileName)
	}
}

// FromStore extracts text for src. PDF and DOCX results are cached next to the
// source. cache describes the existing cache object, if any; it is used only
// when it is newer than the source. Cache writes are best effort.
func FromStore(ctx context.Context, store object.ObjectStore, src object.ObjectInfo, cache *object.ObjectInfo) (string, error) {
	key := src.Key
	kind := KindOf(key, nil)
	binary := kind == KindPDF || kind == KindDOCX
	if binary && CacheFresh(src, cache) {
		if cached, err := readAll(ctx, store, key+CacheSuffix); err == nil {
			return DecodeText(cached), nil
		}
	}

	raw, err := readAll(ctx, store, key)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: %w", key, err)
	}
	text, err := FromBytes(ctx, raw, key)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: %w", key, err)
	}

	if binary && strings.TrimSpace(text) != "" {
		if _, err := store.SaveWithKey(ctx, key+CacheSuffix, "text/plain; charset=utf-8", strings.NewReader(text)); err != nil {
			telemetry.Warn("extract.cache_write_failed", map[string]any{"key": key, "error": err})
		}
	}
	return text, nil
}

// CacheFresh reports whether cache exists and was written after src last changed.
func CacheFresh(src object.ObjectInfo, cache *object.ObjectInfo) bool {
	if cache == nil || cache.ModTime.IsZero() || src.ModTime.IsZero() {
		return false
	}
	return cache.ModTime.After(src.ModTime)
}

// DecodeText returns data as UTF-8, decoding it as Windows-1252 when it is not valid UTF-8.
func DecodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "")
	}
	return string(decoded)
}

// PDFPages returns the plain text of each page in order.
func PDFPages(data []byte) (pages []string, err error) {
	// The pdf reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	fonts := make(map[string]*pdf.Font)
	pages = make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("pdf page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func readAll(ctx context.Context, store object.ObjectStore, key string) ([]byte, error) {
	body, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return stripDocxXML(string(raw)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func isDOCX(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
