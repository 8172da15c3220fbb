package docgen

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// zipSignature is the leading byte sequence of the editable-document
// container format (a ZIP archive).
var zipSignature = []byte{0x50, 0x4B, 0x03, 0x04}

// documentEntry is the archive member holding the document text
const documentEntry = "word/document.xml"

// IsDocumentContainer reports whether the payload's leading bytes match
// the expected container signature.
func IsDocumentContainer(payload []byte) bool {
	return len(payload) >= len(zipSignature) && bytes.Equal(payload[:len(zipSignature)], zipSignature)
}

// ExtractDocumentText converts an editable-document payload to plain
// text. Paragraph boundaries become newlines; all other markup is
// dropped. Placeholder tokens in the document text survive untouched.
func ExtractDocumentText(payload []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return "", err
	}

	var entry *zip.File
	for _, f := range reader.File {
		if f.Name == documentEntry {
			entry = f
			break
		}
	}
	if entry == nil {
		return "", errors.New("document container has no " + documentEntry)
	}

	rc, err := entry.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	return documentXMLToText(rc)
}

// documentXMLToText walks the document XML collecting text runs.
// <w:t> elements carry the text; </w:p> closes a paragraph.
func documentXMLToText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var out strings.Builder
	inText := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		}
	}

	return strings.TrimRight(out.String(), "\n"), nil
}
