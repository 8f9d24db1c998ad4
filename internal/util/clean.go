package util

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

const maxBinaryCheckBytes = 512

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// charReplacementMap normalizes Windows-1252 leftovers and typographic
// punctuation that PDF extractors tend to emit.
var charReplacementMap = map[string]string{
	"‘": "'", "’": "'", "“": "\"",
	"”": "\"", "–": "-", "—": "--", "…": "...",
	" ": " ", "": "-", "": "--", "": "'",
	"": "'", "": "\"", "": "\"",
}

// IsLikelyBinary reports whether data looks like a binary blob rather than
// text, judged by NUL bytes in its head.
func IsLikelyBinary(data []byte) bool {
	head := data
	if len(head) > maxBinaryCheckBytes {
		head = head[:maxBinaryCheckBytes]
	}
	return bytes.Contains(head, []byte{0})
}

// CleanDocumentText prepares raw file bytes for prompting: strips the BOM,
// repairs invalid UTF-8, and normalizes smart punctuation. src is only used
// in log and error messages.
func CleanDocumentText(data []byte, src string) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if !utf8.Valid(data) {
		log.Warnf("%s contains invalid UTF-8, replacing invalid sequences", src)
		data = bytes.ToValidUTF8(data, []byte(string(utf8.RuneError)))
	}

	str := string(data)
	for bad, good := range charReplacementMap {
		str = strings.ReplaceAll(str, bad, good)
	}

	if !utf8.ValidString(str) {
		return "", fmt.Errorf("%s still contains invalid UTF-8 after cleaning", src)
	}
	return str, nil
}
