package butler

import (
	"encoding/base64"
	"strings"

	"github.com/neurosnap/sentences/english"
	log "github.com/sirupsen/logrus"
)

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// TruncateAtSentence cuts text down to at most maxChars, preferring a
// sentence boundary so the model never sees a clause chopped mid-word.
// maxChars <= 0 disables truncation.
func TruncateAtSentence(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}

	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		log.Warn("Failed to create sentence tokenizer, truncating at a word boundary")
		return truncateAtWord(text, maxChars)
	}

	var b strings.Builder
	for _, sent := range tokenizer.Tokenize(text) {
		s := sent.Text
		if b.Len()+len(s) > maxChars {
			break
		}
		b.WriteString(s)
	}
	if b.Len() == 0 {
		// A single sentence longer than the budget; fall back to words.
		return truncateAtWord(text, maxChars)
	}
	log.Debugf("Document text truncated from %d to %d chars", len(text), b.Len())
	return b.String()
}

func truncateAtWord(text string, maxChars int) string {
	cut := text[:maxChars]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}
