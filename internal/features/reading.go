package features

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// ReadingSourceName is the provenance source of readings derived by the
// morphological analyzer.
const ReadingSourceName = "kagome_ipa"

// Reader derives kana readings from Japanese text with the IPA dictionary.
type Reader struct {
	t *tokenizer.Tokenizer
}

func NewReader() (*Reader, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Reader{t: t}, nil
}

// Katakana returns the reading of text as the analyzer reports it. Tokens
// without a known reading contribute their surface form; text with no
// known reading at all yields "".
func (r *Reader) Katakana(text string) string {
	var b strings.Builder
	known := false
	for _, token := range r.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY || strings.TrimSpace(token.Surface) == "" {
			continue
		}
		// IPA feature 7 is the reading.
		features := token.Features()
		if len(features) > 7 && features[7] != "*" {
			b.WriteString(features[7])
			known = true
			continue
		}
		b.WriteString(token.Surface)
	}
	if !known {
		return ""
	}
	return b.String()
}

// Hiragana returns the reading of text in hiragana.
func (r *Reader) Hiragana(text string) string {
	return ToHiragana(r.Katakana(text))
}

// ToHiragana maps katakana to hiragana, leaving other runes untouched.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}
