package features

import (
	"strings"
	"testing"

	"github.com/valpere/slovnyk/internal/schema"
)

var prov = schema.NewProvenance("omw_v1", "", "")

func vf(t *testing.T, value string, conf float64) *schema.ValueField[string] {
	t.Helper()
	f, err := schema.NewValueField(value, prov, conf)
	if err != nil {
		t.Fatal(err)
	}
	return &f
}

func base(t *testing.T, word string, pos schema.PosType, examples ...float64) BaseFeatures {
	t.Helper()
	b := BaseFeatures{WordTarget: *vf(t, word, 0.98)}
	if pos != "" {
		p, err := schema.NewValueField(pos, prov, 0.95)
		if err != nil {
			t.Fatal(err)
		}
		b.PartOfSpeech = &p
	}
	for _, c := range examples {
		b.Examples = append(b.Examples, *vf(t, "example", c))
	}
	return b
}

func TestValidate_GermanNounWithoutGender(t *testing.T) {
	fs := &GermanFeatures{
		BaseFeatures: base(t, "Tisch", schema.PosNoun, 0.9),
		Plural:       vf(t, "Tische", 0.97),
	}
	res := Validate(fs)
	if res.Valid() {
		t.Fatal("expected a German noun without gender to fail")
	}
	v := res.Violations[0]
	if v.Field != "gender" || v.Word != "Tisch" || v.Lang != "de" {
		t.Errorf("unexpected violation %+v", v)
	}
	if !strings.Contains(v.Reason, "gender") || !strings.Contains(v.Reason, "Tisch") {
		t.Errorf("reason should cite the field and word: %q", v.Reason)
	}
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name  string
		fs    FeatureSet
		field string // "" means valid
	}{
		{"german noun complete", &GermanFeatures{
			BaseFeatures: base(t, "Tisch", schema.PosNoun, 0.9),
			Gender:       vf(t, "m", 0.99), Plural: vf(t, "Tische", 0.97),
		}, ""},
		{"german verb needs no gender", &GermanFeatures{
			BaseFeatures: base(t, "laufen", schema.PosVerb, 0.9),
		}, ""},
		{"german noun without plural", &GermanFeatures{
			BaseFeatures: base(t, "Tisch", schema.PosNoun, 0.9),
			Gender:       vf(t, "m", 0.99),
		}, "plural"},
		{"croatian verb without aspect", &CroatianFeatures{
			BaseFeatures: base(t, "pisati", schema.PosVerb, 0.9),
		}, "aspect"},
		{"croatian noun without gender", &CroatianFeatures{
			BaseFeatures: base(t, "stol", schema.PosNoun, 0.9),
		}, "gender"},
		{"korean verb without conjugations", &KoreanFeatures{
			BaseFeatures: base(t, "먹다", schema.PosVerb, 0.9),
		}, "conjugation_samples"},
		{"korean hanja without romanization", &KoreanFeatures{
			BaseFeatures: base(t, "책상", schema.PosNoun, 0.9),
			Hanja:        vf(t, "冊床", 0.95),
		}, "romanization"},
		{"spanish noun without number", &SpanishFeatures{
			BaseFeatures: base(t, "mesa", schema.PosNoun, 0.9),
			Gender:       vf(t, "f", 0.99),
		}, "number"},
		{"french noun complete", &FrenchFeatures{
			BaseFeatures: base(t, "table", schema.PosNoun, 0.9),
			Gender:       vf(t, "f", 0.99), Number: vf(t, "singular", 0.97),
		}, ""},
		{"japanese without script", &JapaneseFeatures{
			BaseFeatures: base(t, "机", schema.PosNoun, 0.9),
		}, "kanji"},
		{"japanese with hiragana", &JapaneseFeatures{
			BaseFeatures: base(t, "机", schema.PosNoun, 0.9),
			Hiragana:     vf(t, "つくえ", 0.95),
		}, ""},
		{"chinese without script", &ChineseFeatures{
			BaseFeatures: base(t, "桌子", schema.PosNoun, 0.9),
			Pinyin:       vf(t, "zhuōzi", 0.94),
		}, "simplified"},
		{"english without examples", &EnglishFeatures{
			BaseFeatures: base(t, "table", schema.PosNoun),
		}, "examples"},
		{"low confidence example", &EnglishFeatures{
			BaseFeatures: base(t, "table", schema.PosNoun, 0.9, 0.81),
		}, "examples"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.fs)
			if tt.field == "" {
				if !res.Valid() {
					t.Errorf("expected valid, got %v", res.Violations)
				}
				return
			}
			if res.Valid() {
				t.Fatalf("expected a violation on %q", tt.field)
			}
			if res.Violations[0].Field != tt.field {
				t.Errorf("expected violation on %q, got %+v", tt.field, res.Violations)
			}
		})
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	fs := &GermanFeatures{BaseFeatures: base(t, "Tisch", schema.PosNoun)}
	res := Validate(fs)
	if len(res.Violations) != 3 {
		t.Errorf("expected gender, plural and examples violations, got %v", res.Violations)
	}
}
