package i18n

import (
	"sort"
	"strings"
	"sync"
)

// Translator renders a human message for an Issue code. data carries optional
// parameters such as the field name or the offending literal.
type Translator interface {
	Message(code string, data map[string]string) string
}

var dictionaries = map[string]map[string]string{
	"en": {
		"illegal_state":        "assembly stack misuse",
		"unknown_name":         "unknown name",
		"name_mismatch":        "pop name does not match push",
		"incompatible_context": "context cannot represent field",
		"number_format":        "malformed literal",
		"unknown_enumerator":   "unknown enumerator",
		"malformed_binary":     "malformed binary content",
		"required":             "required field missing",
		"duplicate_key":        "duplicate key",
		"parse_error":          "parse error",
		"truncated":            "truncated",
	},
	"ja": {
		"illegal_state":        "スタックの操作順序が不正です",
		"unknown_name":         "未知の名前です",
		"name_mismatch":        "push と pop の名前が一致しません",
		"incompatible_context": "このコンテキストではフィールドを表現できません",
		"number_format":        "リテラルの形式が不正です",
		"unknown_enumerator":   "未知の列挙子です",
		"malformed_binary":     "バイナリ内容が不正です",
		"required":             "必須フィールドが不足しています",
		"duplicate_key":        "キーが重複しています",
		"parse_error":          "解析エラー",
		"truncated":            "打ち切られました",
	},
}

// dictTranslator is the built-in dictionary-based Translator. Parameters are
// appended as sorted key=value pairs.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		msg = code
	}
	if len(data) == 0 {
		return msg
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b := &strings.Builder{}
	b.WriteString(msg)
	for i, k := range keys {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(data[k])
	}
	return b.String()
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := dictionaries[lang]; !ok {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation. nil restores English.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
