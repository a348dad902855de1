package i18n

import (
	"strings"
	"sync/atomic"
)

// Translator retrieves localized messages for Issue codes.
// data provides values for the {placeholders} in the message (for example,
// "field", "label" or "type").
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogs = map[string]map[string]string{
	"en": {
		"invalid_argument":      "invalid argument: {detail}",
		"not_subtype":           "type {type} is not a subtype of base type {base}",
		"duplicate_label":       "label {label} is already registered for {type}",
		"builder_consumed":      "builder already built; registrations are frozen",
		"unregistered_type":     "cannot serialize {type}; did you forget to register a subtype?",
		"default_mismatch":      "cannot serialize {type} as default type {default}; it is not registered and does not convert",
		"unsupported_type":      "no codec for type {type}",
		"invalid_type":          "expected {expected}, got {got}",
		"invalid_format":        "invalid {format} value: {value}",
		"discriminator_missing": "cannot deserialize {base} because it does not define a field named {field}",
		"discriminator_unknown": "cannot deserialize {base} subtype named {label}; did you forget to register a subtype?",
		"parse_error":           "parse error",
		"duplicate_key":         "duplicate key",
		"truncated":             "truncated",
		"codec_failure":         "codec for {type} failed: {detail}",
	},
	"ja": {
		"invalid_argument":      "引数が不正です: {detail}",
		"not_subtype":           "型 {type} は基底型 {base} のサブタイプではありません",
		"duplicate_label":       "ラベル {label} は既に {type} に登録されています",
		"builder_consumed":      "ビルダーは既に確定済みです",
		"unregistered_type":     "{type} をシリアライズできません。サブタイプの登録漏れではありませんか?",
		"default_mismatch":      "{type} は未登録で既定の型 {default} に変換できないため、シリアライズできません",
		"unsupported_type":      "型 {type} のコーデックがありません",
		"invalid_type":          "{expected} を期待しましたが {got} でした",
		"invalid_format":        "{format} の形式が不正です: {value}",
		"discriminator_missing": "{base} をデシリアライズできません。フィールド {field} がありません",
		"discriminator_unknown": "{base} のサブタイプ {label} をデシリアライズできません。サブタイプの登録漏れではありませんか?",
		"parse_error":           "解析エラー",
		"duplicate_key":         "キーが重複しています",
		"truncated":             "打ち切られました",
		"codec_failure":         "{type} のコーデックが失敗しました: {detail}",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalogs[t.lang][code]
	if !ok {
		msg, ok = catalogs["en"][code]
	}
	if !ok {
		return code
	}
	return expand(msg, data)
}

func expand(msg string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := catalogs[lang]; !ok {
		lang = "en"
	}
	current.Store(&holder{tr: dictTranslator{lang: lang}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	return current.Load().tr.Message(code, data)
}
