package record

import (
	"strings"
)

// Kind is the classification of a file.
//
// The set is closed. KindUnknown is both the zero value and the fallback for
// any name or number that does not match a known kind, so decoding a kind
// never fails.
type Kind uint32

const (
	KindUnknown Kind = iota
	KindPdf
	KindDocx
	KindXls
	KindTxt
	KindCsv
	KindPptx
	KindJpg
	KindPng
)

var kindNames = map[Kind]string{
	KindUnknown: "unknown",
	KindPdf:     "pdf",
	KindDocx:    "docx",
	KindXls:     "xls",
	KindTxt:     "txt",
	KindCsv:     "csv",
	KindPptx:    "pptx",
	KindJpg:     "jpg",
	KindPng:     "png",
}

// Kinds returns every known kind, KindUnknown included, in declaration order.
func Kinds() []Kind {
	return []Kind{KindUnknown, KindPdf, KindDocx, KindXls, KindTxt, KindCsv, KindPptx, KindJpg, KindPng}
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Known reports whether k is one of the declared kinds other than KindUnknown.
func (k Kind) Known() bool {
	_, ok := kindNames[k]
	return ok && k != KindUnknown
}

// Normalize maps out-of-range values to KindUnknown.
func (k Kind) Normalize() Kind {
	if _, ok := kindNames[k]; !ok {
		return KindUnknown
	}
	return k
}

// ParseKind maps a kind name (case-insensitive, optional leading dot, e.g.
// "PDF" or ".pdf") to a Kind. Unrecognized names yield KindUnknown.
func ParseKind(name string) Kind {
	name = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")
	if name == "jpeg" {
		return KindJpg
	}
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

// MarshalText implements encoding.TextMarshaler (used by JSON and YAML).
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It never fails.
func (k *Kind) UnmarshalText(text []byte) error {
	*k = ParseKind(string(text))
	return nil
}
