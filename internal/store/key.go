package store

import (
	"fmt"
	"strings"

	"folio/internal/model"
)

// Key addresses one content entry. Number is the node's qualified number, so sections of
// different chapters never share a key.
type Key struct {
	Kind    model.Kind
	Number  string
	Variant model.Variant
}

func (k Key) String() string {
	return string(k.Kind) + "_" + k.Number + "_" + string(k.Variant)
}

// ParseKey reverses Key.String. The number may itself contain underscores.
func ParseKey(s string) (Key, error) {
	i := strings.Index(s, "_")
	j := strings.LastIndex(s, "_")
	if i < 0 || j <= i {
		return Key{}, fmt.Errorf("malformed content key: %q", s)
	}
	k := Key{
		Kind:    model.Kind(s[:i]),
		Number:  s[i+1 : j],
		Variant: model.Variant(s[j+1:]),
	}
	if !k.Kind.Valid() {
		return Key{}, fmt.Errorf("malformed content key %q: unknown kind", s)
	}
	if k.Variant != model.VariantDraft && k.Variant != model.VariantFinal {
		return Key{}, fmt.Errorf("malformed content key %q: unknown variant", s)
	}
	return k, nil
}
