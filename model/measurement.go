package model

import (
	"strings"

	"github.com/pkg/errors"
)

// SourceKind names the storage backend an item was loaded from.
type SourceKind string

const (
	File SourceKind = "FILE"
	Blob SourceKind = "BLOB"
)

var SourceKinds = []SourceKind{File, Blob}

func ParseSourceKind(s string) (SourceKind, error) {
	switch SourceKind(strings.ToUpper(strings.TrimSpace(s))) {
	case File:
		return File, nil
	case Blob:
		return Blob, nil
	}

	return "", errors.Wrapf(ErrInvalidRequest, "unknown source kind %q", s)
}

func (k SourceKind) String() string {
	return string(k)
}

// CheckItem rejects item names that cannot be exported as a single record
// line.
func CheckItem(name string) error {
	if name == "" {
		return errors.Wrap(ErrInvalidRequest, "empty item name")
	}

	if strings.ContainsAny(name, "\r\n") {
		return errors.Wrapf(ErrInvalidRequest, "item name %q contains a line break", name)
	}

	return nil
}

// Measurement is one timed fetch attempt. Values are never modified after
// the runner records them.
type Measurement struct {
	Source    SourceKind
	Item      string
	Size      uint64
	ElapsedMs float64
	Iteration uint32
	Succeeded bool

	// annotations, not part of the exported record
	Strategy string
	Err      string
}
