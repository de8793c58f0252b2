package quickdb

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// key is a caller key split into the row id and the path inside the row.
// "user.profile.age" is row "user", path ["profile", "age"].
type key struct {
	raw  string
	row  string
	path []string
}

func (k key) dotted() bool { return len(k.path) > 0 }

func parseKey(raw string, normal bool) (key, error) {
	if raw == "" {
		return key{}, fmt.Errorf("%w: key is empty", ErrInvalidArgument)
	}

	if !utf8.ValidString(raw) {
		return key{}, fmt.Errorf("%w: key %q is not valid UTF-8", ErrInvalidArgument, raw)
	}

	if normal {
		return key{raw: raw, row: raw}, nil
	}

	segments := strings.Split(raw, ".")
	for i, seg := range segments {
		if seg == "" {
			return key{}, fmt.Errorf("%w: key %q has an empty segment at position %d", ErrInvalidArgument, raw, i)
		}
	}

	return key{raw: raw, row: segments[0], path: segments[1:]}, nil
}
