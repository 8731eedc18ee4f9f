package keyboard

import (
	"unicode/utf8"
)

// sequenceLen returns the UTF-8 sequence length announced by a leading byte,
// or 1 for ASCII and malformed leaders.
func sequenceLen(b byte) int {
	switch {
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	}
	return 1
}

func isContinuation(b byte) bool {
	return b&0xC0 == 0x80
}

// decodeKey assembles one key from first and, for multi-byte characters, the
// continuation bytes returned by next. Malformed input decodes to
// utf8.RuneError, which no binding uses. A byte that cannot continue the
// sequence is handed to unread so it is decoded as the next key.
func decodeKey(first byte, next func() (byte, error), unread func(byte)) (rune, error) {
	if first < utf8.RuneSelf {
		return classify(rune(first))
	}

	n := sequenceLen(first)
	if n == 1 {
		return utf8.RuneError, nil
	}

	buf := make([]byte, 1, utf8.UTFMax)
	buf[0] = first
	for len(buf) < n {
		b, err := next()
		if err != nil {
			return 0, err
		}
		if !isContinuation(b) {
			unread(b)
			return utf8.RuneError, nil
		}
		buf = append(buf, b)
	}

	r, _ := utf8.DecodeRune(buf)
	return r, nil
}
