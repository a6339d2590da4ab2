package vm

import (
	"math"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/width"
)

// ObjString is an immutable UTF-8 byte run with a precomputed FNV-1a
// hash. Go strings are already length-prefixed and immutable, so the
// reference's "trailing NUL sentinel" is not reproduced literally; the
// byte content and length (len(value), no NUL counted) are exactly
// what the reference exposes.
type ObjString struct {
	Obj
	value string
	hash  uint32
}

func (s *ObjString) trace(gc *gcState) {}

const (
	fnvOffset32 uint32 = 2166136261
	fnvPrime32  uint32 = 16777619
)

func hashBytes(b string) uint32 {
	h := fnvOffset32
	for i := 0; i < len(b); i++ {
		h ^= uint32(b[i])
		h *= fnvPrime32
	}
	return h
}

func stringObjSize(n int) int64 { return int64(40 + n + 1) }

// NewString allocates a new ObjString copying s's bytes and computing
// its hash up front.
func NewString(v *VM, s string) *ObjString {
	str := &ObjString{value: s, hash: hashBytes(s)}
	initObj(&str.Obj, KindString, v.stringClass)
	v.registerObject(&str.Obj, stringObjSize(len(s)))
	return str
}

func (s *ObjString) Value() string { return s.value }
func (s *ObjString) Len() int      { return len(s.value) }
func (s *ObjString) Hash() uint32  { return s.hash }

// DisplayWidth reports the terminal column width of the string,
// folding East-Asian wide/fullwidth runes the way golang.org/x/text
// classifies them and falling back to go-runewidth's table for the
// rest. This is an ember extension beyond the reference String API,
// used by the REPL to align output columns.
func DisplayWidth(s string) int {
	total := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			total += 2
		default:
			total += runewidth.RuneWidth(r)
		}
	}
	return total
}

// CodePointAt inspects the byte at index and returns the substring
// spanned by the UTF-8 sequence starting there, per the leading-byte
// rules in §4.5. It does not validate continuation bytes; a malformed
// sequence simply yields a substring of the guessed length, clamped to
// the string's remaining bytes.
func CodePointAt(v *VM, s *ObjString, index int) *ObjString {
	if index < 0 || index >= len(s.value) {
		return NewString(v, "")
	}
	b := s.value[index]
	var length int
	switch {
	case b&0xC0 == 0x80: // continuation byte: not a sequence start
		return NewString(v, "")
	case b&0xF8 == 0xF0:
		length = 4
	case b&0xF0 == 0xE0:
		length = 3
	case b&0xE0 == 0xC0:
		length = 2
	default:
		length = 1
	}
	end := index + length
	if end > len(s.value) {
		end = len(s.value)
	}
	return NewString(v, s.value[index:end])
}

// EncodeUTF8 encodes a code point into its raw UTF-8 byte sequence.
func EncodeUTF8(cp rune) []byte {
	buf := make([]byte, 4)
	n := utf8EncodeRune(buf, cp)
	return buf[:n]
}

// utf8EncodeRune mirrors the reference's hand-rolled encoder rather
// than delegating to unicode/utf8, so surrogate and out-of-range code
// points behave exactly as the reference's byte-counting table does.
func utf8EncodeRune(buf []byte, cp rune) int {
	switch {
	case cp <= 0x7F:
		buf[0] = byte(cp)
		return 1
	case cp <= 0x7FF:
		buf[0] = byte(0xC0 | (cp >> 6))
		buf[1] = byte(0x80 | (cp & 0x3F))
		return 2
	case cp <= 0xFFFF:
		buf[0] = byte(0xE0 | (cp >> 12))
		buf[1] = byte(0x80 | ((cp >> 6) & 0x3F))
		buf[2] = byte(0x80 | (cp & 0x3F))
		return 3
	default:
		buf[0] = byte(0xF0 | (cp >> 18))
		buf[1] = byte(0x80 | ((cp >> 12) & 0x3F))
		buf[2] = byte(0x80 | ((cp >> 6) & 0x3F))
		buf[3] = byte(0x80 | (cp & 0x3F))
		return 4
	}
}

// DecodeUTF8 decodes the UTF-8 sequence at the start of b, returning
// the code point and the number of bytes consumed, or (-1, 0) if b is
// empty or starts with a continuation byte.
func DecodeUTF8(b []byte) (rune, int) {
	if len(b) == 0 {
		return -1, 0
	}
	first := b[0]
	if first&0x80 == 0 {
		return rune(first), 1
	}
	if first&0xC0 == 0x80 {
		return -1, 0
	}
	var length int
	var cp rune
	switch {
	case first&0xF8 == 0xF0:
		length, cp = 4, rune(first&0x07)
	case first&0xF0 == 0xE0:
		length, cp = 3, rune(first&0x0F)
	case first&0xE0 == 0xC0:
		length, cp = 2, rune(first&0x1F)
	default:
		return -1, 0
	}
	if len(b) < length {
		return -1, 0
	}
	for i := 1; i < length; i++ {
		cp = (cp << 6) | rune(b[i]&0x3F)
	}
	return cp, length
}

const notFound = ^uint32(0)

// Find returns the byte offset of the first occurrence of needle in
// haystack using Boyer-Moore-Horspool, or notFound. An empty needle
// matches at offset 0; a needle longer than the haystack never
// matches.
func Find(haystack, needle string) uint32 {
	if len(needle) == 0 {
		return 0
	}
	if len(needle) > len(haystack) {
		return notFound
	}
	var shift [256]int
	for i := range shift {
		shift[i] = len(needle)
	}
	for i := 0; i < len(needle)-1; i++ {
		shift[needle[i]] = len(needle) - 1 - i
	}
	pos := 0
	for pos <= len(haystack)-len(needle) {
		if haystack[pos:pos+len(needle)] == needle {
			return uint32(pos)
		}
		pos += shift[haystack[pos+len(needle)-1]]
	}
	return notFound
}

// Format interprets a small mini-language: '$' consumes a C-string
// (string) argument, '@' consumes a String-value argument, any other
// character is copied literally. Two passes: the first sums lengths,
// the second allocates once and fills — exactly the reference's
// allocation strategy to avoid building up though a growing buffer.
func Format(v *VM, fmtStr string, args ...any) *ObjString {
	total := 0
	argPos := 0
	for i := 0; i < len(fmtStr); i++ {
		switch fmtStr[i] {
		case '$':
			total += len(args[argPos].(string))
			argPos++
		case '@':
			total += len(args[argPos].(*ObjString).value)
			argPos++
		default:
			total++
		}
	}
	var b strings.Builder
	b.Grow(total)
	argPos = 0
	for i := 0; i < len(fmtStr); i++ {
		switch fmtStr[i] {
		case '$':
			b.WriteString(args[argPos].(string))
			argPos++
		case '@':
			b.WriteString(args[argPos].(*ObjString).value)
			argPos++
		default:
			b.WriteByte(fmtStr[i])
		}
	}
	return NewString(v, b.String())
}

// NumToString renders a double the way the reference does: NaN and
// the infinities get their own literal spellings, everything else
// uses %.14g formatting.
func NumToString(d float64) string {
	switch {
	case math.IsNaN(d):
		return "nan"
	case math.IsInf(d, 1):
		return "infinity"
	case math.IsInf(d, -1):
		return "-infinity"
	default:
		return strconv.FormatFloat(d, 'g', 14, 64)
	}
}
