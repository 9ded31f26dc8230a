package runtime

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/photostructure/convgen/pkg/tagvalue"
)

// Sprintf formats args using the source language's template syntax, which
// overlaps Go's for the verbs conversion expressions actually use (%d, %x,
// %s, %f and friends). Arguments are coerced per verb: integral verbs
// truncate, float verbs go through the numeric view, %s stringifies.
func Sprintf(format tagvalue.TagValue, args ...tagvalue.TagValue) tagvalue.TagValue {
	f := format.String()
	goArgs := make([]any, 0, len(args))
	ai := 0
	for i := 0; i < len(f) && ai < len(args); i++ {
		if f[i] != '%' {
			continue
		}
		i++
		if i < len(f) && f[i] == '%' {
			continue
		}
		for i < len(f) && strings.IndexByte("-+ #0123456789.*", f[i]) >= 0 {
			// a * width consumes its own integer argument
			if f[i] == '*' {
				if ai >= len(args) {
					break
				}
				goArgs = append(goArgs, int(args[ai].Int64()))
				ai++
			}
			i++
		}
		if i >= len(f) || ai >= len(args) {
			break
		}
		switch f[i] {
		case 'd', 'i', 'u', 'x', 'X', 'o', 'b', 'c':
			goArgs = append(goArgs, args[ai].Int64())
		case 'e', 'E', 'f', 'g', 'G':
			goArgs = append(goArgs, args[ai].Numeric())
		default:
			goArgs = append(goArgs, args[ai].String())
		}
		ai++
	}
	// %i and %u have no Go spelling
	f = strings.ReplaceAll(f, "%i", "%d")
	f = strings.ReplaceAll(f, "%u", "%d")
	return tagvalue.Str(fmt.Sprintf(f, goArgs...))
}

// Unpack decodes a byte sequence per a template of letter+count codes.
// Supported codes cover what conversion expressions use in practice:
//
//	H  hex string, count = hex digit count (* = all)
//	C c  unsigned/signed byte
//	n v  16-bit big/little endian
//	N V  32-bit big/little endian
//	A a  text, count = byte count (A trims trailing space and NUL)
//
// Decoding stops silently when the data runs out, mirroring the source
// language's permissive behavior.
func Unpack(format, data tagvalue.TagValue) []tagvalue.TagValue {
	b := data.RawBytes()
	f := format.String()
	var out []tagvalue.TagValue
	pos := 0
	for i := 0; i < len(f); {
		code := f[i]
		i++
		count, star := 1, false
		if i < len(f) {
			if f[i] == '*' {
				star = true
				i++
			} else if f[i] >= '0' && f[i] <= '9' {
				j := i
				for j < len(f) && f[j] >= '0' && f[j] <= '9' {
					j++
				}
				count, _ = strconv.Atoi(f[i:j])
				i = j
			}
		}
		switch code {
		case 'H':
			digits := count
			if star {
				digits = (len(b) - pos) * 2
			}
			nbytes := (digits + 1) / 2
			if pos+nbytes > len(b) {
				nbytes = len(b) - pos
			}
			if nbytes <= 0 {
				continue
			}
			h := hex.EncodeToString(b[pos : pos+nbytes])
			if digits < len(h) {
				h = h[:digits]
			}
			out = append(out, tagvalue.Str(h))
			pos += nbytes
		case 'C', 'c':
			n := count
			if star {
				n = len(b) - pos
			}
			for i := 0; i < n; i++ {
				if pos >= len(b) {
					break
				}
				if code == 'C' {
					out = append(out, tagvalue.Int(int64(b[pos])))
				} else {
					out = append(out, tagvalue.Int(int64(int8(b[pos]))))
				}
				pos++
			}
		case 'n', 'v':
			n := count
			if star {
				n = (len(b) - pos) / 2
			}
			for i := 0; i < n; i++ {
				if pos+2 > len(b) {
					break
				}
				var u uint16
				if code == 'n' {
					u = binary.BigEndian.Uint16(b[pos:])
				} else {
					u = binary.LittleEndian.Uint16(b[pos:])
				}
				out = append(out, tagvalue.Int(int64(u)))
				pos += 2
			}
		case 'N', 'V':
			n := count
			if star {
				n = (len(b) - pos) / 4
			}
			for i := 0; i < n; i++ {
				if pos+4 > len(b) {
					break
				}
				var u uint32
				if code == 'N' {
					u = binary.BigEndian.Uint32(b[pos:])
				} else {
					u = binary.LittleEndian.Uint32(b[pos:])
				}
				out = append(out, tagvalue.Int(int64(u)))
				pos += 4
			}
		case 'A', 'a':
			n := count
			if star {
				n = len(b) - pos
			}
			if pos+n > len(b) {
				n = len(b) - pos
			}
			if n <= 0 {
				continue
			}
			s := string(b[pos : pos+n])
			if code == 'A' {
				s = strings.TrimRight(s, " \x00")
			}
			out = append(out, tagvalue.Str(s))
			pos += n
		}
	}
	return out
}

// Join concatenates parts with sep between them.
func Join(sep tagvalue.TagValue, parts []tagvalue.TagValue) tagvalue.TagValue {
	ss := make([]string, len(parts))
	for i, p := range parts {
		ss[i] = p.String()
	}
	return tagvalue.Str(strings.Join(ss, sep.String()))
}

// Length returns the byte length of the value's textual or raw form.
func Length(v tagvalue.TagValue) tagvalue.TagValue {
	return tagvalue.Int(int64(len(v.RawBytes())))
}

// Subscript indexes into a composite value: byte sequences index by byte,
// everything else splits on whitespace and indexes the fields. Out-of-range
// access yields Empty.
func Subscript(v, idx tagvalue.TagValue) tagvalue.TagValue {
	i := int(idx.Int64())
	if i < 0 {
		return tagvalue.Empty()
	}
	if v.Kind() == tagvalue.KindBytes {
		b := v.RawBytes()
		if i >= len(b) {
			return tagvalue.Empty()
		}
		return tagvalue.Int(int64(b[i]))
	}
	fields := strings.Fields(v.String())
	if i >= len(fields) {
		return tagvalue.Empty()
	}
	return tagvalue.Str(fields[i])
}

// Substr returns the substring at offset with the given length, clamped to
// the value's bounds. A negative offset counts from the end; a negative
// length leaves that many bytes off the end.
func Substr(v, offset, length tagvalue.TagValue) tagvalue.TagValue {
	s := v.String()
	off := int(offset.Int64())
	if off < 0 {
		off += len(s)
	}
	if off < 0 || off >= len(s) {
		return tagvalue.Str("")
	}
	n := int(length.Int64())
	if n < 0 {
		n = len(s) - off + n
	}
	if n <= 0 {
		return tagvalue.Str("")
	}
	if off+n > len(s) {
		n = len(s) - off
	}
	return tagvalue.Str(s[off : off+n])
}

// SubstrFrom returns the substring from offset to the end of the value, the
// two-argument call form.
func SubstrFrom(v, offset tagvalue.TagValue) tagvalue.TagValue {
	s := v.String()
	off := int(offset.Int64())
	if off < 0 {
		off += len(s)
	}
	if off < 0 || off >= len(s) {
		return tagvalue.Str("")
	}
	return tagvalue.Str(s[off:])
}

// IndexOf returns the byte offset of needle in haystack, or -1.
func IndexOf(haystack, needle tagvalue.TagValue) tagvalue.TagValue {
	return tagvalue.Int(int64(strings.Index(haystack.String(), needle.String())))
}

// Uc upper-cases the value.
func Uc(v tagvalue.TagValue) tagvalue.TagValue {
	return tagvalue.Str(strings.ToUpper(v.String()))
}

// Lc lower-cases the value.
func Lc(v tagvalue.TagValue) tagvalue.TagValue {
	return tagvalue.Str(strings.ToLower(v.String()))
}

// Ord returns the numeric value of the first byte, or 0 for empty input.
func Ord(v tagvalue.TagValue) tagvalue.TagValue {
	b := v.RawBytes()
	if len(b) == 0 {
		return tagvalue.Int(0)
	}
	return tagvalue.Int(int64(b[0]))
}

// Chr returns the one-character string for a numeric code point.
func Chr(v tagvalue.TagValue) tagvalue.TagValue {
	return tagvalue.Str(string(rune(v.Int64())))
}

// Hex parses a hexadecimal string, with or without a 0x prefix.
func Hex(v tagvalue.TagValue) tagvalue.TagValue {
	s := strings.TrimPrefix(strings.TrimPrefix(v.String(), "0x"), "0X")
	n, err := strconv.ParseInt(s, 16, 64)
	if err != nil {
		return tagvalue.Int(0)
	}
	return tagvalue.Int(n)
}

// Oct parses an octal, hex (0x) or binary (0b) string per its prefix.
func Oct(v tagvalue.TagValue) tagvalue.TagValue {
	s := v.String()
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		// no prefix means octal
		n, err = strconv.ParseInt(s, 8, 64)
		if err != nil {
			return tagvalue.Int(0)
		}
	}
	return tagvalue.Int(n)
}

// Defined reports whether the value is present.
func Defined(v tagvalue.TagValue) bool {
	return !v.IsEmpty()
}
