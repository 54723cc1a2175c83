package schema

import (
	"strconv"
	"strings"
)

// Canonical returns the parsing canonical form of the schema.
// Two schemas with the same canonical form read and write the same bytes.
// Named types after their first occurrence are written as their full name, so recursive schemas terminate.
func (s *Schema) Canonical() string {
	var sb strings.Builder
	writeCanonical(&sb, s, make(map[string]bool))
	return sb.String()
}

func writeCanonical(sb *strings.Builder, s *Schema, seen map[string]bool) {
	if s.typ.IsNamed() {
		full := s.name.FullName()
		if seen[full] {
			sb.WriteString(strconv.Quote(full))
			return
		}
		seen[full] = true
	}

	switch s.typ {
	case Null, Boolean, Int, Long, Float, Double, Bytes, String:
		sb.WriteString(strconv.Quote(s.typ.String()))

	case Record:
		sb.WriteString(`{"name":`)
		sb.WriteString(strconv.Quote(s.name.FullName()))
		sb.WriteString(`,"type":"record","fields":[`)
		for i, f := range s.fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(`{"name":`)
			sb.WriteString(strconv.Quote(f.name))
			sb.WriteString(`,"type":`)
			writeCanonical(sb, f.schema, seen)
			sb.WriteByte('}')
		}
		sb.WriteString(`]}`)

	case Enum:
		sb.WriteString(`{"name":`)
		sb.WriteString(strconv.Quote(s.name.FullName()))
		sb.WriteString(`,"type":"enum","symbols":[`)
		for i, sym := range s.symbols {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(sym))
		}
		sb.WriteString(`]}`)

	case Fixed:
		sb.WriteString(`{"name":`)
		sb.WriteString(strconv.Quote(s.name.FullName()))
		sb.WriteString(`,"type":"fixed","size":`)
		sb.WriteString(strconv.Itoa(s.size))
		sb.WriteByte('}')

	case Array:
		sb.WriteString(`{"type":"array","items":`)
		writeCanonical(sb, s.items, seen)
		sb.WriteByte('}')

	case Map:
		sb.WriteString(`{"type":"map","values":`)
		writeCanonical(sb, s.values, seen)
		sb.WriteByte('}')

	case Union:
		sb.WriteByte('[')
		for i, b := range s.branches {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonical(sb, b, seen)
		}
		sb.WriteByte(']')
	}
}

// EmptyFingerprint is the Rabin fingerprint of no bytes.
const EmptyFingerprint uint64 = 0xc15d213aa4d7a795

var rabinTable = func() (table [256]uint64) {
	for i := range table {
		fp := uint64(i)
		for j := 0; j < 8; j++ {
			fp = (fp >> 1) ^ (EmptyFingerprint & -(fp & 1))
		}
		table[i] = fp
	}
	return
}()

// Rabin returns the 64-bit Rabin fingerprint (CRC-64-AVRO) of buff.
func Rabin(buff []byte) uint64 {
	fp := EmptyFingerprint
	for _, b := range buff {
		fp = (fp >> 8) ^ rabinTable[byte(fp)^b]
	}
	return fp
}

// Fingerprint64 returns the Rabin fingerprint of the schema's canonical form.
func (s *Schema) Fingerprint64() uint64 {
	return Rabin([]byte(s.Canonical()))
}
