package extract

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"sort"

	"github.com/goccy/go-json"
	"github.com/zeebo/blake3"
)

// ContentHash computes the deterministic "blake3:<hex>" digest over a
// canonicalized subset of an extract map. When over is empty, every key in
// extracted is hashed in ascending sorted order; otherwise exactly the named
// keys are hashed, in the order given, including ones absent from extracted.
//
// Per name: the name bytes, a 0x00 separator, a presence byte (0x01 present,
// 0x02 absent), the length-prefixed canonical JSON encoding of the value
// when present, and a 0xff terminator.
func ContentHash(extracted map[string]any, over []string) string {
	names := over
	if len(names) == 0 {
		names = make([]string, 0, len(extracted))
		for k := range extracted {
			names = append(names, k)
		}
		sort.Strings(names)
	}

	h := blake3.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0x00})
		v, present := extracted[name]
		if present {
			h.Write([]byte{0x01})
			canon := canonicalJSON(v)
			var lenBuf [8]byte
			binary.BigEndian.PutUint64(lenBuf[:], uint64(len(canon)))
			h.Write(lenBuf[:])
			h.Write(canon)
		} else {
			h.Write([]byte{0x02})
		}
		h.Write([]byte{0xff})
	}
	return "blake3:" + hex.EncodeToString(h.Sum(nil))
}

// canonicalJSON renders v with object keys sorted recursively at every
// level and array order preserved. goccy/go-json does not guarantee
// map-key ordering, so the tree is walked and re-encoded explicitly rather
// than marshalled directly.
func canonicalJSON(v any) []byte {
	var buf bytes.Buffer
	canonicalEncode(&buf, v)
	return buf.Bytes()
}

func canonicalEncode(buf *bytes.Buffer, v any) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeScalar(buf, k)
			buf.WriteByte(':')
			canonicalEncode(buf, t[k])
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			canonicalEncode(buf, e)
		}
		buf.WriteByte(']')
	case []string:
		buf.WriteByte('[')
		for i, s := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeScalar(buf, s)
		}
		buf.WriteByte(']')
	default:
		encodeScalar(buf, t)
	}
}

func encodeScalar(buf *bytes.Buffer, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		buf.WriteString("null")
		return
	}
	buf.Write(b)
}
