package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// WriteEDN writes v as EDN.
//
// v goes through encoding/json first so struct tags and custom marshalers
// (model.Node) decide the shape. Map keys that read as identifiers become
// kebab-case keywords (tabbedNodes -> :tabbed-nodes); anything else, such as
// numeric tab keys, stays a string key.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}

	var buf bytes.Buffer
	e := ednEncoder{pretty: pretty}
	e.value(&buf, x, 0)
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

type ednEncoder struct {
	pretty bool
}

func (e ednEncoder) value(buf *bytes.Buffer, v any, level int) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("nil")
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case json.Number:
		buf.WriteString(t.String())
	case string:
		buf.WriteString(strconv.Quote(t))
	case []any:
		e.seq(buf, '[', ']', len(t), level, func(i int) { e.value(buf, t[i], level+1) })
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e.seq(buf, '{', '}', len(keys), level, func(i int) {
			buf.WriteString(ednKey(keys[i]))
			buf.WriteByte(' ')
			e.value(buf, t[keys[i]], level+1)
		})
	default:
		buf.WriteString(strconv.Quote(fmt.Sprint(v)))
	}
}

func (e ednEncoder) seq(buf *bytes.Buffer, lb, rb byte, n, level int, item func(i int)) {
	buf.WriteByte(lb)
	for i := 0; i < n; i++ {
		switch {
		case e.pretty:
			buf.WriteByte('\n')
			buf.WriteString(strings.Repeat("  ", level+1))
		case i > 0:
			buf.WriteByte(' ')
		}
		item(i)
	}
	if e.pretty && n > 0 {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat("  ", level))
	}
	buf.WriteByte(rb)
}

func ednKey(k string) string {
	if k == "" || !unicode.IsLetter(rune(k[0])) {
		return strconv.Quote(k)
	}
	var sb strings.Builder
	sb.WriteByte(':')
	for i, r := range k {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteByte('-')
		default:
			return strconv.Quote(k)
		}
	}
	return sb.String()
}
