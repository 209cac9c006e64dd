package xmlrpc

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

const iso8601 = "20060102T15:04:05"

// marshalValue writes v as an XML-RPC <value> element. Supported types are
// nil, booleans, integers, floats, strings, time.Time, []byte, slices and
// string-keyed maps of the same.
func marshalValue(b *strings.Builder, v any) error {
	b.WriteString("<value>")
	defer b.WriteString("</value>")

	if v == nil {
		b.WriteString("<nil/>")
		return nil
	}
	switch t := v.(type) {
	case bool:
		if t {
			b.WriteString("<boolean>1</boolean>")
		} else {
			b.WriteString("<boolean>0</boolean>")
		}
		return nil
	case int:
		fmt.Fprintf(b, "<int>%d</int>", t)
		return nil
	case int32:
		fmt.Fprintf(b, "<int>%d</int>", t)
		return nil
	case int64:
		fmt.Fprintf(b, "<int>%d</int>", t)
		return nil
	case float32:
		fmt.Fprintf(b, "<double>%g</double>", t)
		return nil
	case float64:
		fmt.Fprintf(b, "<double>%g</double>", t)
		return nil
	case string:
		b.WriteString("<string>")
		if err := xml.EscapeText(b, []byte(t)); err != nil {
			return err
		}
		b.WriteString("</string>")
		return nil
	case time.Time:
		fmt.Fprintf(b, "<dateTime.iso8601>%s</dateTime.iso8601>", t.Format(iso8601))
		return nil
	case []byte:
		b.WriteString("<base64>")
		b.WriteString(base64.StdEncoding.EncodeToString(t))
		b.WriteString("</base64>")
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		b.WriteString("<array><data>")
		for i := 0; i < rv.Len(); i++ {
			if err := marshalValue(b, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		b.WriteString("</data></array>")
		return nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("xmlrpc: map keys must be strings, got %s", rv.Type())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		b.WriteString("<struct>")
		for _, k := range keys {
			b.WriteString("<member><name>")
			if err := xml.EscapeText(b, []byte(k)); err != nil {
				return err
			}
			b.WriteString("</name>")
			if err := marshalValue(b, rv.MapIndex(reflect.ValueOf(k)).Interface()); err != nil {
				return err
			}
			b.WriteString("</member>")
		}
		b.WriteString("</struct>")
		return nil
	}
	return fmt.Errorf("xmlrpc: unsupported type %T", v)
}

// wire representation used for decoding

type wireValue struct {
	Int      *string    `xml:"int"`
	I4       *string    `xml:"i4"`
	Boolean  *string    `xml:"boolean"`
	String   *string    `xml:"string"`
	Double   *string    `xml:"double"`
	DateTime *string    `xml:"dateTime.iso8601"`
	Base64   *string    `xml:"base64"`
	Nil      *struct{}  `xml:"nil"`
	Array    *wireArray `xml:"array"`
	Struct   *wireMap   `xml:"struct"`
	Raw      string     `xml:",chardata"`
}

type wireArray struct {
	Values []wireValue `xml:"data>value"`
}

type wireMap struct {
	Members []wireMember `xml:"member"`
}

type wireMember struct {
	Name  string    `xml:"name"`
	Value wireValue `xml:"value"`
}

func (w *wireValue) decode() (any, error) {
	switch {
	case w.Nil != nil:
		return nil, nil
	case w.Boolean != nil:
		return strings.TrimSpace(*w.Boolean) == "1", nil
	case w.Int != nil:
		return strconv.ParseInt(strings.TrimSpace(*w.Int), 10, 64)
	case w.I4 != nil:
		return strconv.ParseInt(strings.TrimSpace(*w.I4), 10, 64)
	case w.Double != nil:
		return strconv.ParseFloat(strings.TrimSpace(*w.Double), 64)
	case w.String != nil:
		return *w.String, nil
	case w.DateTime != nil:
		return time.Parse(iso8601, strings.TrimSpace(*w.DateTime))
	case w.Base64 != nil:
		return base64.StdEncoding.DecodeString(strings.TrimSpace(*w.Base64))
	case w.Array != nil:
		items := make([]any, len(w.Array.Values))
		for i := range w.Array.Values {
			v, err := w.Array.Values[i].decode()
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return items, nil
	case w.Struct != nil:
		m := make(map[string]any, len(w.Struct.Members))
		for i := range w.Struct.Members {
			v, err := w.Struct.Members[i].Value.decode()
			if err != nil {
				return nil, err
			}
			m[w.Struct.Members[i].Name] = v
		}
		return m, nil
	default:
		// An untyped value is a string.
		return w.Raw, nil
	}
}
