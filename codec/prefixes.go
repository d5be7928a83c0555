package codec

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var turtlePrefixPattern = regexp.MustCompile(`(?im)^\s*@?prefix\s+([A-Za-z][\w.-]*)?:\s*<([^>]*)>`)

// turtlePrefixes finds @prefix and PREFIX directives in Turtle and TriG text.
func turtlePrefixes(content []byte) map[string]string {
	out := make(map[string]string)
	for _, m := range turtlePrefixPattern.FindAllSubmatch(content, -1) {
		out[string(m[1])] = string(m[2])
	}
	return out
}

// xmlPrefixes collects xmlns declarations from every element of an XML
// document. The first declaration of a prefix wins. Scanning stops quietly at
// the first syntax error; the decoder reports it.
func xmlPrefixes(content []byte) map[string]string {
	out := make(map[string]string)
	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.Strict = false
	for {
		tok, err := dec.RawToken()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		for _, attr := range se.Attr {
			var prefix string
			switch {
			case attr.Name.Space == "xmlns":
				prefix = attr.Name.Local
			case attr.Name.Space == "" && attr.Name.Local == "xmlns":
				prefix = ""
			default:
				continue
			}
			if _, seen := out[prefix]; !seen {
				out[prefix] = attr.Value
			}
		}
	}
}

// jsonldPrefixes returns the @context terms that map to namespace IRIs.
func jsonldPrefixes(content []byte) map[string]string {
	out := make(map[string]string)
	collect := func(ctx gjson.Result) {
		if !ctx.IsObject() {
			return
		}
		ctx.ForEach(func(key, value gjson.Result) bool {
			term := key.String()
			if strings.HasPrefix(term, "@") || value.Type != gjson.String {
				return true
			}
			if ns := value.String(); strings.HasSuffix(ns, "/") || strings.HasSuffix(ns, "#") {
				out[term] = ns
			}
			return true
		})
	}

	root := gjson.ParseBytes(content)
	visit := func(doc gjson.Result) {
		var ctx gjson.Result
		doc.ForEach(func(key, value gjson.Result) bool {
			if key.String() == "@context" {
				ctx = value
				return false
			}
			return true
		})
		if ctx.IsArray() {
			for _, c := range ctx.Array() {
				collect(c)
			}
			return
		}
		collect(ctx)
	}
	if root.IsArray() {
		for _, doc := range root.Array() {
			visit(doc)
		}
	} else {
		visit(root)
	}
	return out
}
