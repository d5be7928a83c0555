package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoJSONLD is returned when an HTML page carries no JSON-LD script blocks.
var ErrNoJSONLD = errors.New("no application/ld+json script in html document")

// ExtractJSONLD returns the JSON-LD embedded in an HTML page through
// <script type="application/ld+json"> elements. Several blocks are combined
// into one top-level JSON-LD array.
func ExtractJSONLD(page []byte) ([]byte, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	var islands []json.RawMessage
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script && isJSONLDScript(n) {
			var text strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					text.WriteString(c.Data)
				}
			}
			if block := strings.TrimSpace(text.String()); block != "" && json.Valid([]byte(block)) {
				islands = append(islands, json.RawMessage(block))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	switch len(islands) {
	case 0:
		return nil, ErrNoJSONLD
	case 1:
		return islands[0], nil
	default:
		return json.Marshal(islands)
	}
}

func isJSONLDScript(n *html.Node) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "type") {
			mt := strings.TrimSpace(strings.SplitN(a.Val, ";", 2)[0])
			return strings.EqualFold(mt, "application/ld+json")
		}
	}
	return false
}
