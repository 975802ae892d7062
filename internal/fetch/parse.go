package fetch

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"flarewatch/internal/flaring"
	"flarewatch/pkg/errors"
)

// VolumesTableID is the id of the results table on the state volumes page.
const VolumesTableID = "largeTableOutput"

// ParseVolumesTable extracts the table with the given id from an HTML
// document. It returns nil when the page has no such table, which is how
// the publisher reports a month without data.
func ParseVolumesTable(r io.Reader, id, name string) (*flaring.RawTable, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnexpectedResponse, "cannot parse volumes page")
	}

	table := findByID(doc, atom.Table, id)
	if table == nil {
		return nil, nil
	}

	var header []string
	var rows [][]string
	walk(table, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Tr {
			return true
		}
		var ths, tds []string
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Th:
				ths = append(ths, headerText(c))
			case atom.Td:
				tds = append(tds, cellText(c))
			}
		}
		if header == nil && len(ths) > 0 {
			header = ths
		} else if len(tds) > 0 {
			rows = append(rows, tds)
		}
		return false
	})

	if header == nil {
		return nil, errors.New(errors.ErrCodeUnexpectedResponse, "volumes table has no header row").
			WithContext("table_id", id)
	}

	out := flaring.NewRawTable(name, header)
	for _, row := range rows {
		if err := out.Append(row); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeUnexpectedResponse, "volumes table row does not match header")
		}
	}
	return out, nil
}

func findByID(n *html.Node, a atom.Atom, id string) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c.Type == html.ElementNode && c.DataAtom == a {
			for _, attr := range c.Attr {
				if attr.Key == "id" && attr.Val == id {
					found = c
					return false
				}
			}
		}
		return true
	})
	return found
}

// walk visits n and its descendants depth first; fn returns false to skip
// a node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func text(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// headerText joins multi-line headers ("MCF\nFlared") with a space.
func headerText(n *html.Node) string {
	return strings.Join(strings.Fields(text(n)), " ")
}

func cellText(n *html.Node) string {
	return strings.TrimSpace(strings.ReplaceAll(text(n), "\u00a0", " "))
}
