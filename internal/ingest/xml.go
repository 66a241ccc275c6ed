package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// ReadXML reads a document of the form
//
//	<payments>
//	  <payment><payee_first_name>Ada</payee_first_name>...</payment>
//	</payments>
//
// Each child element of a payment becomes one column.
func ReadXML(r io.Reader) ([]Row, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: failed to parse XML: %v", ErrMalformed, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: XML document is empty", ErrMalformed)
	}

	elements := root.SelectElements("payment")
	if root.Tag == "payment" {
		elements = []*etree.Element{root}
	}

	rows := make([]Row, 0, len(elements))
	for i, el := range elements {
		row := Row{Line: i + 1, Fields: make(map[string]string)}
		for _, field := range el.ChildElements() {
			row.Fields[strings.ToLower(field.Tag)] = field.Text()
		}
		rows = append(rows, row)
	}
	return rows, nil
}
