package feed

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"

	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
)

// ReadXML lee un feed XML. Cada elemento <row> (o, si no hay ninguno, cada hijo del elemento raíz)
// es una fila; sus atributos y sus elementos hijos son columnas. Un hijo con atributo name usa ese
// nombre como columna (<col name="SKU">A-1</col>).
func ReadXML(r io.Reader) ([]entity.FeedRow, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return parseXML(data)
}

func parseXML(data []byte) ([]entity.FeedRow, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("feed: XML mal formado: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, ErrEmptyFeed
	}

	elems := root.FindElements("//row")
	if len(elems) == 0 {
		elems = root.ChildElements()
	}

	rows := make([]entity.FeedRow, 0, len(elems))
	for _, el := range elems {
		row := entity.FeedRow{}
		for _, attr := range el.Attr {
			row[attr.Key] = strings.TrimSpace(attr.Value)
		}
		for _, child := range el.ChildElements() {
			key := child.SelectAttrValue("name", child.Tag)
			if _, dup := row[key]; dup {
				continue
			}
			row[key] = strings.TrimSpace(child.Text())
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFeed
	}
	return rows, nil
}
