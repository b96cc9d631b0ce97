// Package feed lectores de feeds de precios (CSV y XML) a filas crudas entity.FeedRow.
package feed

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
)

// MaxFeedSize tope de tamaño de un feed leído en memoria.
const MaxFeedSize = 32 << 20

var (
	ErrEmptyFeed     = &domain.ValidationError{Field: "feed", Reason: "archivo vacío"}
	ErrMissingHeader = &domain.ValidationError{Field: "feed", Reason: "falta la fila de encabezados"}
	ErrFeedTooLarge  = &domain.ValidationError{Field: "feed", Reason: "archivo demasiado grande"}
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read detecta el formato (XML si el contenido empieza con '<' o el nombre termina en .xml) y lee el feed.
func Read(name string, r io.Reader) ([]entity.FeedRow, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if strings.HasSuffix(strings.ToLower(name), ".xml") || bytes.HasPrefix(trimmed, []byte("<")) {
		return parseXML(data)
	}
	return parseCSV(data)
}

// ReadCSV lee un feed CSV: quita el BOM, decodifica Windows-1252 si el contenido no es UTF-8,
// detecta el separador (coma, punto y coma o tabulador) y renombra encabezados repetidos.
func ReadCSV(r io.Reader) ([]entity.FeedRow, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return parseCSV(data)
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFeedSize+1))
	if err != nil {
		return nil, fmt.Errorf("feed: leer archivo: %w", err)
	}
	if len(data) > MaxFeedSize {
		return nil, ErrFeedTooLarge
	}
	return data, nil
}

func parseCSV(data []byte) ([]entity.FeedRow, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFeed
	}
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("feed: decodificar Windows-1252: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("feed: leer encabezados: %w", err)
	}
	headers := uniqueHeaders(header)

	var rows []entity.FeedRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("feed: leer fila %d: %w", len(rows)+2, err)
		}
		if blankRecord(record) {
			continue
		}
		row := make(entity.FeedRow, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sniffDelimiter elige el separador más frecuente en la primera línea, fuera de comillas.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	counts := map[rune]int{}
	inQuotes := false
	for _, r := range string(line) {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case !inQuotes && (r == ',' || r == ';' || r == '\t'):
			counts[r]++
		}
	}
	best := ','
	for _, d := range []rune{';', '\t'} {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// uniqueHeaders limpia encabezados: vacíos → "column N"; repetidos → "Price 2", "Price 3".
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column %d", i+1)
		}
		key := strings.ToLower(h)
		seen[key]++
		if n := seen[key]; n > 1 {
			h = fmt.Sprintf("%s %d", h, n)
		}
		out[i] = h
	}
	return out
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
