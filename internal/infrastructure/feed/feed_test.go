package feed_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/feed"
)

// ──────────────────────────────────────────────────────────────────────────────
// CSV
// ──────────────────────────────────────────────────────────────────────────────

func TestReadCSV_BOMYSeparadorPuntoYComa(t *testing.T) {
	data := "\xEF\xBB\xBFPart No;Price;Stock\nAB-12;10,50;3\n;;\n\"CD;34\";7;\n"

	rows, err := feed.ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2, "las filas vacías se omiten")
	assert.Equal(t, "AB-12", rows[0]["Part No"], "el BOM no contamina el primer encabezado")
	assert.Equal(t, "10,50", rows[0]["Price"])
	assert.Equal(t, "CD;34", rows[1]["Part No"])
	assert.Equal(t, "", rows[1]["Stock"])
}

func TestReadCSV_Tabulador(t *testing.T) {
	rows, err := feed.ReadCSV(strings.NewReader("SKU\tSEK\nA\t99\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "99", rows[0]["SEK"])
}

func TestReadCSV_Windows1252(t *testing.T) {
	// "Descripción" y "£" en Windows-1252 (0xF3, 0xA3): no es UTF-8 válido.
	data := []byte("SKU,Descripci\xF3n,Price\nA,Filtro,\xA312.40\n")

	rows, err := feed.ReadCSV(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Filtro", rows[0]["Descripción"])
	assert.Equal(t, "£12.40", rows[0]["Price"])
}

func TestReadCSV_EncabezadosRepetidosYVacios(t *testing.T) {
	rows, err := feed.ReadCSV(strings.NewReader("SKU,Price,price,\nA,1,2,x\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0]["Price"])
	assert.Equal(t, "2", rows[0]["price 2"])
	assert.Equal(t, "x", rows[0]["column 4"])
}

func TestReadCSV_Vacio(t *testing.T) {
	_, err := feed.ReadCSV(strings.NewReader("  \n"))
	assert.ErrorIs(t, err, feed.ErrEmptyFeed)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// XML
// ──────────────────────────────────────────────────────────────────────────────

func TestReadXML_FilasConHijosYAtributos(t *testing.T) {
	data := `<?xml version="1.0" encoding="UTF-8"?>
<feed>
  <items>
    <row sku="A-1"><Price>12.40</Price><Stock>3</Stock></row>
    <row><col name="Part No">B-2</col><col name="SEK">199</col></row>
  </items>
</feed>`

	rows, err := feed.ReadXML(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A-1", rows[0]["sku"])
	assert.Equal(t, "12.40", rows[0]["Price"])
	assert.Equal(t, "B-2", rows[1]["Part No"])
	assert.Equal(t, "199", rows[1]["SEK"])
}

func TestReadXML_HijosDeLaRaiz(t *testing.T) {
	rows, err := feed.ReadXML(strings.NewReader(`<products><product><SKU>X</SKU><RRP>5</RRP></product></products>`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "X", rows[0]["SKU"])
}

func TestRead_DetectaFormato(t *testing.T) {
	rows, err := feed.Read("precios.txt", strings.NewReader(`<feed><row SKU="Z" Price="1"/></feed>`))
	require.NoError(t, err)
	assert.Equal(t, "Z", rows[0]["SKU"])

	rows, err = feed.Read("precios.csv", strings.NewReader("SKU,Price\nY,2\n"))
	require.NoError(t, err)
	assert.Equal(t, "Y", rows[0]["SKU"])

	_, err = feed.Read("vacio.xml", strings.NewReader("<feed></feed>"))
	assert.ErrorIs(t, err, feed.ErrEmptyFeed)
}
