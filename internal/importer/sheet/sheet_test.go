package sheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "customer_name", NormalizeHeader("  Customer   Name "))
	assert.Equal(t, "sku", NormalizeHeader("\ufeffSKU"))
	assert.Equal(t, "order_ref", NormalizeHeader("order_ref"))
}

func TestReadCSV(t *testing.T) {
	src := "SKU, Name ,Unit\nA-1,Bolt,pcs\n,,\nA-2,Nut\n"

	table, err := Read("items.CSV", strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"sku", "name", "unit"}, table.Headers)
	require.Len(t, table.Rows, 2, "blank row is skipped")

	assert.Equal(t, 2, table.Rows[0].Line)
	assert.Equal(t, "Bolt", table.Rows[0].Get("name"))
	assert.Equal(t, 4, table.Rows[1].Line)
	assert.Equal(t, "", table.Rows[1].Get("unit"), "short record leaves the column empty")
}

func TestMissing(t *testing.T) {
	table, err := Read("orders.csv", strings.NewReader("customer_name,quantity\nAcme,3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"sku"}, table.Missing([]string{"customer_name", "sku", "quantity"}))
	assert.Empty(t, table.Missing([]string{"quantity"}))
}

func TestUnsupportedFormat(t *testing.T) {
	for _, name := range []string{"legacy.xls", "data.json", "noext"} {
		_, err := Read(name, strings.NewReader(""))
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), name)
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	headers := []string{"Name", "Contact Person"}
	require.NoError(t, Write(&buf, FormatXLSX, headers, [][]string{
		{"Acme", "Rina"},
		{"Globex", ""},
	}))

	table, err := Read("companies.xlsx", &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "contact_person"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Rina", table.Rows[0].Get("contact_person"))
	assert.Equal(t, "Globex", table.Rows[1].Get("name"))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, []string{"name"}, [][]string{{"Acme, Inc"}}))
	assert.Equal(t, "name\n\"Acme, Inc\"\n", buf.String())
}
