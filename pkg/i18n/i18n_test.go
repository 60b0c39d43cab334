package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslatePicksLanguage(t *testing.T) {
	assert.Equal(t, "Please select a company", Translate("en-US", "order.company_required", nil))
	assert.Equal(t, "Silakan pilih perusahaan", Translate("id-ID,id;q=0.9", "order.company_required", nil))
}

func TestTranslateTemplateData(t *testing.T) {
	msg := Translate("en", "import.missing_columns", map[string]interface{}{"Columns": "sku, unit"})
	assert.Equal(t, "Missing required columns: sku, unit", msg)
}

func TestTranslateUnknownID(t *testing.T) {
	assert.Equal(t, "no.such.message", Translate("en", "no.such.message", nil))
}
