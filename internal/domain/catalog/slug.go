package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// SlugPrefix prefijo fijo de los slugs de categorías sincronizadas.
const SlugPrefix = "src-cat-"

// CategorySlug deriva el slug destino de un id de origen. Es la clave de idempotencia:
// el mismo id produce siempre el mismo slug entre ejecuciones.
func CategorySlug(sourceID int64) string {
	return fmt.Sprintf("%s%d", SlugPrefix, sourceID)
}

// SourceIDFromSlug recupera el id de origen de un slug generado por CategorySlug.
func SourceIDFromSlug(slug string) (int64, bool) {
	if !strings.HasPrefix(slug, SlugPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(slug, SlugPrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
