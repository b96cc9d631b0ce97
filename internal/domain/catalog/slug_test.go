package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/catalogo-sync/internal/domain/catalog"
)

func TestCategorySlug_Determinista(t *testing.T) {
	assert.Equal(t, "src-cat-42", catalog.CategorySlug(42))
	assert.Equal(t, catalog.CategorySlug(42), catalog.CategorySlug(42), "mismo id, mismo slug")
	assert.NotEqual(t, catalog.CategorySlug(42), catalog.CategorySlug(43))
}

func TestSourceIDFromSlug(t *testing.T) {
	id, ok := catalog.SourceIDFromSlug(catalog.CategorySlug(9001))
	assert.True(t, ok)
	assert.Equal(t, int64(9001), id)

	for _, slug := range []string{"", "otra-cosa", "src-cat-", "src-cat-abc", "src-cat-0", "src-cat--3"} {
		_, ok := catalog.SourceIDFromSlug(slug)
		assert.False(t, ok, slug)
	}
}
