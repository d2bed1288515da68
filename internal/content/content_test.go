package content

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ecoaceite/internal/errors"
)

func TestLoad_EmbeddedPages(t *testing.T) {
	store, err := Load()
	require.NoError(t, err)

	want := []string{"inicio", "quienes-somos", "reciclaje", "voluntariado", "colegios", "hosteleria", "comunidades", "contacto"}
	list := store.List()
	require.Len(t, list, len(want))
	for i, slug := range want {
		assert.Equal(t, slug, list[i].Slug)
	}

	page, err := store.Get("reciclaje")
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "<h2")
	assert.NotEmpty(t, page.Title)
}

func TestGet_Unknown(t *testing.T) {
	store, err := Load()
	require.NoError(t, err)

	_, err = store.Get("no-existe")
	assert.ErrorIs(t, err, apperrors.ErrPageNotFound)
}

func TestLoadFS(t *testing.T) {
	t.Run("raw_html_is_escaped", func(t *testing.T) {
		fsys := fstest.MapFS{
			"p/a.yaml": {Data: []byte("title: A\nbody: |\n  hola <script>alert(1)</script>\n  linea dos\n")},
		}
		store, err := LoadFS(fsys, "p")
		require.NoError(t, err)

		page, err := store.Get("a")
		require.NoError(t, err)
		assert.NotContains(t, page.HTML, "<script>")
		assert.Contains(t, page.HTML, "<br")
	})

	t.Run("duplicate_slug", func(t *testing.T) {
		fsys := fstest.MapFS{
			"p/a.yaml": {Data: []byte("slug: x\ntitle: A\n")},
			"p/b.yaml": {Data: []byte("slug: x\ntitle: B\n")},
		}
		_, err := LoadFS(fsys, "p")
		assert.Error(t, err)
	})

	t.Run("missing_title", func(t *testing.T) {
		fsys := fstest.MapFS{"p/a.yaml": {Data: []byte("summary: nada\n")}}
		_, err := LoadFS(fsys, "p")
		assert.Error(t, err)
	})

	t.Run("menu_order", func(t *testing.T) {
		fsys := fstest.MapFS{
			"p/a.yaml": {Data: []byte("title: A\norder: 2\n")},
			"p/b.yaml": {Data: []byte("title: B\norder: 1\n")},
		}
		store, err := LoadFS(fsys, "p")
		require.NoError(t, err)
		assert.Equal(t, "b", store.List()[0].Slug)
	})
}
