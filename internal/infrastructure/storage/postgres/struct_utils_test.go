package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"commercia/internal/core/entity"
	"commercia/internal/core/id"
	"commercia/internal/core/types"
)

type mockCatalog struct {
	entity.Catalog
	Price types.Money `db:"price" json:"price"`
	Note  string      `db:"-" json:"note"`
}

type mockDocument struct {
	entity.BaseDocument
	Number string `db:"number"`
}

func TestExtractDBColumns(t *testing.T) {
	t.Run("embedded catalog fields", func(t *testing.T) {
		cols := ExtractDBColumns[mockCatalog]()

		for _, expected := range []string{"id", "deletion_mark", "version", "attributes", "code", "name", "price"} {
			assert.Contains(t, cols, expected)
		}
		assert.NotContains(t, cols, "-")
	})

	t.Run("embedded document fields", func(t *testing.T) {
		cols := ExtractDBColumns[mockDocument]()

		for _, expected := range []string{"id", "version", "created_at", "updated_at", "number"} {
			assert.Contains(t, cols, expected)
		}
	})
}

func TestStructToMap(t *testing.T) {
	cat := mockCatalog{
		Catalog: entity.Catalog{
			BaseCatalog: entity.BaseCatalog{
				BaseEntity: entity.BaseEntity{
					ID:           id.New(),
					DeletionMark: true,
					Version:      5,
				},
			},
			Code: "PRD-00001",
			Name: "Widget",
		},
		Price: types.MustMoney("9.99"),
		Note:  "ignored",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "PRD-00001", m["code"])
	assert.Equal(t, "Widget", m["name"])
	assert.Equal(t, cat.Price, m["price"])
	assert.NotContains(t, m, "note")
}

func TestStructToMap_Document(t *testing.T) {
	now := time.Now().UTC()
	doc := mockDocument{
		BaseDocument: entity.BaseDocument{
			BaseEntity: entity.BaseEntity{ID: id.New(), Version: 1},
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		Number: "SL-2026-00001",
	}

	m := StructToMap(doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "SL-2026-00001", m["number"])
}
