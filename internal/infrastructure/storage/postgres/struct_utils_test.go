package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taller/internal/core/entity"
	"taller/internal/core/id"
)

type mockCatalog struct {
	entity.Catalog
	Tier  string  `db:"tier" json:"tier"`
	Phone *string `db:"phone" json:"phone,omitempty"`
}

func TestExtractDBColumns_EmbeddedFields(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expectedCols := []string{
		"id", "deletion_mark", "version", "attributes", "code", "name", "tier", "phone",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
}

func TestStructToMap_EmbeddedFields(t *testing.T) {
	phone := "021-555-000"
	cat := mockCatalog{
		Catalog: entity.Catalog{
			BaseCatalog: entity.BaseCatalog{
				BaseEntity: entity.BaseEntity{
					ID:           id.New(),
					DeletionMark: true,
					Version:      5,
				},
			},
			Code: "CL-00001",
			Name: "Taller Norte",
		},
		Tier:  "wholesale",
		Phone: &phone,
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "CL-00001", m["code"])
	assert.Equal(t, "Taller Norte", m["name"])
	assert.Equal(t, "wholesale", m["tier"])
	assert.Equal(t, &phone, m["phone"])
}
