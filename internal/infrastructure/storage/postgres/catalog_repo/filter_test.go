package catalog_repo

import (
	"testing"

	"taller/internal/domain/filter"
)

func newTestRepo() *BaseCatalogRepo[any] {
	return NewBaseCatalogRepo[any](nil, "test_table", []string{"id", "col1"}, func() any { return nil })
}

func TestApplyAdvancedFilters_Operators(t *testing.T) {
	repo := newTestRepo()

	tests := []struct {
		name     string
		item     filter.Item
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "Equal",
			item:     filter.Item{Field: "col1", Operator: filter.Equal, Value: "lubricant_import"},
			wantSQL:  "SELECT id, col1 FROM test_table WHERE col1 = $1",
			wantArgs: []any{"lubricant_import"},
		},
		{
			name:     "LessOrEqual",
			item:     filter.Item{Field: "col1", Operator: filter.LessOrEqual, Value: 5},
			wantSQL:  "SELECT id, col1 FROM test_table WHERE col1 <= $1",
			wantArgs: []any{5},
		},
		{
			name:     "GreaterOrEqual",
			item:     filter.Item{Field: "col1", Operator: filter.GreaterOrEqual, Value: 10},
			wantSQL:  "SELECT id, col1 FROM test_table WHERE col1 >= $1",
			wantArgs: []any{10},
		},
		{
			name:     "Contains",
			item:     filter.Item{Field: "col1", Operator: filter.Contains, Value: "shell"},
			wantSQL:  "SELECT id, col1 FROM test_table WHERE col1 ILIKE $1",
			wantArgs: []any{"%shell%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := repo.applyAdvancedFilters(repo.baseSelect(), []filter.Item{tt.item})
			if err != nil {
				t.Fatalf("applyAdvancedFilters failed: %v", err)
			}

			sql, args, err := q.ToSql()
			if err != nil {
				t.Fatalf("ToSql failed: %v", err)
			}

			if sql != tt.wantSQL {
				t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", tt.wantSQL, sql)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("Args count mismatch\nwant: %d\ngot:  %d", len(tt.wantArgs), len(args))
			}
			if args[0] != tt.wantArgs[0] {
				t.Errorf("Args mismatch\nwant: %v\ngot:  %v", tt.wantArgs[0], args[0])
			}
		})
	}
}

func TestApplyAdvancedFilters_RejectsUnknownColumn(t *testing.T) {
	repo := newTestRepo()

	_, err := repo.applyAdvancedFilters(repo.baseSelect(), []filter.Item{
		{Field: "password_hash", Operator: filter.Equal, Value: "x"},
	})
	if err == nil {
		t.Fatal("expected error for column outside the whitelist")
	}
}

func TestParseOrderBy(t *testing.T) {
	repo := newTestRepo()

	tests := []struct {
		orderBy string
		want    string
		wantErr bool
	}{
		{orderBy: "", want: "name ASC"},
		{orderBy: "col1", want: "col1 ASC"},
		{orderBy: "-col1", want: "col1 DESC"},
		{orderBy: "+code", want: "code ASC"},
		{orderBy: "drop_table", wantErr: true},
		{orderBy: "-", wantErr: true},
	}

	for _, tt := range tests {
		got, err := repo.parseOrderBy(tt.orderBy)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseOrderBy(%q): expected error", tt.orderBy)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseOrderBy(%q) failed: %v", tt.orderBy, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseOrderBy(%q)\nwant: %s\ngot:  %s", tt.orderBy, tt.want, got)
		}
	}
}
