package redis

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/vecfuse/internal/db"
)

func productIndex(t *testing.T) *db.IndexDefinition {
	t.Helper()
	def, err := db.NewIndex("vecfuse:products").
		Prefix("product:").
		WeightedText("name", 2).
		Text("description").
		Text("brand").
		Tag("category").
		SortableNumeric("price").
		VectorHNSW("vector", 4, db.DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return def
}

func TestBuildCreateArgs_ProductIndex(t *testing.T) {
	args, err := buildCreateArgs(productIndex(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"vecfuse:products", "ON", "HASH", "PREFIX", "1", "product:", "SCHEMA",
		"name", "TEXT", "WEIGHT", "2",
		"description", "TEXT",
		"brand", "TEXT",
		"category", "TAG",
		"price", "NUMERIC", "SORTABLE",
		"vector", "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32", "DIM", "4", "DISTANCE_METRIC", "COSINE", "M", "16", "EF_CONSTRUCTION", "200",
	}
	if !slices.Equal(args, want) {
		t.Errorf("args mismatch\n got: %v\nwant: %v", args, want)
	}
}

func TestBuildFieldArgs_Errors(t *testing.T) {
	cases := []db.IndexField{
		{Name: "", Type: db.IndexFieldTag},
		{Name: "f", Type: db.IndexFieldType(99)},
		{Name: "f", Type: db.IndexFieldVector},
	}
	for _, f := range cases {
		if _, err := buildFieldArgs(&f); err == nil {
			t.Errorf("expected error for %+v", f)
		}
	}
}

func TestCreateIndex(t *testing.T) {
	isCreate := mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.CREATE" })

	tests := []struct {
		name   string
		wantIs error
		wantDB bool
	}{
		{name: "created"},
		{name: "already exists", wantIs: db.ErrIndexExists},
		{name: "transport failure", wantDB: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, c := newMockStore(t)
			call := c.EXPECT().Do(gomock.Any(), isCreate)
			switch {
			case tc.wantIs != nil:
				call.Return(mock.Result(mock.RedisError("Index already exists")))
			case tc.wantDB:
				call.Return(mock.ErrorResult(context.DeadlineExceeded))
			default:
				call.Return(mock.Result(mock.RedisString("OK")))
			}

			err := s.CreateIndex(context.Background(), productIndex(t))
			switch {
			case tc.wantIs != nil:
				if !errors.Is(err, tc.wantIs) {
					t.Errorf("expected %v, got %v", tc.wantIs, err)
				}
			case tc.wantDB:
				if !isDBError(err) {
					t.Errorf("expected db.Error, got %v", err)
				}
			default:
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestDropIndex(t *testing.T) {
	s, c := newMockStore(t)
	dropKeepingDocs := mock.Match("FT.DROPINDEX", "vecfuse:products")
	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), dropKeepingDocs).Return(mock.Result(mock.RedisString("OK"))),
		c.EXPECT().Do(gomock.Any(), dropKeepingDocs).Return(mock.Result(mock.RedisError("Unknown Index name"))),
		c.EXPECT().Do(gomock.Any(), dropKeepingDocs).Return(mock.ErrorResult(context.DeadlineExceeded)),
	)

	ctx := context.Background()
	if err := s.DropIndex(ctx, "vecfuse:products"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.DropIndex(ctx, "vecfuse:products"); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
	if err := s.DropIndex(ctx, "vecfuse:products"); !isDBError(err) {
		t.Errorf("expected db.Error, got %v", err)
	}
}

func TestIndexExists(t *testing.T) {
	s, c := newMockStore(t)
	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("FT.INFO", "vecfuse:products")).
			Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("vecfuse:products")))),
		c.EXPECT().Do(gomock.Any(), mock.Match("FT.INFO", "vecfuse:products")).
			Return(mock.Result(mock.RedisError("Unknown index name"))),
	)

	exists, err := s.IndexExists(context.Background(), "vecfuse:products")
	if err != nil || !exists {
		t.Fatalf("expected existing index, got %v, %v", exists, err)
	}
	exists, err = s.IndexExists(context.Background(), "vecfuse:products")
	if err != nil || exists {
		t.Fatalf("expected missing index, got %v, %v", exists, err)
	}
}
