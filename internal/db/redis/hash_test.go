package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/vecfuse/internal/db"
)

func TestHSetMulti(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(3)),
			mock.ErrorResult(errors.New("OOM")),
		})

	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "product:p1", Fields: map[string]string{"name": "a"}},
		{Key: "product:p2", Fields: map[string]string{"name": "b"}},
	})
	if err == nil {
		t.Fatal("expected error from second item")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestHSetMulti_EmptySkipsClient(t *testing.T) {
	s := &Store{}
	if err := s.HSetMulti(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHGetAll(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "product:p1")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"brand": mock.RedisString("Acme"),
			"price": mock.RedisString("49.5"),
		})))

	m, err := s.HGetAll(context.Background(), "product:p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["brand"] != "Acme" || m["price"] != "49.5" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestHGetAllMulti_MissingKeyIsEmptyMap(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{"name": mock.RedisString("a")})),
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{})),
		})

	out, err := s.HGetAllMulti(context.Background(), []string{"product:p1", "product:gone"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if out[0]["name"] != "a" {
		t.Errorf("unexpected first record: %v", out[0])
	}
	if len(out[1]) != 0 {
		t.Errorf("expected empty map for missing key, got %v", out[1])
	}
}

func TestHGetAllMulti_EmptySkipsClient(t *testing.T) {
	s := &Store{}
	out, err := s.HGetAllMulti(context.Background(), nil)
	if err != nil || out != nil {
		t.Fatalf("expected nil, nil; got %v, %v", out, err)
	}
}

func TestDel_ReportsPresence(t *testing.T) {
	s, c := newMockStore(t)
	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("DEL", "product:p1")).Return(mock.Result(mock.RedisInt64(1))),
		c.EXPECT().Do(gomock.Any(), mock.Match("DEL", "product:p1")).Return(mock.Result(mock.RedisInt64(0))),
		c.EXPECT().Do(gomock.Any(), mock.Match("DEL", "product:p1")).Return(mock.ErrorResult(context.DeadlineExceeded)),
	)

	ctx := context.Background()
	if existed, err := s.Del(ctx, "product:p1"); err != nil || !existed {
		t.Fatalf("first del = %v, %v; want true, nil", existed, err)
	}
	if existed, err := s.Del(ctx, "product:p1"); err != nil || existed {
		t.Fatalf("second del = %v, %v; want false, nil", existed, err)
	}
	_, err := s.Del(ctx, "product:p1")
	if !isDBError(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped DEL error, got %v", err)
	}
}

func TestHSetMulti_PipelinesEveryField(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		DoMulti(gomock.Any(), mock.Match("HSET", "product:p1", "name", "Trail Runner")).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisInt64(1))})

	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "product:p1", Fields: map[string]string{"name": "Trail Runner"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGet(t *testing.T) {
	s, c := newMockStore(t)
	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("GET", "emb:abc")).Return(mock.Result(mock.RedisBlobString("blob"))),
		c.EXPECT().Do(gomock.Any(), mock.Match("GET", "emb:missing")).Return(mock.Result(mock.RedisNil())),
	)

	data, err := s.Get(context.Background(), "emb:abc")
	if err != nil || string(data) != "blob" {
		t.Fatalf("got %q, %v", data, err)
	}
	if _, err := s.Get(context.Background(), "emb:missing"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestSetWithTTL(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "emb:abc", "blob", "EX", "3600")).
		Return(mock.Result(mock.RedisString("OK")))

	if err := s.SetWithTTL(context.Background(), "emb:abc", []byte("blob"), time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIncrByAndExpire(t *testing.T) {
	s, c := newMockStore(t)
	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("INCRBY", "vecfuse:budget:openai:daily:2026-10-19", "42")).
			Return(mock.Result(mock.RedisInt64(42))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("EXPIRE", "vecfuse:budget:openai:daily:2026-10-19", "172800", "NX")).
			Return(mock.Result(mock.RedisInt64(1))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("EXPIRE", "counter", "60")).
			Return(mock.Result(mock.RedisInt64(1))),
	)

	ctx := context.Background()
	if err := s.IncrBy(ctx, "vecfuse:budget:openai:daily:2026-10-19", 42); err != nil {
		t.Fatalf("incrby: %v", err)
	}
	if err := s.Expire(ctx, "vecfuse:budget:openai:daily:2026-10-19", 48*time.Hour, true); err != nil {
		t.Fatalf("expire nx: %v", err)
	}
	if err := s.Expire(ctx, "counter", time.Minute, false); err != nil {
		t.Fatalf("expire: %v", err)
	}
}

func TestIncrBy_WrapsError(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("INCRBY", "counter", "1")).
		Return(mock.ErrorResult(errors.New("WRONGTYPE")))

	err := s.IncrBy(context.Background(), "counter", 1)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpIncrBy {
		t.Fatalf("expected INCRBY db.Error, got %v", err)
	}
}
