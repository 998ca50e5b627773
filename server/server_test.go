package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/royalcat/quadindex/kv"
	"github.com/royalcat/quadindex/pointindex"
	"github.com/royalcat/quadindex/pointmodel"
	"github.com/royalcat/quadindex/quadtree"
)

func newTestServer(t testing.TB) *server {
	t.Helper()

	idx, err := pointindex.New(
		pointindex.WithBounds(quadtree.NewRect(0, 0, 50, 50)),
		pointindex.WithSearchRadius(10),
	)
	if err != nil {
		t.Fatal(err)
	}
	idx.Add(25, 25, pointmodel.Info{Name: "a", Category: "cafe"})
	idx.Add(30, 20, pointmodel.Info{Name: "b", Category: "museum"})
	idx.Add(-10, -10, pointmodel.Info{Name: "c", Category: "cafe"})

	indexes := kv.NewXMap[string, *pointindex.Index]()
	indexes.Set("test", idx)

	s, err := newServer(indexes)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func getRequestCtx(body string, values map[string]string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	for k, v := range values {
		ctx.SetUserValue(k, v)
	}
	return ctx
}

func TestQueryRectHandler(t *testing.T) {
	s := newTestServer(t)

	ctx := getRequestCtx("", map[string]string{
		"name": "test", "cx": "27", "cy": "22", "hw": "5", "hh": "5",
	})
	s.QueryRectHandler(ctx)

	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}
	var matches []pointindex.Match
	if err := json.Unmarshal(ctx.Response.Body(), &matches); err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected points a and b, got %v", matches)
	}
}

func TestQueryRadiusHandler(t *testing.T) {
	s := newTestServer(t)

	ctx := getRequestCtx("", map[string]string{
		"name": "test", "x": "25", "y": "25", "r": "5",
	})
	s.QueryRadiusHandler(ctx)

	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}
	var matches []pointindex.Match
	if err := json.Unmarshal(ctx.Response.Body(), &matches); err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Name != "a" {
		t.Fatalf("expected only a, got %v", matches)
	}
}

func TestNearestBatchHandler(t *testing.T) {
	s := newTestServer(t)

	ctx := getRequestCtx(`[[26,24],[-11,-9]]`, map[string]string{"name": "test"})
	s.NearestBatchHandler(ctx)

	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}
	var matches []pointindex.Match
	if err := json.Unmarshal(ctx.Response.Body(), &matches); err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 || matches[0].Name != "a" || matches[1].Name != "c" {
		t.Fatalf("expected a and c, got %v", matches)
	}
}

// Back-to-back batches of shrinking size reuse the pooled request slice; a
// later response must never carry entries left over from an earlier, larger
// batch.
func TestNearestBatchHandlerReusedBuffer(t *testing.T) {
	s := newTestServer(t)

	ctx := getRequestCtx(`[[26,24],[26,24],[26,24],[-11,-9]]`, map[string]string{"name": "test"})
	s.NearestBatchHandler(ctx)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}

	ctx = getRequestCtx(`[[-11,-9]]`, map[string]string{"name": "test"})
	s.NearestBatchHandler(ctx)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}
	var matches []pointindex.Match
	if err := json.Unmarshal(ctx.Response.Body(), &matches); err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Name != "c" {
		t.Fatalf("expected only c, got %v", matches)
	}
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	indexes := kv.NewXMap[string, *pointindex.Index]()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "127.0.0.1:0", indexes)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down after context cancel")
	}
}

func TestCategoriesHandler(t *testing.T) {
	s := newTestServer(t)

	ctx := getRequestCtx("", map[string]string{"name": "test"})
	s.CategoriesHandler(ctx)

	var categories []string
	if err := json.Unmarshal(ctx.Response.Body(), &categories); err != nil {
		t.Fatal(err)
	}
	if len(categories) != 2 || categories[0] != "cafe" || categories[1] != "museum" {
		t.Fatalf("expected sorted categories, got %v", categories)
	}
}

func TestUnknownIndex(t *testing.T) {
	s := newTestServer(t)

	ctx := getRequestCtx("", map[string]string{"name": "nope"})
	s.CategoriesHandler(ctx)

	if ctx.Response.StatusCode() != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", ctx.Response.StatusCode())
	}
}

func TestBadCoordinate(t *testing.T) {
	s := newTestServer(t)

	ctx := getRequestCtx("", map[string]string{
		"name": "test", "x": "not-a-number", "y": "0", "r": "1",
	})
	s.QueryRadiusHandler(ctx)

	if ctx.Response.StatusCode() != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", ctx.Response.StatusCode())
	}
}

func BenchmarkHandlers(b *testing.B) {
	s := newTestServer(b)

	b.Run("NearestBatchHandler-10", func(b *testing.B) {
		body := generatePoints(10)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			ctx := getRequestCtx(body, map[string]string{"name": "test"})
			s.NearestBatchHandler(ctx)
		}
	})

	b.Run("NearestBatchHandler-1000", func(b *testing.B) {
		body := generatePoints(1000)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			ctx := getRequestCtx(body, map[string]string{"name": "test"})
			s.NearestBatchHandler(ctx)
		}
	})

	b.Run("QueryRectHandler", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			ctx := getRequestCtx("", map[string]string{
				"name": "test", "cx": "25", "cy": "25", "hw": "10", "hh": "10",
			})
			s.QueryRectHandler(ctx)
		}
	})
}

func generatePoints(n int) string {
	points := make([]string, n)
	for i := range points {
		points[i] = fmt.Sprintf("[%d.0, %d.0]", i%50-25, (i*7)%50-25)
	}
	return "[" + strings.Join(points, ",") + "]"
}
