package server

import (
	"context"
	"encoding/json"
	"fmt"
	stdlog "log"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fasthttp/router"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/royalcat/quadindex/kv"
	"github.com/royalcat/quadindex/pointindex"
	"github.com/royalcat/quadindex/quadtree"
)

const MaxBodySize = 32 * 1000 * 1000 // 32MB

var meter = otel.Meter("github.com/royalcat/quadindex/server")

// Registry maps index names to loaded indexes. The server never mutates it.
type Registry = kv.KVS[string, *pointindex.Index]

func Run(ctx context.Context, address string, indexes Registry) error {
	if err := setupTelemetry(ctx); err != nil {
		return fmt.Errorf("failed to initialize otel metrics: %w", err)
	}

	log := slog.Default()

	s, err := newServer(indexes)
	if err != nil {
		return err
	}
	indexes.Range(func(name string, idx *pointindex.Index) bool {
		log.Info("Serving index", "name", name, "points", idx.Len())
		return true
	})

	r := router.New()
	r.GET("/index/{name}/rect/{cx}/{cy}/{hw}/{hh}", s.QueryRectHandler)
	r.GET("/index/{name}/radius/{x}/{y}/{r}", s.QueryRadiusHandler)
	r.POST("/index/{name}/nearest", s.NearestBatchHandler)
	r.GET("/index/{name}/categories", s.CategoriesHandler)
	r.Handle(http.MethodGet, "/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))

	server := &fasthttp.Server{
		ReadTimeout:        time.Second,
		MaxRequestBodySize: MaxBodySize,
		Handler:            r.Handler,
	}

	go func() {
		log.Info("Server listening", "address", address)
		// fasthttp returns nil after ShutdownWithContext, there is no
		// ErrServerClosed sentinel to filter out
		if err := server.ListenAndServe(address); err != nil {
			stdlog.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	slog.Info("Server started")

	// wait cancel
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return server.ShutdownWithContext(shutdownCtx)
}

type server struct {
	indexes Registry

	metricRectCallCount    metric.Int64Counter
	metricRadiusCallCount  metric.Int64Counter
	metricNearestCallCount metric.Int64Counter
	metricPointsReturned   metric.Int64Counter
}

func newServer(indexes Registry) (*server, error) {
	metricRectCallCount, err := meter.Int64Counter("http_query_rect_call_total")
	if err != nil {
		return nil, err
	}
	metricRadiusCallCount, err := meter.Int64Counter("http_query_radius_call_total")
	if err != nil {
		return nil, err
	}
	metricNearestCallCount, err := meter.Int64Counter("http_nearest_call_total")
	if err != nil {
		return nil, err
	}
	metricPointsReturned, err := meter.Int64Counter("points_returned_total")
	if err != nil {
		return nil, err
	}

	return &server{
		indexes: indexes,

		metricRectCallCount:    metricRectCallCount,
		metricRadiusCallCount:  metricRadiusCallCount,
		metricNearestCallCount: metricNearestCallCount,
		metricPointsReturned:   metricPointsReturned,
	}, nil
}

// The pool holds slice pointers so capacity grown by decoding survives the
// round trip back into the pool.
var reqPointsPool = sync.Pool{
	New: func() any {
		s := make([]orb.Point, 0, 16)
		return &s
	},
}

func (s *server) index(ctx *fasthttp.RequestCtx) (*pointindex.Index, bool) {
	name := ctx.UserValue("name").(string)
	idx, ok := s.indexes.Get(name)
	if !ok {
		ctx.Response.SetStatusCode(http.StatusNotFound)
		ctx.Response.SetBodyString("unknown index: " + name)
	}
	return idx, ok
}

func pathFloat(ctx *fasthttp.RequestCtx, key string) (float64, bool) {
	v, err := strconv.ParseFloat(ctx.UserValue(key).(string), 64)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		ctx.Response.SetBodyString("bad value for " + key)
		return 0, false
	}
	return v, true
}

func (s *server) QueryRectHandler(ctx *fasthttp.RequestCtx) {
	s.metricRectCallCount.Add(ctx, 1)

	idx, ok := s.index(ctx)
	if !ok {
		return
	}

	cx, ok := pathFloat(ctx, "cx")
	if !ok {
		return
	}
	cy, ok := pathFloat(ctx, "cy")
	if !ok {
		return
	}
	hw, ok := pathFloat(ctx, "hw")
	if !ok {
		return
	}
	hh, ok := pathFloat(ctx, "hh")
	if !ok {
		return
	}

	matches := idx.QueryRect(quadtree.NewRect(cx, cy, hw, hh))
	s.metricPointsReturned.Add(ctx, int64(len(matches)))

	s.writeJSON(ctx, matches)
}

func (s *server) QueryRadiusHandler(ctx *fasthttp.RequestCtx) {
	s.metricRadiusCallCount.Add(ctx, 1)

	idx, ok := s.index(ctx)
	if !ok {
		return
	}

	x, ok := pathFloat(ctx, "x")
	if !ok {
		return
	}
	y, ok := pathFloat(ctx, "y")
	if !ok {
		return
	}
	r, ok := pathFloat(ctx, "r")
	if !ok {
		return
	}

	matches := idx.QueryRadius(x, y, r)
	s.metricPointsReturned.Add(ctx, int64(len(matches)))

	s.writeJSON(ctx, matches)
}

func (s *server) NearestBatchHandler(ctx *fasthttp.RequestCtx) {
	s.metricNearestCallCount.Add(ctx, 1)

	idx, ok := s.index(ctx)
	if !ok {
		return
	}

	req := reqPointsPool.Get().(*[]orb.Point)
	*req = (*req)[:0]
	defer reqPointsPool.Put(req)

	err := json.Unmarshal(ctx.Request.Body(), req)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		ctx.Response.SetBodyString("failed to parse request: " + err.Error())
		return
	}

	res := make([]pointindex.Match, 0, len(*req))
	for _, p := range *req {
		m, _ := idx.Nearest(p.X(), p.Y())
		res = append(res, m)
	}
	s.metricPointsReturned.Add(ctx, int64(len(res)))

	s.writeJSON(ctx, res)
}

func (s *server) CategoriesHandler(ctx *fasthttp.RequestCtx) {
	idx, ok := s.index(ctx)
	if !ok {
		return
	}

	s.writeJSON(ctx, idx.Categories())
}

func (s *server) writeJSON(ctx *fasthttp.RequestCtx, v any) {
	out, err := json.Marshal(v)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString("failed to marshal response")
		return
	}

	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.SetBody(out)
}
