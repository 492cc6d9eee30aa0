package summarizer_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/sevigo/code-atlas/internal/summarizer"
	"github.com/sevigo/code-atlas/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestGenerateSummariesKeepsRequestOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Generate(gomock.Any(), "p1").Return("summary one", nil)
	gen.EXPECT().Generate(gomock.Any(), "p2").Return("", errors.New("provider down"))
	gen.EXPECT().Generate(gomock.Any(), "p3").Return("summary three", nil)

	w := summarizer.NewWorker(gen, 2, testLogger())
	results := w.GenerateSummaries(context.Background(), []summarizer.SummaryRequest{
		{NodeID: "n1", Prompt: "p1"},
		{NodeID: "n2", Prompt: "p2"},
		{NodeID: "n3", Prompt: "p3"},
	})

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].NodeID != "n1" || results[0].Summary != "summary one" || results[0].Err != nil {
		t.Errorf("result 0 = %+v", results[0])
	}
	if results[1].NodeID != "n2" || results[1].Err == nil {
		t.Errorf("result 1 must carry the failure: %+v", results[1])
	}
	if results[2].Summary != "summary three" {
		t.Errorf("result 2 = %+v", results[2])
	}
}

// boundedGenerator counts concurrent calls to verify the in-flight cap.
type boundedGenerator struct {
	mu      sync.Mutex
	current int32
	peak    int32
}

func (g *boundedGenerator) Generate(_ context.Context, _ string) (string, error) {
	n := atomic.AddInt32(&g.current, 1)
	g.mu.Lock()
	if n > g.peak {
		g.peak = n
	}
	g.mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	atomic.AddInt32(&g.current, -1)
	return "ok", nil
}

func TestGenerateSummariesBoundsConcurrency(t *testing.T) {
	gen := &boundedGenerator{}
	w := summarizer.NewWorker(gen, 5, testLogger())

	requests := make([]summarizer.SummaryRequest, 20)
	for i := range requests {
		requests[i] = summarizer.SummaryRequest{NodeID: "n", Prompt: "p"}
	}
	w.GenerateSummaries(context.Background(), requests)

	if gen.peak > 5 {
		t.Errorf("peak in-flight = %d, want at most 5", gen.peak)
	}
	if gen.peak == 0 {
		t.Error("no calls recorded")
	}
}
