package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"DemoHub/models"
	"DemoHub/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeProvider replays scripted outcomes, one per call.
type fakeProvider struct {
	mu       sync.Mutex
	chunks   []string
	errs     []error
	calls    int
	requests []CompletionRequest
}

func (f *fakeProvider) next(req CompletionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.requests = append(f.requests, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

func (f *fakeProvider) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	if err := f.next(req); err != nil {
		return "", err
	}
	out := ""
	for _, c := range f.chunks {
		out += c
	}
	return out, nil
}

func (f *fakeProvider) Stream(ctx context.Context, req CompletionRequest, onDelta func(string)) (string, error) {
	if err := f.next(req); err != nil {
		return "", err
	}
	out := ""
	for _, c := range f.chunks {
		out += c
		onDelta(c)
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	return db
}

func seededGateway(t *testing.T, fp Provider) *Gateway {
	t.Helper()
	reg := NewRegistry(newTestDB(t), "ep-20251203173341-sztlm")
	require.NoError(t, reg.Seed(context.Background(), BuiltinModels("http://gw.local/v1", "k", "", "")))
	return NewGateway(reg, true, discardLogger()).
		WithProvider(models.ProviderOpenAI, fp).
		WithRetryDelay(time.Millisecond)
}
