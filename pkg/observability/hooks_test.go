package observability

import (
	"context"
	"testing"
	"time"
)

type countingHTTPHooks struct {
	NoopHTTPHooks
	requests int
}

func (h *countingHTTPHooks) OnRequest(context.Context, string, string, string) { h.requests++ }

func TestSetHTTPHooks(t *testing.T) {
	t.Cleanup(Reset)

	h := &countingHTTPHooks{}
	SetHTTPHooks(h)
	HTTP().OnRequest(context.Background(), "GET", "api.6529.io", "/api/identities/alice")
	HTTP().OnResponse(context.Background(), "GET", "api.6529.io", "/", 200, time.Millisecond)

	if h.requests != 1 {
		t.Errorf("requests = %d, want 1", h.requests)
	}
}

func TestSetNilKeepsPrevious(t *testing.T) {
	t.Cleanup(Reset)

	h := &countingHTTPHooks{}
	SetHTTPHooks(h)
	SetHTTPHooks(nil)
	if HTTP() != HTTPHooks(h) {
		t.Error("SetHTTPHooks(nil) should keep the registered hooks")
	}
}

func TestReset(t *testing.T) {
	SetHTTPHooks(&countingHTTPHooks{})
	Reset()

	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T after Reset, want NoopHTTPHooks", HTTP())
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T after Reset, want NoopPipelineHooks", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T after Reset, want NoopCacheHooks", Cache())
	}
}
