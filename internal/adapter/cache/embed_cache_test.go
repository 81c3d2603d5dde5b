package cache

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestCache(t *testing.T) *EmbedCache {
	t.Helper()
	c, err := OpenEmbedCache(filepath.Join(t.TempDir(), "embeddings.db"))
	if err != nil {
		t.Fatalf("OpenEmbedCache() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestEmbedCacheRoundTrip(t *testing.T) {
	c := openTestCache(t)

	want := []float32{0.1, 0.2, 0.3}
	if err := c.Put("bge-m3", "some text", want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, hit := c.Get("bge-m3", "some text")
	if !hit {
		t.Fatal("Get() missed a stored entry")
	}
	if len(got) != len(want) {
		t.Fatalf("vector length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("vector[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEmbedCacheMisses(t *testing.T) {
	c := openTestCache(t)

	if _, hit := c.Get("bge-m3", "never stored"); hit {
		t.Error("Get() hit on an empty cache")
	}

	if err := c.Put("bge-m3", "text", []float32{1}); err != nil {
		t.Fatal(err)
	}
	if _, hit := c.Get("nomic-embed-text", "text"); hit {
		t.Error("a different model must not hit the same text")
	}
	if _, hit := c.Get("bge-m3", "other text"); hit {
		t.Error("a different text must not hit")
	}
}

type countingEmbedder struct {
	calls    int
	embedded []string
}

func (f *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.embedded = append(f.embedded, texts...)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func (f *countingEmbedder) Dimension() int {
	return 2
}

func (f *countingEmbedder) ModelName() string {
	return "counting"
}

func TestCachedEmbedderOnlyEmbedsMisses(t *testing.T) {
	c := openTestCache(t)
	inner := &countingEmbedder{}
	e := NewCachedEmbedder(inner, c)

	first, err := e.Embed(context.Background(), []string{"aa", "bbb"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if inner.calls != 1 || len(inner.embedded) != 2 {
		t.Fatalf("first pass: calls=%d embedded=%v", inner.calls, inner.embedded)
	}

	second, err := e.Embed(context.Background(), []string{"aa", "bbb"})
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("second pass re-embedded cached texts: calls=%d", inner.calls)
	}
	for i := range first {
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Errorf("cached vector %d differs at %d", i, j)
			}
		}
	}

	// A mixed batch only sends the new text onward.
	_, err = e.Embed(context.Background(), []string{"aa", "cccc"})
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("mixed batch calls = %d, want 2", inner.calls)
	}
	if inner.embedded[len(inner.embedded)-1] != "cccc" {
		t.Errorf("mixed batch embedded %v, want cccc last", inner.embedded)
	}
}

func TestCachedEmbedderDelegates(t *testing.T) {
	c := openTestCache(t)
	e := NewCachedEmbedder(&countingEmbedder{}, c)

	if e.Dimension() != 2 {
		t.Errorf("Dimension() = %d", e.Dimension())
	}
	if e.ModelName() != "counting" {
		t.Errorf("ModelName() = %q", e.ModelName())
	}
}
