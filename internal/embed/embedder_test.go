package embed

import (
	"math"
	"sync"
	"testing"

	"dupfind/internal/errors"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Dimension = 64
	cfg.MaxVocabSize = 500
	cfg.Language = "go"
	return cfg
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func TestNewTFIDFValidation(t *testing.T) {
	_, err := NewTFIDF(Config{Dimension: 0, MaxVocabSize: 10})
	if !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("err = %v, want CONFIG_INVALID", err)
	}
	_, err = NewTFIDF(Config{Dimension: 10, MaxVocabSize: -1})
	if !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("err = %v, want CONFIG_INVALID", err)
	}
}

func TestEmbedDimensionAndNorm(t *testing.T) {
	e, err := NewTFIDF(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	vec, err := e.Embed("func add(a, b int) int { return a + b }")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 64 {
		t.Errorf("len(vec) = %d, want 64", len(vec))
	}
	if n := norm(vec); math.Abs(n-1.0) > 1e-9 {
		t.Errorf("norm = %v, want 1.0", n)
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	e, _ := NewTFIDF(testConfig())

	vec, err := e.Embed("")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 64 {
		t.Errorf("len(vec) = %d, want 64", len(vec))
	}
	if n := norm(vec); n != 0 {
		t.Errorf("norm of empty embedding = %v, want exactly 0", n)
	}
}

func TestEmbedDeterministicWithoutInterveningDocs(t *testing.T) {
	code := "func sum(xs []int) int { total := 0; for _, x := range xs { total += x }; return total }"

	e1, _ := NewTFIDF(testConfig())
	e2, _ := NewTFIDF(testConfig())

	v1, _ := e1.Embed(code)
	v2, _ := e2.Embed(code)
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("fresh embedders disagree at %d: %v vs %v", i, v1[i], v2[i])
		}
	}

	// Same embedder, same text twice, no intervening documents: df and N
	// scale together, so output is bit-identical.
	v3, _ := e1.Embed(code)
	for i := range v1 {
		if v1[i] != v3[i] {
			t.Fatalf("repeat embedding differs at %d: %v vs %v", i, v1[i], v3[i])
		}
	}
}

func TestEmbedOrderDependence(t *testing.T) {
	a := "func open(path string) error { return nil }"
	b := "func close(path string) error { return nil }"
	target := "func open(name string) error { return nil }"

	e1, _ := NewTFIDF(testConfig())
	e1.Embed(a)
	v1, _ := e1.Embed(target)

	e2, _ := NewTFIDF(testConfig())
	e2.Embed(a)
	e2.Embed(b)
	v2, _ := e2.Embed(target)

	same := true
	for i := range v1 {
		if v1[i] != v2[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("intervening document should change IDF weights of later embeddings")
	}
}

func TestEmbedQueryDoesNotMutate(t *testing.T) {
	e, _ := NewTFIDF(testConfig())
	e.Embed("func a() {}")

	docs, vocab := e.DocCount(), e.VocabSize()
	e.EmbedQuery("func somethingCompletelyNew(q int) {}")

	if e.DocCount() != docs {
		t.Errorf("DocCount changed %d -> %d on query", docs, e.DocCount())
	}
	if e.VocabSize() != vocab {
		t.Errorf("VocabSize changed %d -> %d on query", vocab, e.VocabSize())
	}
}

func TestVocabularyCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.MaxVocabSize = 5
	e, _ := NewTFIDF(cfg)

	e.Embed("alpha beta gamma delta epsilon zeta eta theta")
	if e.VocabSize() > 5 {
		t.Errorf("VocabSize = %d, want <= 5", e.VocabSize())
	}

	// Capacity exhaustion is silent: further embeds still succeed.
	vec, err := e.Embed("iota kappa lambda")
	if err != nil {
		t.Fatalf("embed after capacity: %v", err)
	}
	if len(vec) != cfg.Dimension {
		t.Errorf("len(vec) = %d, want %d", len(vec), cfg.Dimension)
	}
}

func TestExportImportStateTrajectory(t *testing.T) {
	corpus := []string{
		"func read(p string) ([]byte, error) { return os.ReadFile(p) }",
		"func write(p string, b []byte) error { return os.WriteFile(p, b, 0644) }",
		"class Loader:\n    def load(self): pass",
	}
	next := "func readAll(r io.Reader) ([]byte, error) { return io.ReadAll(r) }"

	e1, _ := NewTFIDF(testConfig())
	for _, doc := range corpus {
		e1.Embed(doc)
	}
	state := e1.ExportState()

	e2, _ := NewTFIDF(testConfig())
	if err := e2.ImportState(state); err != nil {
		t.Fatalf("ImportState: %v", err)
	}

	v1, _ := e1.Embed(next)
	v2, _ := e2.Embed(next)
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("post-import embedding diverges at %d: %v vs %v", i, v1[i], v2[i])
		}
	}
}

func TestImportStateRejectsMismatchedConfig(t *testing.T) {
	e1, _ := NewTFIDF(testConfig())
	state := e1.ExportState()

	other := testConfig()
	other.Dimension = 32
	e2, _ := NewTFIDF(other)
	if err := e2.ImportState(state); !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("err = %v, want CONFIG_INVALID", err)
	}
}

func TestImportStateRejectsCorruptVocab(t *testing.T) {
	e, _ := NewTFIDF(testConfig())
	state := e.ExportState()
	state.Vocab = map[string]VocabEntry{
		"identifier:foo": {Index: 100000, DocFreq: 1},
	}

	e2, _ := NewTFIDF(testConfig())
	if err := e2.ImportState(state); !errors.HasCode(err, errors.SerializationFailed) {
		t.Errorf("err = %v, want SERIALIZATION_FAILED", err)
	}
}

func TestEmbedBatchSequential(t *testing.T) {
	docs := []string{
		"func a() { x := 1 }",
		"func b() { y := 2 }",
		"func a() { x := 1 }",
	}

	e1, _ := NewTFIDF(testConfig())
	batch, err := e1.EmbedBatch(docs)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 3 {
		t.Fatalf("len(batch) = %d, want 3", len(batch))
	}

	// Batch equals one-at-a-time embedding in the same order.
	e2, _ := NewTFIDF(testConfig())
	for i, doc := range docs {
		vec, _ := e2.Embed(doc)
		for j := range vec {
			if batch[i][j] != vec[j] {
				t.Fatalf("batch[%d] differs from sequential embedding", i)
			}
		}
	}
}

func TestEmbedQueryConcurrentAfterImport(t *testing.T) {
	// After a state import the projection column cache is empty, so
	// concurrent queries all fault columns in on first touch. The cache has
	// its own lock; this must be clean under -race.
	corpus := []string{
		"func read(p string) ([]byte, error) { return os.ReadFile(p) }",
		"func write(p string, b []byte) error { return os.WriteFile(p, b, 0644) }",
		"func sum(xs []int) int { total := 0; for _, x := range xs { total += x }; return total }",
	}
	query := "func read(name string) ([]byte, error) { return os.ReadFile(name) }"

	src, _ := NewTFIDF(testConfig())
	for _, doc := range corpus {
		src.Embed(doc)
	}

	dst, _ := NewTFIDF(testConfig())
	if err := dst.ImportState(src.ExportState()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				vec, err := dst.EmbedQuery(query)
				if err != nil {
					t.Errorf("EmbedQuery: %v", err)
					return
				}
				if len(vec) != testConfig().Dimension {
					t.Errorf("len(vec) = %d, want %d", len(vec), testConfig().Dimension)
					return
				}
			}
		}()
	}
	wg.Wait()

	// Concurrent faulting must not change the deterministic output.
	want, _ := src.EmbedQuery(query)
	got, _ := dst.EmbedQuery(query)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("imported embedder diverges at %d: %v vs %v", i, got[i], want[i])
		}
	}
}

func TestStaticModel(t *testing.T) {
	m := NewStatic(32)
	v1, _ := m.Embed("some code")
	v2, _ := m.EmbedQuery("some code")
	v3, _ := m.Embed("other code")

	if len(v1) != 32 {
		t.Fatalf("len = %d, want 32", len(v1))
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatal("static model should be deterministic across Embed/EmbedQuery")
		}
	}
	same := true
	for i := range v1 {
		if v1[i] != v3[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("distinct texts should embed differently")
	}
	if n := norm(v1); math.Abs(n-1.0) > 1e-9 {
		t.Errorf("norm = %v, want 1.0", n)
	}
}

func TestNewModelSelection(t *testing.T) {
	cfg := testConfig()

	if _, err := NewModel("tfidf", cfg); err != nil {
		t.Errorf("tfidf model: %v", err)
	}
	if _, err := NewModel("static", cfg); err != nil {
		t.Errorf("static model: %v", err)
	}
	if _, err := NewModel("neural", cfg); !errors.HasCode(err, errors.ConfigInvalid) {
		t.Error("unknown model name should be CONFIG_INVALID")
	}
}
