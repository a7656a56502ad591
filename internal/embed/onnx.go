package embed

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// ModelLoadError indicates a local model resource failed to initialize.
// Raised at construction time, never per-call; fatal to the encoder.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("loading model %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// LocalConfig configures a LocalEncoder.
type LocalConfig struct {
	ModelPath     string // sentence-transformer ONNX export
	TokenizerPath string // matching tokenizer.json
	LibraryPath   string // onnxruntime shared library; empty uses default lookup
	MaxSeqLen     int    // token cap per input (default: 256)
	Dimensions    int    // output vector size (default: 384, MiniLM)
}

// ortInit guards one-time ONNX runtime environment setup per process.
var ortInit sync.Once
var ortInitErr error

// LocalEncoder implements Embedder with a local MiniLM-class ONNX model.
// Output vectors are mean-pooled over the attention mask and L2-normalized.
type LocalEncoder struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	tk      *tokenizer.Tokenizer
	maxSeq  int
	dims    int
}

// NewLocalEncoder loads the tokenizer and opens an ONNX session.
func NewLocalEncoder(cfg LocalConfig) (*LocalEncoder, error) {
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = 256
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 384
	}

	ortInit.Do(func() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, &ModelLoadError{Path: cfg.LibraryPath, Err: ortInitErr}
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, &ModelLoadError{Path: cfg.TokenizerPath, Err: err}
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, &ModelLoadError{Path: cfg.ModelPath, Err: err}
	}

	return &LocalEncoder{
		session: session,
		tk:      tk,
		maxSeq:  cfg.MaxSeqLen,
		dims:    cfg.Dimensions,
	}, nil
}

// Close releases the ONNX session.
func (e *LocalEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		err := e.session.Destroy()
		e.session = nil
		return err
	}
	return nil
}

// Dimensions implements Embedder.
func (e *LocalEncoder) Dimensions() int { return e.dims }

// Embed implements Embedder.
func (e *LocalEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, fmt.Errorf("encoder is closed")
	}
	return e.encode(text)
}

// EmbedBatch implements Embedder. Inputs are encoded sequentially; the
// session itself is single-threaded.
func (e *LocalEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *LocalEncoder) encode(text string) ([]float32, error) {
	enc, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenizing: %w", err)
	}

	seqLen := len(enc.Ids)
	if seqLen > e.maxSeq {
		seqLen = e.maxSeq
	}
	if seqLen == 0 {
		return make([]float32, e.dims), nil
	}

	ids := make([]int64, seqLen)
	mask := make([]int64, seqLen)
	types := make([]int64, seqLen)
	for i := 0; i < seqLen; i++ {
		ids[i] = int64(enc.Ids[i])
		mask[i] = int64(enc.AttentionMask[i])
	}

	shape := ort.NewShape(1, int64(seqLen))
	idsTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("creating input tensor: %w", err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("creating mask tensor: %w", err)
	}
	defer maskTensor.Destroy()
	typeTensor, err := ort.NewTensor(shape, types)
	if err != nil {
		return nil, fmt.Errorf("creating type tensor: %w", err)
	}
	defer typeTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{idsTensor, maskTensor, typeTensor}, outputs); err != nil {
		return nil, fmt.Errorf("running inference: %w", err)
	}
	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type")
	}
	defer hidden.Destroy()

	dims := e.dims
	outShape := hidden.GetShape()
	if len(outShape) == 3 {
		dims = int(outShape[2])
	}

	return meanPool(hidden.GetData(), mask, seqLen, dims), nil
}

// meanPool averages token vectors weighted by the attention mask, then
// L2-normalizes.
func meanPool(hidden []float32, mask []int64, seqLen, dims int) []float32 {
	pooled := make([]float32, dims)
	var count float32
	for tok := 0; tok < seqLen; tok++ {
		if mask[tok] == 0 {
			continue
		}
		count++
		base := tok * dims
		for d := 0; d < dims; d++ {
			if base+d < len(hidden) {
				pooled[d] += hidden[base+d]
			}
		}
	}
	if count == 0 {
		return pooled
	}

	var norm float64
	for d := range pooled {
		pooled[d] /= count
		norm += float64(pooled[d]) * float64(pooled[d])
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for d := range pooled {
			pooled[d] *= inv
		}
	}
	return pooled
}
