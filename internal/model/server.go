package model

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/agrosathi-api/internal/apperror"
	"github.com/Brownie44l1/agrosathi-api/internal/metrics"
)

// Options configures NewServer.
type Options struct {
	ModelPath    string
	MetadataPath string
	// LibraryPath points at the onnxruntime shared library. Empty uses the
	// runtime's default lookup.
	LibraryPath string
	// PoolSize is the number of sessions, and so the number of concurrent
	// forward passes. Values below 1 are treated as 1.
	PoolSize int
	// NumClasses is the expected output length.
	NumClasses int
}

type session struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

func (s *session) destroy() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
}

// Server owns the loaded model. Each pooled session has its own input and
// output tensors, so concurrent Predict calls never share buffers.
type Server struct {
	Metadata Metadata
	sessions []*session
	pool     chan *session
}

var _ Predictor = (*Server)(nil)

// NewServer loads the manifest and model artifact. Any problem with either is
// returned as a ModelFault so startup can fail before serving traffic.
func NewServer(opts Options) (*Server, error) {
	metadata, err := LoadMetadata(opts.MetadataPath)
	if err != nil {
		return nil, apperror.ModelFault("invalid model metadata", err)
	}
	if opts.NumClasses > 0 && metadata.OutputSize() != opts.NumClasses {
		return nil, apperror.ModelFault(
			fmt.Sprintf("model emits %d scores, catalog has %d classes", metadata.OutputSize(), opts.NumClasses), nil)
	}
	if len(metadata.Classes) > 0 && len(metadata.Classes) != metadata.OutputSize() {
		return nil, apperror.ModelFault(
			fmt.Sprintf("metadata lists %d classes for %d outputs", len(metadata.Classes), metadata.OutputSize()), nil)
	}
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, apperror.ModelFault("model artifact not found", err)
	}

	if opts.LibraryPath != "" {
		ort.SetSharedLibraryPath(opts.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, apperror.ModelFault("failed to initialize ONNX environment", err)
	}

	poolSize := max(opts.PoolSize, 1)
	s := &Server{
		Metadata: metadata,
		sessions: make([]*session, 0, poolSize),
		pool:     make(chan *session, poolSize),
	}

	for i := 0; i < poolSize; i++ {
		sess, err := newSession(opts.ModelPath, metadata)
		if err != nil {
			s.Close()
			return nil, apperror.ModelFault("failed to create ONNX session", err)
		}
		s.sessions = append(s.sessions, sess)
		s.pool <- sess
	}

	slog.Info("model loaded",
		"path", opts.ModelPath,
		"version", metadata.Version,
		"input_shape", metadata.InputShape,
		"output_shape", metadata.OutputShape,
		"sessions", poolSize,
	)
	return s, nil
}

func newSession(modelPath string, metadata Metadata) (*session, error) {
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	sess, err := ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, err
	}

	return &session{
		session:      sess,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Predict runs one forward pass. It blocks until a session is free or ctx is
// done.
func (s *Server) Predict(ctx context.Context, tensor *Tensor) (*PredictionResult, error) {
	if tensor == nil || !slices.Equal(tensor.Shape, s.Metadata.InputShape) || len(tensor.Data) != elementCount(s.Metadata.InputShape) {
		var got []int64
		if tensor != nil {
			got = tensor.Shape
		}
		return nil, apperror.ShapeMismatch(s.Metadata.InputShape, got)
	}

	if err := checkRange(tensor.Data); err != nil {
		return nil, err
	}

	var sess *session
	select {
	case sess = <-s.pool:
	case <-ctx.Done():
		return nil, apperror.Canceled(ctx.Err())
	}
	defer func() { s.pool <- sess }()

	metrics.InferenceSessionsBusy.Inc()
	defer metrics.InferenceSessionsBusy.Dec()

	start := time.Now()
	copy(sess.inputTensor.GetData(), tensor.Data)
	if err := sess.session.Run(); err != nil {
		return nil, apperror.ModelFault("inference failed", err)
	}
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())

	raw := sess.outputTensor.GetData()
	if len(raw) != s.Metadata.OutputSize() {
		return nil, apperror.ModelFault(
			fmt.Sprintf("model returned %d scores, expected %d", len(raw), s.Metadata.OutputSize()), nil)
	}

	dist := Distribution(raw)
	idx, confidence := Argmax(dist)

	return &PredictionResult{
		ClassIndex:   idx,
		Confidence:   confidence,
		Distribution: dist,
	}, nil
}

// checkRange enforces the [0,1] input contract that Normalize produces.
func checkRange(data []float32) error {
	for i, v := range data {
		if !(v >= 0 && v <= 1) {
			return apperror.ModelFault(fmt.Sprintf("input value %v at index %d outside [0,1]", v, i), nil)
		}
	}
	return nil
}

// Close releases every session and the ONNX environment.
func (s *Server) Close() {
	for _, sess := range s.sessions {
		sess.destroy()
	}
	s.sessions = nil
	if err := ort.DestroyEnvironment(); err != nil {
		slog.Warn("failed to destroy ONNX environment", "error", err)
	}
}
