package model

import (
	"context"
	"slices"
)

// Metadata describes the model artifact's tensor contract. It is read from
// the JSON manifest shipped next to the .onnx file.
type Metadata struct {
	Version     string   `json:"version"`
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes,omitempty"`
	ImageSize   int      `json:"image_size"`
}

// Tensor is a dense float32 tensor in row-major order.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// NewTensor allocates a zeroed tensor of the given shape.
func NewTensor(shape ...int64) *Tensor {
	return &Tensor{
		Shape: slices.Clone(shape),
		Data:  make([]float32, elementCount(shape)),
	}
}

// Fill sets every element to v.
func (t *Tensor) Fill(v float32) *Tensor {
	for i := range t.Data {
		t.Data[i] = v
	}
	return t
}

// PredictionResult is the model output for a single image.
type PredictionResult struct {
	ClassIndex   int       `json:"class_index"`
	Confidence   float32   `json:"confidence"`
	Distribution []float32 `json:"distribution"`
}

// Predictor runs forward inference. The tensor must have the model's input
// shape with every value in [0,1]. Implementations must be safe for
// concurrent use.
type Predictor interface {
	Predict(ctx context.Context, tensor *Tensor) (*PredictionResult, error)
}

func elementCount(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		n *= int(d)
	}
	return n
}
