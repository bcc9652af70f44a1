package dnn

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"media-processor/internal/classify"
	"media-processor/internal/logging"
	"media-processor/internal/vision"

	"gocv.io/x/gocv"
)

// YOLOInputSize is the square darknet network input.
const YOLOInputSize = 416

var errEmptyNet = errors.New("network is empty")

// preferCUDA selects the CUDA backend when available and falls back to CPU.
func preferCUDA(net *gocv.Net, name string) {
	backendErr := net.SetPreferableBackend(gocv.NetBackendCUDA)
	targetErr := net.SetPreferableTarget(gocv.NetTargetCUDA)
	if backendErr == nil && targetErr == nil {
		logging.Info("%s: using CUDA backend", name)
		return
	}
	logging.Debug("%s: CUDA unavailable (backend: %v, target: %v), using CPU", name, backendErr, targetErr)
	_ = net.SetPreferableBackend(gocv.NetBackendDefault)
	_ = net.SetPreferableTarget(gocv.NetTargetCPU)
}

// CLIPEncoder runs a CLIP image encoder exported to ONNX.
type CLIPEncoder struct {
	mu  sync.Mutex
	net gocv.Net
}

// NewCLIPEncoder loads the ONNX image encoder at path.
func NewCLIPEncoder(path string) (*CLIPEncoder, error) {
	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return nil, fmt.Errorf("load %s: %w", path, errEmptyNet)
	}
	preferCUDA(&net, "clip")
	return &CLIPEncoder{net: net}, nil
}

// EncodeImage returns the raw image embedding.
func (e *CLIPEncoder) EncodeImage(img image.Image) ([]float32, error) {
	input := classify.PrepareCLIPInput(img)
	buf := make([]byte, 4*len(input))
	for i, v := range input {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}

	blob, err := gocv.NewMatWithSizesFromBytes(
		[]int{1, 3, classify.CLIPInputSize, classify.CLIPInputSize}, gocv.MatTypeCV32F, buf)
	if err != nil {
		return nil, fmt.Errorf("build input blob: %w", err)
	}
	defer blob.Close()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.net.SetInput(blob, "")
	out := e.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read embedding: %w", err)
	}
	emb := make([]float32, len(data))
	copy(emb, data)
	return emb, nil
}

// Close releases the network.
func (e *CLIPEncoder) Close() error {
	return e.net.Close()
}

// YOLODetector runs a darknet YOLO network.
type YOLODetector struct {
	mu      sync.Mutex
	net     gocv.Net
	outputs []string
	labels  []string
}

// NewYOLODetector loads a darknet network and its class names.
func NewYOLODetector(cfgPath, weightsPath, namesPath string) (*YOLODetector, error) {
	labels, err := vision.ReadLabels(namesPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNetFromDarknet(cfgPath, weightsPath)
	if net.Empty() {
		return nil, fmt.Errorf("load %s: %w", weightsPath, errEmptyNet)
	}
	preferCUDA(&net, "yolo")

	names := net.GetLayerNames()
	var outputs []string
	for _, id := range net.GetUnconnectedOutLayers() {
		if id > 0 && id <= len(names) {
			outputs = append(outputs, names[id-1])
		}
	}
	if len(outputs) == 0 {
		_ = net.Close()
		return nil, fmt.Errorf("load %s: no output layers", cfgPath)
	}

	logging.Debug("yolo: %d classes, output layers %v", len(labels), outputs)
	return &YOLODetector{net: net, outputs: outputs, labels: labels}, nil
}

// yoloBlob scales a frame into the darknet input tensor. ImageToMatRGB
// yields BGR channel order and darknet weights expect RGB, so R and B are
// swapped here.
func yoloBlob(mat gocv.Mat) gocv.Mat {
	return gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(YOLOInputSize, YOLOInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
}

// Detect runs the network and returns detections above the threshold.
func (d *YOLODetector) Detect(img image.Image) (classify.DetectionSet, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	blob := yoloBlob(mat)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	outs := d.net.ForwardLayers(d.outputs)
	d.mu.Unlock()

	var rows [][]float32
	for i := range outs {
		r, err := matRows(outs[i])
		outs[i].Close()
		if err != nil {
			return nil, err
		}
		rows = append(rows, r...)
	}

	b := img.Bounds()
	return classify.ParseYOLOOutput(rows, d.labels, b.Dx(), b.Dy(), classify.DetectionThreshold), nil
}

func matRows(m gocv.Mat) ([][]float32, error) {
	data, err := m.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read detections: %w", err)
	}
	cols := m.Cols()
	if cols == 0 {
		return nil, nil
	}
	rows := make([][]float32, 0, len(data)/cols)
	for off := 0; off+cols <= len(data); off += cols {
		row := make([]float32, cols)
		copy(row, data[off:off+cols])
		rows = append(rows, row)
	}
	return rows, nil
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	return d.net.Close()
}

// Loaders returns classifier loaders that read artifacts from layout.
func Loaders(layout vision.Layout) classify.Loaders {
	return classify.Loaders{
		Embedding: func() (*classify.EmbeddingModel, error) {
			text, err := vision.ReadTextEmbeddings(layout.CLIPTextEmbeddings())
			if err != nil {
				return nil, err
			}
			enc, err := NewCLIPEncoder(layout.CLIPImageModel())
			if err != nil {
				return nil, err
			}
			return &classify.EmbeddingModel{Encoder: enc, Text: text}, nil
		},
		Detector: func() (classify.Detector, error) {
			return NewYOLODetector(layout.YOLOConfig(), layout.YOLOWeights(), layout.YOLONames())
		},
	}
}
