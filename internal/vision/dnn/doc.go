// Package dnn runs the classifier models with OpenCV's DNN module (gocv):
// a CLIP image encoder exported to ONNX and a darknet YOLO detector. It
// requires the OpenCV shared libraries; CUDA is used when available.
package dnn
