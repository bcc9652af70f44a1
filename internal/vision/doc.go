// Package vision locates and reads the model artifacts used by the
// classifiers. The OpenCV DNN adapters that run the models live in the dnn
// subpackage.
package vision
