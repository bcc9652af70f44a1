// Package video describes the small slice of a video decoder the processor
// needs: stream properties and a single seek-and-read. The OpenCV-backed
// implementation lives in video/cv.
package video
