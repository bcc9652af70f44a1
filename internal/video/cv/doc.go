// Package cv implements video.Capture with OpenCV (gocv). It requires the
// OpenCV shared libraries with a video I/O backend such as FFmpeg.
package cv
