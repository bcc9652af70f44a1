/*
Package filesystem provides the file operations the media processor uses to
publish artifacts.

# Purpose

Thumbnails and processed copies are served straight from disk, so a reader
must never observe a half-written file and two concurrent writers must never
clobber each other. This package wraps the relevant os calls:

  - WriteAtomic: write to a uuid-named temporary sibling, then rename
  - CopyExclusive: byte copy into a target created with O_EXCL
  - RemoveWithin: delete a file only when it lives inside a given directory

Operations are not retried. A failure is returned to the caller, which decides
how the owning pipeline stage degrades.

# Metrics

Each operation reports its duration and error status through the Observer
interface. The metrics package supplies the implementation, and a
VolumeResolver maps paths to directory labels (uploads, thumbnails, processed,
models):

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
	    "thumbnails": cfg.ThumbnailsDir,
	    "processed":  cfg.ProcessedDir,
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())
*/
package filesystem
