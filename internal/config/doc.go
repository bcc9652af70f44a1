/*
Package config loads the media processor configuration from environment
variables, with an optional .env file in the working directory.

LoadConfig resolves every directory to an absolute path, creates missing
directories, checks that the thumbnail and processed directories are writable,
and logs a configuration summary. An unknown AI_MODEL or
PROCESSED_REPLACE_POLICY is rejected; malformed numbers and booleans fall back
to their defaults with a warning.

	STORAGE_DIR               ./storage
	UPLOADS_DIR               $STORAGE_DIR/uploads
	THUMBNAILS_DIR            $STORAGE_DIR/thumbnails
	PROCESSED_DIR             $STORAGE_DIR/processed
	MODELS_DIR                $STORAGE_DIR/models
	THUMBNAIL_WIDTH           200
	THUMBNAIL_HEIGHT          200
	AI_MODEL                  clip (also opencv_dnn, opencv_yolo)
	PROCESSED_REPLACE_POLICY  keep (or remove)
	CLASSIFIER_CATALOG        embedded catalog when empty
	THUMBNAILS_MOUNT          /thumbnails
	PROCESSED_MOUNT           /processed
	PORT                      8080
	METRICS_ENABLED           true
	LOG_LEVEL                 info
*/
package config
