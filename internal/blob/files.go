package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultUploadExtension is used when an uploaded file name carries no usable extension.
const DefaultUploadExtension = ".mp3"

// GeneratedExtension is the extension of every generated clip.
const GeneratedExtension = ".mp3"

// File and directory permissions.
const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

// File extension constants.
const (
	extAAC  = ".aac"
	extFLAC = ".flac"
	extM4A  = ".m4a"
	extMP3  = ".mp3"
	extOGG  = ".ogg"
	extOPUS = ".opus"
	extWAV  = ".wav"
	extWEBM = ".webm"
)

const maxExtensionLength = 8

var contentTypes = map[string]string{
	extAAC:  "audio/aac",
	extFLAC: "audio/flac",
	extM4A:  "audio/mp4",
	extMP3:  "audio/mpeg",
	extOGG:  "audio/ogg",
	extOPUS: "audio/opus",
	extWAV:  "audio/wav",
	extWEBM: "audio/webm",
}

// EnsureDir ensures a directory exists at the given path, creating it if it doesn't.
func EnsureDir(path string) error {
	_, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		mkdirErr := os.MkdirAll(path, dirPermissions)
		if mkdirErr != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, mkdirErr)
		}
	}

	return nil
}

// IsValidAudioFile checks if a filename has a common audio file extension.
func IsValidAudioFile(filename string) bool {
	_, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]

	return ok
}

// UploadExtension derives the stored extension from an uploaded file name.
// The original extension is kept, case included, when it is short and
// alphanumeric.
func UploadExtension(filename string) string {
	ext := filepath.Ext(filepath.Base(strings.ReplaceAll(filename, "\\", "/")))
	if len(ext) < 2 || len(ext) > maxExtensionLength {
		return DefaultUploadExtension
	}

	for _, r := range ext[1:] {
		isDigit := r >= '0' && r <= '9'
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')

		if !isDigit && !isLetter {
			return DefaultUploadExtension
		}
	}

	return ext
}

// ContentType returns the MIME type for an audio blob path.
func ContentType(relativePath string) string {
	contentType, ok := contentTypes[strings.ToLower(filepath.Ext(relativePath))]
	if !ok {
		return "application/octet-stream"
	}

	return contentType
}
