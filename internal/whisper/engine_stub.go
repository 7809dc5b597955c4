//go:build !whisper_cpp

package whisper

import "errors"

// Default build (no cgo). Selecting the local backend then fails at load
// time, which the registry surfaces through its normal retry path.
func NewLocalEngine(modelPath string) (Engine, error) {
	return nil, errors.New("local backend unavailable: rebuild with -tags whisper_cpp")
}
