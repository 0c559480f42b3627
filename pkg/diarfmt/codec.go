package diarfmt

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// BinaryExt is the extension of msgpack-encoded session files.
const BinaryExt = ".dsess"

// ErrEmptySession is returned when decoding produces a session with no
// scales.
var ErrEmptySession = errors.New("diarfmt: session has no scales")

// IsBinaryPath reports whether path names a msgpack session file.
func IsBinaryPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), BinaryExt)
}

// EncodeJSON renders the session as indented JSON.
func EncodeJSON(s *Session) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("diarfmt: encode session: %w", err)
	}
	return data, nil
}

// DecodeJSON parses a JSON session.
func DecodeJSON(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("diarfmt: decode session: %w", err)
	}
	if len(s.Scales) == 0 {
		return nil, ErrEmptySession
	}
	return &s, nil
}

// EncodeBinary renders the session as msgpack.
func EncodeBinary(s *Session) ([]byte, error) {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("diarfmt: encode session: %w", err)
	}
	return data, nil
}

// DecodeBinary parses a msgpack session.
func DecodeBinary(data []byte) (*Session, error) {
	var s Session
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("diarfmt: decode session: %w", err)
	}
	if len(s.Scales) == 0 {
		return nil, ErrEmptySession
	}
	return &s, nil
}

// WriteFile writes the session to path, msgpack for .dsess and JSON
// otherwise.
func WriteFile(path string, s *Session) error {
	var (
		data []byte
		err  error
	)
	if IsBinaryPath(path) {
		data, err = EncodeBinary(s)
	} else {
		data, err = EncodeJSON(s)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("diarfmt: write session: %w", err)
	}
	return nil
}

// ReadFile reads a session from path, msgpack for .dsess and JSON
// otherwise.
func ReadFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("diarfmt: read session: %w", err)
	}
	if IsBinaryPath(path) {
		return DecodeBinary(data)
	}
	return DecodeJSON(data)
}
