// Package forcing reads and writes per-period model forcing (precipitation,
// evapotranspiration, observed discharge) as CSV or MessagePack.
package forcing

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chrissnell/hydrosim/internal/hydro"
)

// Format identifies a forcing file encoding
type Format string

const (
	FormatCSV     Format = "csv"
	FormatMsgPack Format = "msgpack"
)

// ErrUnknownFormat is returned for file extensions without a codec
var ErrUnknownFormat = errors.New("forcing: unknown format")

// FormatFromPath picks the codec from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".msgpack", ".mpk":
		return FormatMsgPack, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// ReadFile loads forcing from path using the codec matching its extension
func ReadFile(path string) ([]hydro.PeriodInput, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	inputs, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return inputs, nil
}

// WriteFile stores forcing at path using the codec matching its extension
func WriteFile(path string, inputs []hydro.PeriodInput) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, format, inputs); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Decode reads forcing in the given format
func Decode(r io.Reader, format Format) ([]hydro.PeriodInput, error) {
	switch format {
	case FormatCSV:
		return DecodeCSV(r)
	case FormatMsgPack:
		return DecodeMsgPack(r)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

// Encode writes forcing in the given format
func Encode(w io.Writer, format Format, inputs []hydro.PeriodInput) error {
	switch format {
	case FormatCSV:
		return EncodeCSV(w, inputs)
	case FormatMsgPack:
		return EncodeMsgPack(w, inputs)
	}
	return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}
