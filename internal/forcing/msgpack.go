package forcing

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/chrissnell/hydrosim/internal/hydro"
)

// msgpackVersion is bumped when the binary layout changes
const msgpackVersion = 1

type msgpackFile struct {
	Version int                 `msgpack:"version"`
	Periods []hydro.PeriodInput `msgpack:"periods"`
}

// DecodeMsgPack reads forcing written by EncodeMsgPack
func DecodeMsgPack(r io.Reader) ([]hydro.PeriodInput, error) {
	var f msgpackFile
	if err := msgpack.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding msgpack forcing: %w", err)
	}
	if f.Version != msgpackVersion {
		return nil, fmt.Errorf("unsupported msgpack forcing version %d", f.Version)
	}
	return f.Periods, nil
}

// EncodeMsgPack writes forcing as a versioned MessagePack document
func EncodeMsgPack(w io.Writer, inputs []hydro.PeriodInput) error {
	return msgpack.NewEncoder(w).Encode(msgpackFile{Version: msgpackVersion, Periods: inputs})
}
