package forcing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/chrissnell/hydrosim/internal/hydro"
)

// Column names recognised in a CSV header. Other columns (dates, station
// names) are ignored.
const (
	ColPrecipitation      = "precipitation"
	ColEvapotranspiration = "evapotranspiration"
	ColObservedDischarge  = "observed_discharge"
)

// DecodeCSV reads a headed CSV file with one row per period
func DecodeCSV(r io.Reader) ([]hydro.PeriodInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty CSV: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var idx [3]int
	for i, name := range []string{ColPrecipitation, ColEvapotranspiration, ColObservedDischarge} {
		c, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("CSV header is missing column %q", name)
		}
		idx[i] = c
	}

	var inputs []hydro.PeriodInput
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", line, err)
		}

		var values [3]float64
		for i, c := range idx {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[c]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", line, header[c], err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("line %d, column %q: %w: value %q is not finite",
					line, header[c], hydro.ErrInvalidInput, record[c])
			}
			values[i] = v
		}
		inputs = append(inputs, hydro.PeriodInput{
			Precipitation:      values[0],
			Evapotranspiration: values[1],
			ObservedDischarge:  values[2],
		})
	}

	return inputs, nil
}

// EncodeCSV writes inputs with a header row
func EncodeCSV(w io.Writer, inputs []hydro.PeriodInput) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{ColPrecipitation, ColEvapotranspiration, ColObservedDischarge}); err != nil {
		return err
	}
	for _, in := range inputs {
		record := []string{
			strconv.FormatFloat(in.Precipitation, 'g', -1, 64),
			strconv.FormatFloat(in.Evapotranspiration, 'g', -1, 64),
			strconv.FormatFloat(in.ObservedDischarge, 'g', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
