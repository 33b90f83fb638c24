package model

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Header is the first line of an exported measurement file. Column order is
// fixed: source, item, size, elapsed, iteration, success.
var Header = []string{"source_type", "file_name", "file_size", "load_time_ms", "iteration", "success"}

// Record renders m in the exported field order.
func (m Measurement) Record() []string {
	return []string{
		m.Source.String(),
		m.Item,
		strconv.FormatUint(m.Size, 10),
		strconv.FormatFloat(m.ElapsedMs, 'f', -1, 64),
		strconv.FormatUint(uint64(m.Iteration), 10),
		strconv.FormatBool(m.Succeeded),
	}
}

// ParseRecord is the inverse of Measurement.Record.
func ParseRecord(fields []string) (Measurement, error) {
	if len(fields) != len(Header) {
		return Measurement{}, errors.Errorf("expected %d fields, got %d", len(Header), len(fields))
	}

	source, err := ParseSourceKind(fields[0])

	if err != nil {
		return Measurement{}, err
	}

	size, err := strconv.ParseUint(fields[2], 10, 64)

	if err != nil {
		return Measurement{}, errors.Wrapf(err, "file_size %q", fields[2])
	}

	elapsed, err := strconv.ParseFloat(fields[3], 64)

	if err != nil {
		return Measurement{}, errors.Wrapf(err, "load_time_ms %q", fields[3])
	}

	iteration, err := strconv.ParseUint(fields[4], 10, 32)

	if err != nil {
		return Measurement{}, errors.Wrapf(err, "iteration %q", fields[4])
	}

	ok, err := strconv.ParseBool(fields[5])

	if err != nil {
		return Measurement{}, errors.Wrapf(err, "success %q", fields[5])
	}

	if err := CheckItem(fields[1]); err != nil {
		return Measurement{}, err
	}

	return Measurement{
		Source:    source,
		Item:      fields[1],
		Size:      size,
		ElapsedMs: elapsed,
		Iteration: uint32(iteration),
		Succeeded: ok,
	}, nil
}

// WriteRecords writes the header followed by one line per measurement.
func WriteRecords(w io.Writer, ms []Measurement) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return errors.Wrap(err, "write header")
	}

	for _, m := range ms {
		if err := CheckItem(m.Item); err != nil {
			return err
		}

		if err := cw.Write(m.Record()); err != nil {
			return errors.Wrapf(err, "write record %s/%s", m.Source, m.Item)
		}
	}

	cw.Flush()

	return errors.Wrap(cw.Error(), "flush records")
}

// ReadRecords parses what WriteRecords produced. The header line is optional.
func ReadRecords(r io.Reader) ([]Measurement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	var ms []Measurement
	line := 0

	for {
		fields, err := cr.Read()

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrap(err, "read records")
		}

		line++

		if line == 1 && fields[0] == Header[0] {
			continue
		}

		m, err := ParseRecord(fields)

		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		ms = append(ms, m)
	}

	return ms, nil
}
