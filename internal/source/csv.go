package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"flarewatch/internal/common"
	"flarewatch/internal/flaring"
	"flarewatch/pkg/errors"
)

// ReadCSV loads a header-first CSV file into a raw table named name.
func ReadCSV(path, name string) (*flaring.RawTable, error) {
	cleaned, err := common.CleanPath(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid input path").
			WithContext("path", path)
	}

	f, err := os.Open(cleaned) // #nosec G304 - path is cleaned
	if err != nil {
		code := errors.ErrCodeFileOperation
		if os.IsNotExist(err) {
			code = errors.ErrCodeFileNotFound
		}
		return nil, errors.Wrap(err, code, fmt.Sprintf("cannot open %s", filepath.Base(cleaned))).
			WithContext("path", cleaned)
	}
	defer f.Close()

	return ReadCSVFrom(f, name)
}

// ReadCSVFrom reads a header-first CSV stream. A UTF-8 byte order mark on
// the header is removed. Rows whose cell count differs from the header are
// rejected.
func ReadCSVFrom(r io.Reader, name string) (*flaring.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeSchema, fmt.Sprintf("table %q is empty", name)).
			WithContext("table", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, fmt.Sprintf("cannot read header of %q", name))
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := flaring.NewRawTable(name, header)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, fmt.Sprintf("cannot read %q", name))
		}
		if err := table.Append(row); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// WriteCSV writes t to path, creating parent directories.
func WriteCSV(path string, t *flaring.RawTable) error {
	if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionNormal); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "cannot create output directory").
			WithContext("path", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, common.FilePermissionNormal) // #nosec G304 - output path chosen by the operator
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "cannot create output file").
			WithContext("path", path)
	}
	if err := WriteCSVTo(f, t); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteCSVTo writes t's header and rows to w.
func WriteCSVTo(w io.Writer, t *flaring.RawTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "cannot write csv header")
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "cannot write csv rows")
	}
	return nil
}
