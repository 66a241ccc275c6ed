package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Dan9191/payments-tracker/internal/ingest"
)

// ImportFile ingests a .csv or .xml document, chosen by file extension
func (s *Service) ImportFile(ctx context.Context, filename string, r io.Reader) (int, error) {
	var (
		rows []ingest.Row
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = ingest.ReadCSV(r)
	case ".xml":
		rows, err = ingest.ReadXML(r)
	default:
		return 0, fmt.Errorf("%w: file must be a CSV or XML document", ErrBadInput)
	}
	if errors.Is(err, ingest.ErrMalformed) {
		return 0, fmt.Errorf("%w: %v", ErrBadInput, err)
	}
	if err != nil {
		return 0, err
	}

	n, err := s.ImportPayments(ctx, rows)
	if err != nil {
		return 0, err
	}
	s.log.WithField("file", filepath.Base(filename)).Infof("Inserted %d records", n)
	return n, nil
}
