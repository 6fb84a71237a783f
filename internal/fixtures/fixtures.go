// Package fixtures reads catalog seed files (ingredients and tags) in JSON
// or CSV and loads them with get-or-create semantics.
package fixtures

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"foodgram/internal/apperr"
	"foodgram/internal/ingredient"
	"foodgram/internal/tag"
	"foodgram/internal/validation"
)

// Format is detected from the file extension.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
)

func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".csv":
		return CSV, nil
	default:
		return "", fmt.Errorf("unsupported fixture file %q (want .json or .csv)", path)
	}
}

// Report summarizes one load.
type Report struct {
	Created int
	Existed int
	Skipped []string
}

func (r Report) String() string {
	return fmt.Sprintf("created=%d existed=%d skipped=%d", r.Created, r.Existed, len(r.Skipped))
}

// ReadRecords decodes rows of string fields. JSON must be an array of
// objects; CSV may start with a header row naming columns, otherwise columns
// are taken in the order given by cols.
func ReadRecords(r io.Reader, f Format, cols []string) ([]map[string]string, error) {
	switch f {
	case JSON:
		var raw []map[string]any
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		out := make([]map[string]string, 0, len(raw))
		for _, obj := range raw {
			rec := make(map[string]string, len(obj))
			for k, v := range obj {
				if s, ok := v.(string); ok {
					rec[k] = s
				}
			}
			out = append(out, rec)
		}
		return out, nil
	case CSV:
		return readCSV(r, cols)
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}

func readCSV(r io.Reader, cols []string) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var out []map[string]string
	index := positional(cols)
	first := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if first {
			first = false
			if h, ok := header(row, cols); ok {
				index = h
				continue
			}
		}
		rec := make(map[string]string, len(cols))
		for name, idx := range index {
			if idx < len(row) {
				rec[name] = row[idx]
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func positional(cols []string) map[string]int {
	m := make(map[string]int, len(cols))
	for i, c := range cols {
		m[c] = i
	}
	return m
}

// header reports whether row names every column in cols.
func header(row, cols []string) (map[string]int, bool) {
	m := make(map[string]int, len(row))
	for i, name := range row {
		m[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, c := range cols {
		if _, ok := m[c]; !ok {
			return nil, false
		}
	}
	return m, true
}

// Loader validates and stores records.
type Loader struct {
	Ingredients *ingredient.Catalog
	Tags        *tag.Repo
	Validator   *validation.Validator
}

func (l *Loader) LoadIngredients(ctx context.Context, recs []map[string]string) (Report, error) {
	var rep Report
	for i, rec := range recs {
		in := ingredient.Input{
			Name:            strings.TrimSpace(rec["name"]),
			MeasurementUnit: strings.TrimSpace(rec["measurement_unit"]),
		}
		if err := l.Validator.Validate(in); err != nil {
			rep.Skipped = append(rep.Skipped, skipReason(i, err))
			continue
		}
		_, created, err := l.Ingredients.GetOrCreate(ctx, in)
		if err != nil {
			return rep, fmt.Errorf("ingredient %q: %w", in.Name, err)
		}
		if created {
			rep.Created++
		} else {
			rep.Existed++
		}
	}
	return rep, nil
}

// LoadTags creates tags; a tag whose name or slug is taken counts as existing.
func (l *Loader) LoadTags(ctx context.Context, recs []map[string]string) (Report, error) {
	var rep Report
	for i, rec := range recs {
		in := tag.Input{
			Name: strings.TrimSpace(rec["name"]),
			Slug: strings.TrimSpace(rec["slug"]),
		}
		if err := l.Validator.Validate(in); err != nil {
			rep.Skipped = append(rep.Skipped, skipReason(i, err))
			continue
		}
		_, err := l.Tags.Create(ctx, in)
		switch {
		case err == nil:
			rep.Created++
		case errors.Is(err, apperr.ErrConflict):
			rep.Existed++
		default:
			return rep, fmt.Errorf("tag %q: %w", in.Slug, err)
		}
	}
	return rep, nil
}

func skipReason(i int, err error) string {
	fields := apperr.Details(err)
	parts := make([]string, 0, len(fields))
	for k, v := range fields {
		parts = append(parts, k+" "+v)
	}
	if len(parts) == 0 {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("record %d: %s", i+1, strings.Join(parts, "; "))
}
