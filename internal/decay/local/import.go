package local

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fisdef/internal/logging"
	"fisdef/internal/nuclide"
)

// Import loads a CSV table into the store and returns the number of rows.
//
// The header names the columns. Required: radiation, energy_kev, intensity
// (fraction), and either nuclide ("Co60", "Tc99m") or z and a (state
// optional, default 0).
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"radiation", "energy_kev", "intensity"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("missing %q column", required)
		}
	}
	_, byName := col["nuclide"]
	_, hasZ := col["z"]
	_, hasA := col["a"]
	if !byName && !(hasZ && hasA) {
		return 0, errors.New("missing nuclide or z/a columns")
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}

		row, err := parseRow(rec, col, byName)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	if err := s.Put(ctx, rows); err != nil {
		return 0, err
	}
	logging.Get(logging.CategoryDecay).Infof("imported %d decay lines into %s", len(rows), s.dbPath)
	return len(rows), nil
}

func parseRow(rec []string, col map[string]int, byName bool) (Row, error) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var row Row
	if byName {
		id, err := nuclide.Parse(field("nuclide"))
		if err != nil {
			return row, err
		}
		row.Nuclide = id
	} else {
		z, err := strconv.Atoi(field("z"))
		if err != nil {
			return row, fmt.Errorf("invalid z: %w", err)
		}
		a, err := strconv.Atoi(field("a"))
		if err != nil {
			return row, fmt.Errorf("invalid a: %w", err)
		}
		state := 0
		if s := field("state"); s != "" {
			if state, err = nuclide.ParseState(s); err != nil {
				return row, err
			}
		}
		row.Nuclide = nuclide.ID{Z: z, A: a, State: state}
	}

	row.Code = strings.ToLower(field("radiation"))
	if !validCode(row.Code) {
		return row, fmt.Errorf("invalid radiation code %q", row.Code)
	}

	var err error
	if row.EnergyKeV, err = strconv.ParseFloat(field("energy_kev"), 64); err != nil {
		return row, fmt.Errorf("invalid energy: %w", err)
	}
	if row.Intensity, err = strconv.ParseFloat(field("intensity"), 64); err != nil {
		return row, fmt.Errorf("invalid intensity: %w", err)
	}
	return row, nil
}
