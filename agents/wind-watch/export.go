package windwatch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"neurowind/internal/models"
)

// CSVFileName is the download name of the per-hour export.
const CSVFileName = "neurometeo.csv"

var csvHeader = []string{"Hour", "Wind", "NormalizedWind", "Spike", "NeuronOutput", "PredictedWind"}

// WriteCSV writes rows with a header line. Hours without a forecast get an
// empty PredictedWind cell.
func WriteCSV(w io.Writer, rows []models.HourRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		predicted := ""
		if row.PredictedWind != nil {
			predicted = formatFloat(*row.PredictedWind)
		}
		record := []string{
			strconv.Itoa(row.Hour),
			formatFloat(row.Wind),
			formatFloat(row.NormalizedWind),
			strconv.Itoa(row.Spike),
			formatFloat(row.NeuronOutput),
			predicted,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", row.Hour, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses an export produced by WriteCSV.
func ReadCSV(r io.Reader) ([]models.HourRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, name := range csvHeader {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected CSV column %d: got %q, want %q", i+1, header[i], name)
		}
	}

	var rows []models.HourRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		row, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(record []string) (models.HourRow, error) {
	var row models.HourRow
	var err error

	if row.Hour, err = strconv.Atoi(record[0]); err != nil {
		return row, fmt.Errorf("invalid Hour %q: %w", record[0], err)
	}
	if row.Wind, err = strconv.ParseFloat(record[1], 64); err != nil {
		return row, fmt.Errorf("invalid Wind %q: %w", record[1], err)
	}
	if row.NormalizedWind, err = strconv.ParseFloat(record[2], 64); err != nil {
		return row, fmt.Errorf("invalid NormalizedWind %q: %w", record[2], err)
	}
	if row.Spike, err = strconv.Atoi(record[3]); err != nil {
		return row, fmt.Errorf("invalid Spike %q: %w", record[3], err)
	}
	if row.NeuronOutput, err = strconv.ParseFloat(record[4], 64); err != nil {
		return row, fmt.Errorf("invalid NeuronOutput %q: %w", record[4], err)
	}
	if record[5] != "" {
		v, err := strconv.ParseFloat(record[5], 64)
		if err != nil {
			return row, fmt.Errorf("invalid PredictedWind %q: %w", record[5], err)
		}
		row.PredictedWind = &v
	}
	return row, nil
}

// WindColumn extracts the raw wind series from rows.
func WindColumn(rows []models.HourRow) []float64 {
	wind := make([]float64, len(rows))
	for i, row := range rows {
		wind[i] = row.Wind
	}
	return wind
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
