package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/pkg/types"
)

// CSVProvider implements Provider for CSV files
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a new CSV data provider with default format
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{
		format: DefaultCSVFormat,
	}
}

// NewCSVProviderWithFormat creates a new CSV data provider with custom format
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{
		format: format,
	}
}

// GetName returns the name of the data provider
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData loads a bar series from a CSV file. Malformed rows are skipped
// with a warning; the assembled series is then validated as a whole.
func (p *CSVProvider) LoadData(source string) ([]types.Bar, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorCategoryData, "csv_provider", "open")
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, errors.WrapError(err, errors.ErrorCategoryData, "csv_provider", "read_header")
	}

	format := p.format
	var data []types.Bar

	lineNum := 1 // Start from 1 since we already read header
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.NewDataError("csv_provider", "read",
				fmt.Sprintf("error reading CSV at line %d: %v", lineNum, err))
		}
		lineNum++

		if len(record) < format.MinColumns {
			log.Printf("⚠️ Insufficient columns at line %d (expected %d, got %d), skipping", lineNum, format.MinColumns, len(record))
			continue
		}

		timestamp, err := time.Parse(format.DateFormat, record[format.TimestampCol])
		if err != nil {
			log.Printf("⚠️ Invalid timestamp '%s' at line %d, skipping: %v", record[format.TimestampCol], lineNum, err)
			continue
		}

		open, err := strconv.ParseFloat(record[format.OpenCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid open price '%s' at line %d, skipping: %v", record[format.OpenCol], lineNum, err)
			continue
		}

		high, err := strconv.ParseFloat(record[format.HighCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid high price '%s' at line %d, skipping: %v", record[format.HighCol], lineNum, err)
			continue
		}

		low, err := strconv.ParseFloat(record[format.LowCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid low price '%s' at line %d, skipping: %v", record[format.LowCol], lineNum, err)
			continue
		}

		close, err := strconv.ParseFloat(record[format.CloseCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid close price '%s' at line %d, skipping: %v", record[format.CloseCol], lineNum, err)
			continue
		}

		volume, err := strconv.ParseFloat(record[format.VolumeCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid volume '%s' at line %d, skipping: %v", record[format.VolumeCol], lineNum, err)
			continue
		}

		if open <= 0 || high <= 0 || low <= 0 || close <= 0 {
			log.Printf("⚠️ Invalid price data (negative or zero) at line %d, skipping", lineNum)
			continue
		}

		data = append(data, types.Bar{
			Timestamp: timestamp,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
		})
	}

	if err := p.ValidateData(data); err != nil {
		return nil, err
	}
	return data, nil
}

// ValidateData validates the integrity of a loaded series: positive prices,
// consistent high/low envelopes, and strictly increasing timestamps with no
// duplicates.
func (p *CSVProvider) ValidateData(data []types.Bar) error {
	if len(data) == 0 {
		return errors.NewDataError("csv_provider", "validate", "no data provided")
	}

	for i, candle := range data {
		if candle.Open <= 0 || candle.High <= 0 || candle.Low <= 0 || candle.Close <= 0 {
			return errors.NewDataError("csv_provider", "validate",
				fmt.Sprintf("invalid price data at index %d: prices must be positive", i))
		}

		if candle.High < candle.Low {
			return errors.NewDataError("csv_provider", "validate",
				fmt.Sprintf("invalid price data at index %d: high (%.4f) cannot be less than low (%.4f)",
					i, candle.High, candle.Low))
		}

		if candle.High < candle.Open || candle.High < candle.Close {
			return errors.NewDataError("csv_provider", "validate",
				fmt.Sprintf("invalid price data at index %d: high (%.4f) must be >= open (%.4f) and close (%.4f)",
					i, candle.High, candle.Open, candle.Close))
		}

		if candle.Low > candle.Open || candle.Low > candle.Close {
			return errors.NewDataError("csv_provider", "validate",
				fmt.Sprintf("invalid price data at index %d: low (%.4f) must be <= open (%.4f) and close (%.4f)",
					i, candle.Low, candle.Open, candle.Close))
		}

		if i > 0 && !candle.Timestamp.After(data[i-1].Timestamp) {
			return errors.NewDataError("csv_provider", "validate",
				fmt.Sprintf("invalid timestamp sequence at index %d: timestamps must be strictly increasing", i))
		}
	}

	return nil
}
