package data

import "github.com/evoquant/dna-engine/pkg/types"

// Provider loads historical bar series from a source
type Provider interface {
	// GetName returns the name of the data provider
	GetName() string

	// LoadData loads a bar series from the given source
	LoadData(source string) ([]types.Bar, error)

	// ValidateData validates the integrity of a loaded series
	ValidateData(data []types.Bar) error
}

// CSVColumnMapping describes how to read a CSV file's columns
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVFormat is the standard exchange-export layout:
// timestamp,open,high,low,close,volume
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}
