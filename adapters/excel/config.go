package excel

// ReaderConfig controls how spreadsheet files are turned into datasets
type ReaderConfig struct {
	// Sheet names the worksheet to read; empty means the first sheet
	Sheet string `json:"sheet"`
	// MaxRows caps data rows read, 0 for no limit
	MaxRows int `json:"max_rows"`
}

// DefaultReaderConfig reads the whole first sheet
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{}
}

// FileType is the on-disk format of an upload
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
)
