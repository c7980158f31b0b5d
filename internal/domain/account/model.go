package account

import "time"

// Record is one produced account. Records are immutable once appended.
type Record struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Email     *string   `json:"email"`
	Secret    *string   `json:"secret"`
	CreatedAt time.Time `json:"createdAt"`
}

// Format is an export encoding.
type Format string

const (
	FormatTXT  Format = "txt"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatRAM  Format = "ram"
)

// Formats lists the supported export encodings.
var Formats = []Format{FormatTXT, FormatCSV, FormatJSON, FormatRAM}
