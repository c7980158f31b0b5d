package account

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ParseFormat parses an export format name.
func ParseFormat(value string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", ErrUnknownFormat
}

// Export encodes records in the given format.
func Export(records []Record, format Format) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}

	switch format {
	case FormatTXT:
		lines := make([]string, 0, len(records))
		for _, rec := range records {
			lines = append(lines, rec.Username+":"+rec.Password)
		}
		return []byte(strings.Join(lines, "\n")), nil
	case FormatCSV:
		return exportCSV(records)
	case FormatJSON:
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding accounts: %w", err)
		}
		return data, nil
	case FormatRAM:
		var secrets []string
		for _, rec := range records {
			if rec.Secret != nil && *rec.Secret != "" {
				secrets = append(secrets, *rec.Secret)
			}
		}
		return []byte(strings.Join(secrets, "\n")), nil
	default:
		return nil, ErrUnknownFormat
	}
}

func exportCSV(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Username", "Password", "Email", "Created"}); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for _, rec := range records {
		email := ""
		if rec.Email != nil {
			email = *rec.Email
		}
		row := []string{rec.Username, rec.Password, email, rec.CreatedAt.UTC().Format(time.RFC3339Nano)}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename returns the download name for an export taken at now.
func Filename(format Format, now time.Time) string {
	base := fmt.Sprintf("accounts_%d", now.UnixMilli())
	if format == FormatRAM {
		return base + "_ram.txt"
	}
	return base + "." + string(format)
}

// ContentType returns the MIME type of an export.
func ContentType(format Format) string {
	switch format {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain"
	}
}
