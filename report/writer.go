package report

import (
	"fmt"
	"io"
	"time"

	"balance-report/config"
)

// Header is the first line of every report.
const Header = "Date, Exchange, Currency, Type, Amount"

const (
	patternLayout = "2006-01-02 15:04:05"
	// en-US full date time, e.g. "October 18, 2026 at 3:04 PM JST"
	localeLayout = "January 2, 2006 at 3:04 PM MST"
)

// FormatTimestamp renders t in loc using one of the config.Timestamp* formats.
func FormatTimestamp(t time.Time, format string, loc *time.Location) (string, error) {
	if loc != nil {
		t = t.In(loc)
	}
	switch format {
	case config.TimestampPattern, "":
		return t.Format(patternLayout), nil
	case config.TimestampLocale:
		return t.Format(localeLayout), nil
	}
	return "", fmt.Errorf("unknown timestamp format %q", format)
}

// Writer emits rows line by line; nothing is buffered between rows.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) WriteHeader() error {
	_, err := fmt.Fprintln(w.w, Header)
	return err
}

func (w *Writer) Write(row BalanceRow) error {
	_, err := fmt.Fprintf(w.w, "%s, %s, %s, %s, %s\n",
		row.Timestamp, row.Exchange, row.Currency, row.Type, row.Amount.String())
	return err
}
