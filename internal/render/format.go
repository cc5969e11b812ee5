package render

import (
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DefaultLocale = "es-ES"
	DateLayout    = "2/1/2006"
)

// Formatter prints numbers the way visitors of the configured locale read them.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.MustParse(DefaultLocale)
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

func (f *Formatter) Locale() string {
	return f.tag.String()
}

// Int groups thousands, e.g. 1234567 -> "1.234.567" for es-ES.
func (f *Formatter) Int(n int64) string {
	return f.printer.Sprintf("%d", n)
}

// Rating always uses one decimal and a dot.
func Rating(avg float64) string {
	return strconv.FormatFloat(avg, 'f', 1, 64)
}

func Date(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.UTC().Format(DateLayout)
}
