package filename

import (
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/tagfile/internal/apperr"
)

// Range is the inclusive counter range used to disambiguate composed names.
type Range struct {
	Min int `yaml:"counter_min"`
	Max int `yaml:"counter_max"`
}

// DefaultRange is the four-digit counter range [1000, 9999].
var DefaultRange = Range{Min: 1000, Max: 9999}

// Validate checks that the range is non-negative and ordered.
func (r Range) Validate() error {
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.Min, validation.Min(0)),
		validation.Field(&r.Max, validation.Min(0)),
	); err != nil {
		return err
	}
	if r.Max < r.Min {
		return fmt.Errorf("counter_max %d is below counter_min %d", r.Max, r.Min)
	}
	return nil
}

// String renders the range as "[min-max]".
func (r Range) String() string {
	return fmt.Sprintf("[%d-%d]", r.Min, r.Max)
}

// WithCounter returns "<baseWithTags> - <counter><ext>".
func WithCounter(baseWithTags string, counter int, ext string) string {
	return baseWithTags + MainSeparator + strconv.Itoa(counter) + ext
}

// Resolve returns the lowest-counter candidate "<baseWithTags> - <n><ext>"
// that is free according to exists. A candidate equal to ignore counts as
// free, which lets a file preview its own current name. When every counter
// in r is taken it returns apperr.ErrCounterExhausted.
func Resolve(baseWithTags, ext string, exists func(string) bool, ignore string, r Range) (string, error) {
	for counter := r.Min; counter <= r.Max; counter++ {
		candidate := WithCounter(baseWithTags, counter, ext)
		if (ignore != "" && candidate == ignore) || !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s%s%s%s: %w", baseWithTags, MainSeparator, r, ext, apperr.ErrCounterExhausted)
}
