package scorecard

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks option ranges (month 1-12, plausible year).
func (o Options) Validate() error {
	if err := Validator().Struct(o); err != nil {
		return eris.Wrap(err, "scorecard: invalid options")
	}
	return nil
}
