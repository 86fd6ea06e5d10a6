package handlers

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ravijp/portfolio-advisor/pkg/models"
)

// tickerPattern accepts exchange symbols such as RELIANCE, M&M, BAJAJ-AUTO.NS
var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9&_.-]{0,19}$`)

func validTicker(fl validator.FieldLevel) bool {
	return tickerPattern.MatchString(fl.Field().String())
}

func validHorizon(fl validator.FieldLevel) bool {
	return models.Horizon(fl.Field().String()).Valid()
}

// RegisterValidators adds the custom binding rules to gin's validator
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("ticker", validTicker); err != nil {
		return err
	}
	return v.RegisterValidation("horizon", validHorizon)
}
