package dispatch

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tournevent/courier/pkg/shipper"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// trimDetails strips surrounding whitespace from every text field so that
// blank input fails "required".
func trimDetails(d shipper.DeliveryDetails) shipper.DeliveryDetails {
	d.RecipientName = strings.TrimSpace(d.RecipientName)
	d.RecipientPhone = strings.TrimSpace(d.RecipientPhone)
	d.RecipientAddress = strings.TrimSpace(d.RecipientAddress)
	d.City = strings.TrimSpace(d.City)
	d.Area = strings.TrimSpace(d.Area)
	d.SpecialInstruction = strings.TrimSpace(d.SpecialInstruction)
	return d
}

// validateDetails turns validator failures into a single validation error.
func (s *Service) validateDetails(carrier shipper.Carrier, d shipper.DeliveryDetails) error {
	err := s.validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shipper.ValidationError(string(carrier), err.Error())
	}
	msgs := make([]string, len(verrs))
	for i, e := range verrs {
		msgs[i] = fmt.Sprintf("%s %s", e.Field(), validationMessage(e))
	}
	return shipper.ValidationError(string(carrier), strings.Join(msgs, "; "))
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be greater than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}
