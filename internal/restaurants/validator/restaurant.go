package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tabletreats/pkg/logger"
	"tabletreats/pkg/model"
	"tabletreats/pkg/timeslot"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type RestaurantValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewRestaurantValidator(log *logger.Logger) *RestaurantValidator {
	v := validator.New()

	if err := v.RegisterValidation("valid_time", validateTimeString); err != nil {
		log.Fatal("Failed to register 'valid_time' validator",
			"error", err,
		)
	}
	if err := v.RegisterValidation("valid_date", validateDateString); err != nil {
		log.Fatal("Failed to register 'valid_date' validator",
			"error", err,
		)
	}

	log.Info("Restaurant validator initialized successfully")

	return &RestaurantValidator{
		validate: v,
		logger:   log,
	}
}

func validateTimeString(fl validator.FieldLevel) bool {
	_, err := time.Parse(timeslot.TimeLayout, fl.Field().String())
	return err == nil
}

func validateDateString(fl validator.FieldLevel) bool {
	_, err := time.Parse(timeslot.DateLayout, fl.Field().String())
	return err == nil
}

func (v *RestaurantValidator) ValidateHours(hours map[string]model.DayHours) error {
	var errs ValidationErrors

	for day, dh := range hours {
		if !timeslot.IsWeekday(day) {
			errs = append(errs, ValidationError{
				Field:   "hours",
				Message: fmt.Sprintf("%q is not a weekday name", day),
			})
			continue
		}
		if dh.Closed {
			continue
		}
		if _, err := timeslot.MinutesOf(dh.Open); err != nil {
			errs = append(errs, ValidationError{
				Field:   day,
				Message: "open must be a valid HH:MM time",
			})
			continue
		}
		if _, err := timeslot.MinutesOf(dh.Close); err != nil {
			errs = append(errs, ValidationError{
				Field:   day,
				Message: "close must be a valid HH:MM time",
			})
			continue
		}
		if dh.Open > dh.Close {
			errs = append(errs, ValidationError{
				Field:   day,
				Message: "open must not be after close",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *RestaurantValidator) ValidateSeatingConfig(cfg *model.SeatingConfig) error {
	if err := v.validate.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	seen := make(map[string]bool, len(cfg.SeatingAreas))
	for _, area := range cfg.SeatingAreas {
		name := strings.ToLower(strings.TrimSpace(area.AreaName))
		if seen[name] {
			return ValidationErrors{
				ValidationError{
					Field:   "seating_areas",
					Message: fmt.Sprintf("duplicate area name %q", area.AreaName),
				},
			}
		}
		seen[name] = true
	}

	return nil
}

func (v *RestaurantValidator) ValidateDeal(deal *model.Deal) error {
	if err := v.validate.Struct(deal); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.checkDealRules(deal.DiscountType, deal.DiscountValue,
		deal.TimeStart, deal.TimeEnd, deal.StartDate, deal.EndDate)
}

func (v *RestaurantValidator) ValidateDealUpdate(update *model.DealUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.DiscountType != "" {
		if err := v.checkDealRules(update.DiscountType, update.DiscountValue,
			update.TimeStart, update.TimeEnd, update.StartDate, update.EndDate); err != nil {
			return err
		}
	}

	return nil
}

// checkDealRules enforces the cross-field constraints that struct tags
// cannot express: discount value ranges per type and time/date window
// ordering.
func (v *RestaurantValidator) checkDealRules(discountType string, value *float64, timeStart, timeEnd, startDate, endDate string) error {
	switch discountType {
	case model.DiscountPercentage:
		if value == nil || *value < 1 || *value > 100 {
			return ValidationErrors{
				ValidationError{
					Field:   "discount_value",
					Message: "percentage discount must be between 1 and 100",
				},
			}
		}
	case model.DiscountFlatAmount:
		if value == nil || *value <= 0 {
			return ValidationErrors{
				ValidationError{
					Field:   "discount_value",
					Message: "flat_amount discount must be greater than 0",
				},
			}
		}
	case model.DiscountBogo:
		if value != nil {
			return ValidationErrors{
				ValidationError{
					Field:   "discount_value",
					Message: "bogo deals must not carry a discount value",
				},
			}
		}
	}

	if timeStart != "" && timeEnd != "" && timeStart >= timeEnd {
		return ValidationErrors{
			ValidationError{
				Field:   "time_start",
				Message: "time_start must be before time_end",
			},
		}
	}

	if startDate != "" && endDate != "" && startDate > endDate {
		return ValidationErrors{
			ValidationError{
				Field:   "start_date",
				Message: "start_date must not be after end_date",
			},
		}
	}

	return nil
}

func (v *RestaurantValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "valid_time":
			message = fmt.Sprintf("%s must be an HH:MM time", err.Field())
		case "valid_date":
			message = fmt.Sprintf("%s must be a YYYY-MM-DD date", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
