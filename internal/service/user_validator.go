package service

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "userapi/internal/errors"
)

// UserInput is a request payload after type normalization.
type UserInput struct {
	Name                 string `json:"name" validate:"required,max=191"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation"`
	Age                  string `json:"age" validate:"required,is_numeric,fits_decimal=8 2"`
	Gender               string `json:"gender" validate:"required,oneof=Female Male"`
	Address              string `json:"address" validate:"required"`
}

// ageScale matches the scale of the age column.
const ageScale = 2

// AgeDecimal returns the validated age rounded to the column scale, so the
// value handed back to the client is the one that gets stored. Only call it
// on validated input.
func (in UserInput) AgeDecimal() decimal.Decimal {
	age, err := decimal.NewFromString(in.Age)
	if err != nil {
		return decimal.Zero
	}
	return roundDecimal(age, ageScale)
}

// EmailChecker answers the uniqueness rule for email.
type EmailChecker interface {
	EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error)
}

// UserValidator checks user payloads for create and update.
type UserValidator struct {
	validate *validator.Validate
	emails   EmailChecker
}

// NewUserValidator creates a validator backed by emails for the uniqueness rule.
func NewUserValidator(emails EmailChecker) *UserValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("is_numeric", isNumeric)
	_ = v.RegisterValidation("fits_decimal", fitsDecimal)
	return &UserValidator{validate: v, emails: emails}
}

// Validate normalizes payload and checks every rule. exceptID excludes one
// user from the email uniqueness rule (0 for create). Rule violations are
// returned as *errors.ValidationError; any other error is a storage fault.
func (v *UserValidator) Validate(ctx context.Context, payload map[string]interface{}, exceptID uint) (*UserInput, error) {
	input, verr := normalizeUserInput(payload)

	if err := v.validate.Struct(input); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, fmt.Errorf("validate user: %w", err)
		}
		for _, fe := range fieldErrs {
			// a type error already explains this field
			if verr.Has(fe.Field()) {
				continue
			}
			verr.Add(fe.Field(), validationMessage(fe.Field(), fe.Tag(), fe.Param()))
		}
	}

	if input.Password != "" && input.Password != input.PasswordConfirmation {
		verr.Add("password", "The password confirmation does not match.")
	}

	if !verr.Has("email") && v.emails != nil {
		taken, err := v.emails.EmailTaken(ctx, input.Email, exceptID)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add("email", "The email has already been taken.")
		}
	}

	if !verr.Empty() {
		return nil, verr
	}
	return &input, nil
}

// normalizeUserInput converts a decoded payload into UserInput. Values of the
// wrong JSON type are reported instead of coerced.
func normalizeUserInput(payload map[string]interface{}) (UserInput, *apperrors.ValidationError) {
	verr := &apperrors.ValidationError{}
	var in UserInput

	in.Name = stringField(payload, "name", true, verr)
	in.Email = stringField(payload, "email", true, verr)
	in.Password = stringField(payload, "password", false, verr)
	in.PasswordConfirmation = stringField(payload, "password_confirmation", false, nil)
	in.Gender = stringField(payload, "gender", true, verr)
	in.Address = stringField(payload, "address", true, verr)
	in.Age = numericField(payload, "age", verr)

	return in, verr
}

// stringField reads key as a string. Strings are trimmed unless trim is false;
// a non-string value is recorded on verr (when non-nil) and read as empty.
func stringField(payload map[string]interface{}, key string, trim bool, verr *apperrors.ValidationError) string {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		if verr != nil {
			verr.Add(key, typeMessage(key))
		}
		return ""
	}
	if trim {
		return strings.TrimSpace(s)
	}
	return s
}

// numericField accepts JSON numbers and numeric strings.
func numericField(payload map[string]interface{}, key string, verr *apperrors.ValidationError) string {
	switch v := payload[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		verr.Add(key, validationMessage(key, "numeric", ""))
		return ""
	}
}

func typeMessage(field string) string {
	switch field {
	case "email":
		return validationMessage(field, "email", "")
	case "gender":
		return validationMessage(field, "oneof", "")
	default:
		return fmt.Sprintf("The %s must be a string.", attribute(field))
	}
}

func validationMessage(field, rule, param string) string {
	attr := attribute(field)
	switch rule {
	case "required":
		return fmt.Sprintf("The %s field is required.", attr)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", attr)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", attr, param)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", attr, param)
	case "numeric", "is_numeric":
		return fmt.Sprintf("The %s must be a number.", attr)
	case "fits_decimal":
		precision, scale, _ := decimalParams(param)
		bound := decimalBound(precision, scale).StringFixed(scale)
		return fmt.Sprintf("The %s must be between -%s and %s.", attr, bound, bound)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", attr)
	default:
		return fmt.Sprintf("The %s is invalid.", attr)
	}
}

func attribute(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// isNumeric accepts the forms a numeric column can take: integers, decimals
// with or without a leading digit (".5"), an optional sign and an exponent
// ("1e3").
func isNumeric(fl validator.FieldLevel) bool {
	_, err := decimal.NewFromString(fl.Field().String())
	return err == nil
}

// fitsDecimal reports whether the field, rounded to scale, fits a
// DECIMAL(precision, scale) column. The param is "precision scale".
func fitsDecimal(fl validator.FieldLevel) bool {
	precision, scale, ok := decimalParams(fl.Param())
	if !ok {
		return false
	}
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	if d.IsZero() {
		return true
	}
	if integerDigits(d) > int64(precision-scale) {
		return false
	}
	return roundDecimal(d, scale).Abs().LessThanOrEqual(decimalBound(precision, scale))
}

func decimalParams(param string) (precision, scale int32, ok bool) {
	parts := strings.Fields(param)
	if len(parts) != 2 {
		return 0, 0, false
	}
	p, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	s, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil || s < 0 || s > p {
		return 0, 0, false
	}
	return int32(p), int32(s), true
}

// decimalBound is the largest magnitude a DECIMAL(precision, scale) holds.
func decimalBound(precision, scale int32) decimal.Decimal {
	return decimal.New(1, precision-scale).Sub(decimal.New(1, -scale))
}

// integerDigits is the position of the most significant digit relative to
// the decimal point, read off the coefficient without scaling it.
func integerDigits(d decimal.Decimal) int64 {
	return int64(len(d.Abs().Coefficient().String())) + int64(d.Exponent())
}

// roundDecimal rounds d to scale places. Values too small to survive the
// rounding short-circuit to zero; rescaling "1e-999999999" is not cheap.
func roundDecimal(d decimal.Decimal, scale int32) decimal.Decimal {
	if d.IsZero() || integerDigits(d) < -int64(scale)-1 {
		return decimal.Zero
	}
	return d.Round(scale)
}
