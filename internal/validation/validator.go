package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"decom/internal/model"
	"decom/internal/permission"
	"decom/internal/schedule"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
)

var phoneRe = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{6,19}$`)

// FieldError is one field/message pair returned to clients on a 400.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator plugs into gin binding and reports failures in Spanish.
type Validator struct {
	once       sync.Once
	clock      *schedule.Clock
	validate   *validator.Validate
	translator ut.Translator
}

var _ binding.StructValidator = (*Validator)(nil)

func New(clock *schedule.Clock) *Validator {
	if clock == nil {
		clock = schedule.NewClock(nil)
	}
	return &Validator{clock: clock}
}

// Install makes v the validator used by every gin binding.
func Install(v *Validator) { binding.Validator = v }

func (v *Validator) ValidateStruct(obj any) error {
	if kindOf(obj) != reflect.Struct {
		return nil
	}
	v.lazyinit()
	return v.validate.Struct(obj)
}

func (v *Validator) Engine() any {
	v.lazyinit()
	return v.validate
}

// Translate turns validator errors into field/message pairs. It returns nil
// when err did not come from the validator.
func (v *Validator) Translate(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	v.lazyinit()
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fe.Translate(v.translator)})
	}
	return out
}

func (v *Validator) lazyinit() {
	v.once.Do(func() {
		v.validate = validator.New(validator.WithRequiredStructEnabled())
		v.validate.SetTagName("binding")
		v.validate.RegisterTagNameFunc(fieldName)

		locale := es.New()
		v.translator, _ = ut.New(locale, locale).GetTranslator("es")
		es_translations.RegisterDefaultTranslations(v.validate, v.translator)

		v.validate.RegisterValidation("isodate", isoDate)
		v.validate.RegisterValidation("notpast", v.notPast)
		v.validate.RegisterValidation("phone", phone)
		v.validate.RegisterValidation("reqstatus", requestStatus)
		v.validate.RegisterValidation("role", role)

		v.register("isodate", "{0} debe ser una fecha con formato AAAA-MM-DD")
		v.register("notpast", "{0} no puede ser una fecha pasada")
		v.register("phone", "{0} debe ser un número de teléfono válido")
		v.register("reqstatus", "{0} debe ser uno de: "+strings.Join(model.Statuses, ", "))
		v.register("role", "{0} debe ser un rol válido")
		v.register("required", "{0} es obligatorio")
		v.register("required_if", "{0} es obligatorio")
	})
}

func (v *Validator) register(tag, text string) {
	v.validate.RegisterTranslation(tag, v.translator, func(ut ut.Translator) error {
		return ut.Add(tag, text, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T(tag, fe.Field())
		return t
	})
}

func (v *Validator) notPast(fl validator.FieldLevel) bool {
	d, err := schedule.ParseDate(fl.Field().String())
	if err != nil {
		// isodate reports the format problem
		return true
	}
	return !d.Before(v.clock.Today().Time)
}

func isoDate(fl validator.FieldLevel) bool {
	_, err := schedule.ParseDate(fl.Field().String())
	return err == nil
}

func phone(fl validator.FieldLevel) bool {
	return phoneRe.MatchString(strings.TrimSpace(fl.Field().String()))
}

func requestStatus(fl validator.FieldLevel) bool {
	return model.ValidStatus(fl.Field().String())
}

func role(fl validator.FieldLevel) bool {
	return permission.Valid(fl.Field().String())
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func kindOf(data any) reflect.Kind {
	value := reflect.ValueOf(data)
	kind := value.Kind()
	if kind == reflect.Pointer {
		kind = value.Elem().Kind()
	}
	return kind
}
