package registry

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var taskNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func init() {
	_ = validate.RegisterValidation("taskname", validateTaskName)
}

func validateTaskName(fl validator.FieldLevel) bool {
	return taskNameRe.MatchString(fl.Field().String())
}

func validateTask(t *Task) error {
	return validate.Struct(t)
}
