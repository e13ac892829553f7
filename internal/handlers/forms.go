package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

type credentialsForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type changePasswordForm struct {
	CurrentPassword    string `form:"current_password" binding:"required"`
	NewPassword        string `form:"new_password" binding:"required,min=8"`
	ConfirmNewPassword string `form:"confirm_new_password" binding:"required,eqfield=NewPassword"`
}

// productForm keeps Price as text so the page can echo back what was typed.
type productForm struct {
	Name        string `form:"name" binding:"required,max=200"`
	Description string `form:"description" binding:"max=2000"`
	Price       string `form:"price" binding:"required"`
	ImageURL    string `form:"image_url" binding:"omitempty,url"`
}

// fieldErrors turns a binding error into per-field messages keyed by struct field name.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["Form"] = "Invalid form submission."
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		return fmt.Sprintf("Must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters long.", fe.Param())
	case "eqfield":
		return "Passwords must match."
	case "url":
		return "Must be a valid URL."
	default:
		return "Invalid value."
	}
}
