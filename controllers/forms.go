package controllers

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
)

const (
	msgRequired     = "This field is required."
	msgInvalidGroup = "Select a valid choice. That choice is not one of the available choices."
	msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgImageTooBig  = "Upload a file smaller than 5 MB."

	maxImageSize = 5 << 20
)

// postForm is the new/edit post form. Group is the id of the chosen group or empty.
type postForm struct {
	Text  string `form:"text" binding:"required"`
	Group string `form:"group"`
}

type commentForm struct {
	Text string `form:"text" binding:"required"`
}

type loginForm struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
	Next     string `form:"next" json:"-"`
}

type signupForm struct {
	Username      string `form:"username" binding:"required,max=150"`
	Email         string `form:"email" binding:"omitempty,email"`
	Password1     string `form:"password1" binding:"required,min=8"`
	Password2     string `form:"password2" binding:"required,eqfield=Password1"`
	CaptchaID     string `form:"captcha_id"`
	CaptchaAnswer string `form:"captcha_answer"`
}

// bindForm binds the request into form and returns validation failures keyed by form field name.
// An empty map means the form is valid.
func bindForm(ctx *gin.Context, form interface{}) map[string]string {
	errs := map[string]string{}
	err := ctx.ShouldBind(form)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["form"] = "The submitted form could not be read."
		return errs
	}
	t := reflect.TypeOf(form).Elem()
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if tag := strings.Split(f.Tag.Get("form"), ",")[0]; tag != "" {
				name = tag
			}
		}
		errs[name] = validationMessage(fe)
	}
	return errs
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Ensure this value has at least " + fe.Param() + " characters."
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "eqfield":
		return "The two password fields didn't match."
	}
	return "Enter a valid value."
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func utoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
