package utils

import (
	"github.com/mojocn/base64Captcha"
)

// Captcha issues and checks digit captchas for the signup form.
type Captcha struct {
	store base64Captcha.Store
}

// NewCaptcha creates a Captcha keeping answers in store.
func NewCaptcha(store base64Captcha.Store) *Captcha {
	return &Captcha{store: store}
}

// Generate creates a captcha and returns (id, dataURI) for the form to display.
func (c *Captcha) Generate() (string, string, error) {
	// digit captcha: height 40, width 120, 5 digits
	driver := base64Captcha.NewDriverDigit(40, 120, 5, 0.7, 80)
	id, b64, _, err := base64Captcha.NewCaptcha(driver, c.store).Generate()
	return id, b64, err
}

// Verify checks the answer and consumes the captcha.
func (c *Captcha) Verify(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}
	return c.store.Verify(id, answer, true)
}
