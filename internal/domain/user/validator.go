package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	MaxEmailLen    = 254
	MinPasswordLen = 8
	MaxPasswordLen = 72
)

// Validator - интерфейс для валидации пользовательских данных
type Validator interface {
	ValidateRegister(email, password string) error
	ValidateEmail(email string) error
	ValidatePassword(password string) error
}

type PasswordValidator struct {
	validate     *validator.Validate
	requireDigit bool
	requireUpper bool
	requireLower bool
}

// NewPasswordValidator создает валидатор: буква в нижнем регистре и цифра обязательны
func NewPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		validate:     validator.New(),
		requireDigit: true,
		requireLower: true,
	}
}

// ValidateRegister валидирует данные для регистрации
func (v *PasswordValidator) ValidateRegister(email, password string) error {
	if err := v.ValidateEmail(email); err != nil {
		return fmt.Errorf("email validation failed: %w", err)
	}

	if err := v.ValidatePassword(password); err != nil {
		return fmt.Errorf("password validation failed: %w", err)
	}

	return nil
}

// ValidateEmail валидирует адрес почты
func (v *PasswordValidator) ValidateEmail(email string) error {
	if len(email) > MaxEmailLen {
		return fmt.Errorf("email must be at most %d characters", MaxEmailLen)
	}
	if err := v.validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("email is not valid")
	}
	return nil
}

// ValidatePassword валидирует пароль
func (v *PasswordValidator) ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}
	// bcrypt отбрасывает все, что длиннее 72 байт
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must be at most %d bytes", MaxPasswordLen)
	}

	hasLower := strings.IndexFunc(password, unicode.IsLower) >= 0
	hasUpper := strings.IndexFunc(password, unicode.IsUpper) >= 0
	hasDigit := strings.IndexFunc(password, unicode.IsDigit) >= 0

	if v.requireLower && !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}

	if v.requireUpper && !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}

	if v.requireDigit && !hasDigit {
		return fmt.Errorf("password must contain at least one digit")
	}

	return nil
}

// NormalizeEmail приводит адрес к виду, в котором он хранится
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
