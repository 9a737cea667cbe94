package service

import "fmt"

// здесь происходит проверка ошибок бизнес-логики

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func NewNotFound(resource string, id string) *BusinessError {
	return &BusinessError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %s не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewConflict(field string) *BusinessError {
	return &BusinessError{
		Code:    "CONFLICT",
		Message: fmt.Sprintf("Значение поля '%s' уже занято", field),
		Details: map[string]any{
			"field": field,
		},
	}
}

// NewUnauthorized нарочно не уточняет, что именно не так с учётными
// данными: неверный логин и неверный пароль выглядят одинаково.
func NewUnauthorized() *BusinessError {
	return &BusinessError{
		Code:    "UNAUTHORIZED",
		Message: "Неверные учётные данные",
		Details: map[string]any{},
	}
}
