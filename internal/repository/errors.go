package repository

import "errors"

// ErrNotFound возвращается и когда записи нет, и когда она принадлежит
// другому владельцу: снаружи эти случаи неразличимы.
var ErrNotFound = errors.New("запись не найдена")

// ErrDuplicate — нарушение уникальности (username или email уже заняты).
var ErrDuplicate = errors.New("запись уже существует")
