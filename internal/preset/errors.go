package preset

import "errors"

var (
	// ErrNameInUse - имя уже занято другим пресетом.
	ErrNameInUse = errors.New("имя уже используется другим пресетом")

	// ErrNotFound - пресет не найден.
	ErrNotFound = errors.New("пресет не найден")

	// ErrEmptyName - пустое имя пресета.
	ErrEmptyName = errors.New("имя пресета не может быть пустым")

	// ErrAlreadyAttached - пресет уже принадлежит менеджеру.
	ErrAlreadyAttached = errors.New("пресет уже добавлен в менеджер")

	// ErrUnknownField - неизвестное поле в описании пресета.
	ErrUnknownField = errors.New("неизвестное поле пресета")
)
