package account

import "errors"

// Kind - вид ошибки сервиса. Транспортный слой выбирает код ответа по Kind.
type Kind int

const (
	// KindInternal - сбой хранилища или другая непредвиденная ошибка.
	KindInternal Kind = iota
	KindDuplicateEmail
	KindDuplicateUsername
	KindUserNotFound
	KindInvalidCredentials
	KindIncorrectOldPassword
	KindIncorrectPassword
	KindInvalidInput
	// KindConfiguration - в справочнике нет аватара по умолчанию.
	KindConfiguration
)

var kindNames = map[Kind]string{
	KindInternal:             "internal",
	KindDuplicateEmail:       "duplicate_email",
	KindDuplicateUsername:    "duplicate_username",
	KindUserNotFound:         "user_not_found",
	KindInvalidCredentials:   "invalid_credentials",
	KindIncorrectOldPassword: "incorrect_old_password",
	KindIncorrectPassword:    "incorrect_password",
	KindInvalidInput:         "invalid_input",
	KindConfiguration:        "configuration",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error - ошибка сервиса с видом и необязательной причиной.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по виду, так что errors.Is(err, ErrUserNotFound)
// срабатывает и для обёрнутых ошибок с причиной.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Ошибки-образцы для errors.Is.
var (
	ErrDuplicateEmail       = &Error{Kind: KindDuplicateEmail, Msg: "email already exists"}
	ErrDuplicateUsername    = &Error{Kind: KindDuplicateUsername, Msg: "username already exists"}
	ErrUserNotFound         = &Error{Kind: KindUserNotFound, Msg: "user not found"}
	ErrInvalidCredentials   = &Error{Kind: KindInvalidCredentials, Msg: "invalid credentials"}
	ErrIncorrectOldPassword = &Error{Kind: KindIncorrectOldPassword, Msg: "incorrect old password"}
	ErrIncorrectPassword    = &Error{Kind: KindIncorrectPassword, Msg: "incorrect password"}
)

// KindOf возвращает вид ошибки. Ошибки не из этого пакета считаются KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}
