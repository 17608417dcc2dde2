package credential

import "errors"

// ErrNotLinked у пользователя нет подключенного аккаунта Google
var ErrNotLinked = errors.New("google account is not linked")
