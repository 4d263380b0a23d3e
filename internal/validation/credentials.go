// Package validation содержит проверки пользовательского ввода.
package validation

import "strings"

const minPasswordLength = 6

// IsValidEmail проверяет, что строка похожа на адрес электронной почты:
// непустая локальная часть, один символ @ и домен с точкой.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}

	return !strings.ContainsAny(email, " \t")
}

// IsValidPassword проверяет минимальную длину пароля.
func IsValidPassword(password string) bool {
	return len(password) >= minPasswordLength
}
