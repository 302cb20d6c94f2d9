package utils

import "strings"

// MaskReceiver — прячем адрес доставки кода в ответах API:
// a****z@mail.com, +7701***4567.
func MaskReceiver(receiver string) string {
	if at := strings.Index(receiver, "@"); at > 0 {
		local := receiver[:at]
		if len(local) <= 2 {
			return strings.Repeat("*", len(local)) + receiver[at:]
		}
		return local[:1] + strings.Repeat("*", len(local)-2) + local[len(local)-1:] + receiver[at:]
	}
	if len(receiver) <= 7 {
		return strings.Repeat("*", len(receiver))
	}
	return receiver[:len(receiver)-7] + "***" + receiver[len(receiver)-4:]
}
