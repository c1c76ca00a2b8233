package ui

import "fmt"

const (
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m" // Bright black, often appears as gray

	ResetColor = "\033[0m"
)

var MethodColors = map[string]string{
	"GET":    Green,
	"POST":   Blue,
	"PUT":    Cyan,
	"DELETE": Yellow,
}

// Method pads method to a fixed width and colours it by verb.
func Method(method string) string {
	padded := fmt.Sprintf(" %-7s", method)
	if color, ok := MethodColors[method]; ok {
		return color + padded + ResetColor
	}
	return Gray + padded + ResetColor
}

// Status colours an HTTP status code: red for errors, green otherwise.
func Status(code int) string {
	if code >= 400 {
		return fmt.Sprintf("%s%d%s", Red, code, ResetColor)
	}
	return fmt.Sprintf("%s%d%s", Green, code, ResetColor)
}
