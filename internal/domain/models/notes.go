package models

import "fmt"

func RedirectNote(code int) string {
	return fmt.Sprintf(noteRedirect, code)
}

func ErrorStatusNote(code int) string {
	return fmt.Sprintf(noteErrorStatus, code)
}

func TransportErrorNote(detail string) string {
	return fmt.Sprintf(noteTransportFail, detail)
}
