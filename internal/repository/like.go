// Package repository holds helpers shared by the asset store backends.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when an update targets an id that matches no row.
var ErrNotFound = errors.New("asset not found")

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters so search text matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
