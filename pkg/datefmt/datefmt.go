// Package datefmt convierte las fechas del formulario (ISO) al formato que
// esperan los servicios del banco (día-mes-año).
package datefmt

import (
	"fmt"
	"strings"
	"time"
)

const (
	// ISOLayout formato de los inputs type=date: yyyy-mm-dd.
	ISOLayout = "2006-01-02"
	// APILayout formato de los servicios remotos: dd-mm-yyyy.
	APILayout = "02-01-2006"
)

// ISOToAPI convierte "yyyy-mm-dd" a "dd-mm-yyyy".
// Cadena vacía devuelve cadena vacía sin error (fecha no informada).
func ISOToAPI(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t, err := time.Parse(ISOLayout, s)
	if err != nil {
		return "", fmt.Errorf("datefmt: fecha %q no tiene formato yyyy-mm-dd", s)
	}
	return t.Format(APILayout), nil
}
