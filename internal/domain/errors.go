package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("no encontrado")
	ErrInvalidInput = errors.New("datos inválidos")
	ErrCanceled     = errors.New("guardado cancelado")
)

type ValidationIssue struct {
	Index     int    `json:"index"`
	Attribute string `json:"attribute"`
	Message   string `json:"message"`
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("variación %d: %s", i.Index+1, i.Message)
}

// ValidationError agrupa los problemas de la validación previa. Nunca se
// llega a la red cuando aparece.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validación fallida"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0].String()
	}
	return fmt.Sprintf("%s (y %d problemas más)", e.Issues[0].String(), len(e.Issues)-1)
}

// UploadError es la falla de una sola subida; las tandas restantes no se
// ejecutan y lo ya subido no se revierte.
type UploadError struct {
	Index int
	Name  string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("subida de imagen %q: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PersistenceError es una falla completa de una llamada de escritura.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type BatchOp string

const (
	BatchCreate BatchOp = "create"
	BatchUpdate BatchOp = "update"
	BatchDelete BatchOp = "delete"
)

// PartialBatchError es el primer ítem fallido de un lote que llegó bien al
// servidor. Se trata como falla de todo el guardado.
type PartialBatchError struct {
	Op      BatchOp
	Index   int
	ID      int64
	Code    string
	Message string
}

func (e *PartialBatchError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = e.Code
	}
	if e.ID > 0 {
		return fmt.Sprintf("lote de variaciones: %s #%d (id %d): %s", e.Op, e.Index, e.ID, msg)
	}
	return fmt.Sprintf("lote de variaciones: %s #%d: %s", e.Op, e.Index, msg)
}

// PublicMessage arma el mensaje único que se muestra al usuario.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	var ue *UploadError
	var pe *PersistenceError
	var be *PartialBatchError
	switch {
	case errors.As(err, &ve):
		return "Revisá las variaciones: " + ve.Error()
	case errors.As(err, &ue):
		return fmt.Sprintf("No se pudo subir la imagen %q. Reintentá el guardado.", ue.Name)
	case errors.As(err, &be):
		return "Algunas variaciones no se guardaron: " + be.Error()
	case errors.As(err, &pe):
		return "No se pudo guardar el producto: " + pe.Err.Error()
	case errors.Is(err, ErrCanceled):
		return "Guardado cancelado."
	case errors.Is(err, ErrInvalidInput):
		return err.Error()
	case errors.Is(err, ErrNotFound):
		return "Producto no encontrado."
	}
	return "Error inesperado al guardar."
}
