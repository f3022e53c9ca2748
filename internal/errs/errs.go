package errs

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type Kind uint8

const (
	KindOther           Kind = iota // Unclassified error
	KindIO                          // Tool could not be launched or waited on
	KindDecode                      // Tool output was not valid UTF-8 text
	KindRejected                    // Tool wrote diagnostic text to stderr
	KindActionFailed                // Tool ran cleanly but the expected outcome is missing
	KindProfileCreation             // One step of the hotspot profile setup failed
	KindUnsupported                 // Operation has no backing command
	KindState                       // Hotspot lifecycle guard
	KindNetwork                     // Connectivity issues
	KindInvalid                     // Validation errors (User input)
	KindUnauthorized                // Auth token missing/invalid
	KindNotFound                    // Profile or route not found
	KindSystem                      // OS level failures
)

var kindNames = map[Kind]string{
	KindOther:           "other",
	KindIO:              "io",
	KindDecode:          "decode",
	KindRejected:        "rejected",
	KindActionFailed:    "action_failed",
	KindProfileCreation: "profile_creation",
	KindUnsupported:     "unsupported",
	KindState:           "state",
	KindNetwork:         "network",
	KindInvalid:         "invalid",
	KindUnauthorized:    "unauthorized",
	KindNotFound:        "not_found",
	KindSystem:          "system",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

type Op string

type Error struct {
	Op      Op     // Where did it happen?
	Kind    Kind   // What category is it?
	Err     error  // The underlying error (the root cause)
	Message string // Raw tool text or a human-readable message
}

func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch arg := arg.(type) {
		case Op:
			e.Op = arg
		case Kind:
			e.Kind = arg
		case *Error:
			copy := *arg
			e.Err = &copy
		case error:
			e.Err = arg
		case string:
			e.Message = arg
		}
	}
	return e
}

func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteString(string(e.Op))
	}

	if e.Message != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Message)
	}

	if e.Err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the outermost non-Other kind in the chain.
func KindOf(err error) Kind {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return KindOther
		}
		if e.Kind != KindOther {
			return e.Kind
		}
		err = e.Err
	}
	return KindOther
}

// Is reports whether any error in the chain carries kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// HTTPResponse writes err as a JSON body with a status derived from its kind.
func HTTPResponse(w http.ResponseWriter, log *zap.Logger, err error) {
	if log != nil {
		log.Warn("api error", zap.Error(err))
	}

	code := http.StatusInternalServerError
	msg := "Internal Server Error"

	var e *Error
	if errors.As(err, &e) {
		switch KindOf(err) {
		case KindInvalid:
			code = http.StatusBadRequest
		case KindUnauthorized:
			code = http.StatusUnauthorized
		case KindNotFound:
			code = http.StatusNotFound
		case KindState:
			code = http.StatusConflict
		case KindUnsupported:
			code = http.StatusNotImplemented
		case KindRejected, KindActionFailed, KindProfileCreation, KindNetwork:
			code = http.StatusBadGateway
		}

		if e.Message != "" {
			msg = e.Message
		} else if code != http.StatusInternalServerError && e.Err != nil {
			msg = e.Err.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": msg,
	})
}
