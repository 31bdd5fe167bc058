package httperr

import "errors"

type BadRequestError struct {
	msg string
}

func (e *BadRequestError) Error() string { return e.msg }

func NewBadRequest(msg string) error { return &BadRequestError{msg: msg} }

func IsBadRequest(err error) bool {
	_, ok := errors.AsType[*BadRequestError](err)
	return ok
}

// UpstreamError marks a failure of an external collaborator (rights
// provider, raw-data source). Per-object processing treats it as skippable.
type UpstreamError struct {
	msg string
}

func (e *UpstreamError) Error() string { return e.msg }

func NewUpstream(msg string) error { return &UpstreamError{msg: msg} }

func IsUpstream(err error) bool {
	_, ok := errors.AsType[*UpstreamError](err)
	return ok
}

type NotFoundError struct {
	msg string
}

func (e *NotFoundError) Error() string { return e.msg }

func NewNotFound(msg string) error { return &NotFoundError{msg: msg} }

func IsNotFound(err error) bool {
	_, ok := errors.AsType[*NotFoundError](err)
	return ok
}
