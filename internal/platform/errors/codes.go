// Package errors provides coded domain errors for the snippets admin.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Routing errors
	CodeUnknownView       Code = "UNKNOWN_VIEW"
	CodeRouteArgs         Code = "ROUTE_ARGUMENTS_INVALID"
	CodeViewSetConflict   Code = "VIEWSET_CONFLICT"
	CodeViewSetIncomplete Code = "VIEWSET_OVERRIDE_INCOMPLETE"

	// Filter errors
	CodeFilterDuplicateParam Code = "FILTER_DUPLICATE_PARAM"
	CodeFilterUnknownField   Code = "FILTER_UNKNOWN_FIELD"
	CodeFilterInvalidValue   Code = "FILTER_INVALID_VALUE"

	// Listing errors
	CodeOrderingInvalid Code = "ORDERING_INVALID"
	CodeExportFormat    Code = "EXPORT_FORMAT_UNSUPPORTED"

	// Model and form errors
	CodeModelInvalid   Code = "MODEL_INVALID"
	CodeFormInvalid    Code = "FORM_INVALID"
	CodeNotPublishable Code = "NOT_PUBLISHABLE"
	CodeNotScheduled   Code = "REVISION_NOT_SCHEDULED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeRouteArgs,
		CodeFilterInvalidValue,
		CodeOrderingInvalid,
		CodeExportFormat,
		CodeFormInvalid:
		return http.StatusBadRequest

	case CodeNotPublishable,
		CodeNotScheduled:
		return http.StatusConflict

	case CodeNotFound,
		CodeUnknownView:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
