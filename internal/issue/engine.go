// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"net/http"

	"github.com/dockerino/dockerino/internal/engineapi"
)

// IdFor maps an engine failure to its catalog entry. It returns 0 for errors
// outside the engine taxonomy and for unclassified kinds.
func IdFor(err error) Id {
	kind, ok := engineapi.KindOf(err)
	if !ok {
		return 0
	}

	switch kind {
	case engineapi.KindConnection:
		return EngineUnreachableId
	case engineapi.KindTransport:
		return EngineTransportFailedId
	case engineapi.KindBodyDecode, engineapi.KindDeserialization:
		return ResponseInvalidId
	case engineapi.KindSerialization, engineapi.KindMalformedRequest:
		return BadRequestId
	case engineapi.KindAPI:
		var apiErr *engineapi.APIError
		if !errors.As(err, &apiErr) {
			return 0
		}
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			return ImageNotFoundId
		case http.StatusConflict:
			return ImageConflictId
		case http.StatusInternalServerError:
			return EngineInternalErrorId
		default:
			return BadRequestId
		}
	default:
		return 0
	}
}

// FromEngineError wraps err as an ActionableError for operation on resource,
// with suggestions picked from the engine error kind. Nil stays nil and an
// existing ActionableError is returned unchanged.
func FromEngineError(err error, operation, resource string) error {
	if err == nil {
		return nil
	}
	var ae *ActionableError
	if errors.As(err, &ae) {
		return ae
	}

	id := IdFor(err)
	return NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithSuggestions(suggestionsFor(id)...).
		WithIssue(id).
		Wrap(err).
		BuildError()
}

func suggestionsFor(id Id) []string {
	switch id {
	case EngineUnreachableId:
		return []string{
			"Check that the engine daemon is running",
			"Pass --socket or set socket_path in the config file",
			"Make sure your user can open the socket",
		}
	case EngineTransportFailedId:
		return []string{
			"Retry the command",
			"Check the engine daemon logs",
		}
	case ImageNotFoundId:
		return []string{
			"Run 'dockerino images ls --all' to see local images",
			"Check the image name and tag",
		}
	case ImageConflictId:
		return []string{
			"Remove the containers using the image first",
			"Use --force to remove it anyway",
		}
	case EngineInternalErrorId:
		return []string{"Check the engine daemon logs"}
	case BadRequestId:
		return []string{"Check filter keys, build options and image references"}
	case ResponseInvalidId:
		return []string{"Set api_version in the config file to a version the engine supports"}
	default:
		return nil
	}
}
