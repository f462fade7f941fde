package grpccas

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/stratumlabs/strata/storage"
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.InvalidArgument:
		// Server uses InvalidArgument for a malformed hash string.
		return storage.ErrHashMismatch
	case codes.DataLoss:
		// Server uses DataLoss when bytes do not match the requested hash.
		return storage.ErrHashMismatch
	default:
		// Best-effort: if the server sent a known storage error message, preserve it.
		switch st.Message() {
		case storage.ErrNotFound.Error():
			return storage.ErrNotFound
		case storage.ErrHashMismatch.Error():
			return storage.ErrHashMismatch
		default:
			return err
		}
	}
}
