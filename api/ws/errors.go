package ws

import "errors"

var (
	// ErrWorkerGone is returned when assigning to a worker whose connection closed.
	ErrWorkerGone = errors.New("ws: worker disconnected")

	// ErrUnknownWorker is returned when assigning to a worker that never registered.
	ErrUnknownWorker = errors.New("ws: unknown worker")

	// ErrHubClosed is returned by Receive after Close.
	ErrHubClosed = errors.New("ws: hub closed")

	// ErrRejected is returned by Dial when the master refuses the registration.
	ErrRejected = errors.New("ws: registration rejected")

	// ErrUnexpectedMessage is returned for a frame of the wrong type.
	ErrUnexpectedMessage = errors.New("ws: unexpected message")
)
