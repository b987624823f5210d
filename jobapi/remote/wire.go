package remote

// The service name and method names a Client dials and a Server registers
// under. Kept as a documented constant pair rather than protoc-generated
// descriptors; api/proto/judgeservice.proto mirrors this shape for readers
// who expect a .proto alongside an RPC surface.
const (
	serviceName = "traojudge.v1.JudgeWorker"

	methodReserveExecution  = "ReserveExecution"
	methodReleaseReservation = "ReleaseReservation"
	methodPlaceFile         = "PlaceFile"
	methodCloneOutcome      = "CloneOutcome"
	methodReleaseOutcome    = "ReleaseOutcome"
	methodExecute           = "Execute"
)

func fullMethod(name string) string {
	return "/" + serviceName + "/" + name
}

// ReserveExecutionRequest asks the worker for count execution slots.
type ReserveExecutionRequest struct {
	Count int `json:"count"`
}

// ReserveExecutionResponse carries one opaque reservation id per granted
// slot. The worker keeps the real jobapi.ReservationToken server-side,
// keyed by this id.
type ReserveExecutionResponse struct {
	ReservationIds []string `json:"reservation_ids"`
}

// ReleaseReservationRequest releases a reservation without executing it.
type ReleaseReservationRequest struct {
	ReservationId string `json:"reservation_id"`
}

// ReleaseReservationResponse is empty; its presence keeps every RPC in this
// service following the same request/response shape.
type ReleaseReservationResponse struct{}

// PlaceFileRequest mirrors jobapi.FileConf over the wire.
type PlaceFileRequest struct {
	Kind       string `json:"kind"` // "empty_directory" | "text" | "runtime_text"
	ResourceId string `json:"resource_id,omitempty"`
	Content    string `json:"content,omitempty"`
}

// PlaceFileResponse carries the opaque outcome id for the placed file.
type PlaceFileResponse struct {
	OutcomeId string `json:"outcome_id"`
}

// CloneOutcomeRequest increments an outcome's server-side refcount.
type CloneOutcomeRequest struct {
	OutcomeId string `json:"outcome_id"`
}

type CloneOutcomeResponse struct {
	OutcomeId string `json:"outcome_id"`
}

// ReleaseOutcomeRequest decrements an outcome's server-side refcount,
// freeing the underlying artifact once it reaches zero.
type ReleaseOutcomeRequest struct {
	OutcomeId string `json:"outcome_id"`
}

type ReleaseOutcomeResponse struct{}

// DependencyWire mirrors jobapi.Dependency over the wire: Outcome is
// replaced by the outcome id the worker already holds a token for.
type DependencyWire struct {
	Envvar    string `json:"envvar"`
	OutcomeId string `json:"outcome_id"`
}

// ExecuteRequest consumes a reservation by id and names the dependencies
// to stage before running the script.
type ExecuteRequest struct {
	ReservationId string            `json:"reservation_id"`
	Env           map[string]string `json:"env,omitempty"`
	Dependencies  []DependencyWire  `json:"dependencies"`
}

// ExecuteResponse carries the captured process output plus the opaque
// outcome id for the execution's own scratch output directory.
type ExecuteResponse struct {
	OutcomeId  string `json:"outcome_id"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitStatus int    `json:"exit_status"`
}
