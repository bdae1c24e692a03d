package booking

// Status enumerates the reservation lifecycle states. The values are the
// canonical forms stored in persistence; legacy spellings are normalized at
// the storage boundary.
type Status string

const (
	// StatusActive is the initial state of every reservation.
	StatusActive Status = "activa"
	// StatusCancelled marks a reservation cancelled before its date.
	StatusCancelled Status = "cancelada"
	// StatusNoShow marks a past reservation with no confirmed attendance.
	StatusNoShow Status = "sin_asistencia"
	// StatusCompleted marks a past reservation with at least one attendee.
	StatusCompleted Status = "finalizada"
)

// ParseStatus maps stored values, including aliases written by older
// backends, to the canonical status.
func ParseStatus(value string) (Status, bool) {
	switch value {
	case string(StatusActive), "activo":
		return StatusActive, true
	case string(StatusCancelled), "cancelado":
		return StatusCancelled, true
	case string(StatusNoShow):
		return StatusNoShow, true
	case string(StatusCompleted), "finalizado":
		return StatusCompleted, true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further transition is defined from s.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusNoShow || s == StatusCompleted
}

// CanTransition reports whether the lifecycle admits moving from one status
// to another. Only the active state has outgoing edges.
func CanTransition(from, to Status) bool {
	if from != StatusActive {
		return false
	}
	switch to {
	case StatusCancelled, StatusNoShow, StatusCompleted:
		return true
	default:
		return false
	}
}

// Attendance is the per-participant mark recorded on a reservation.
type Attendance string

const (
	// AttendanceUnset means no mark has been recorded yet.
	AttendanceUnset Attendance = ""
	// AttendancePresent confirms the participant attended.
	AttendancePresent Attendance = "present"
	// AttendanceAbsent confirms the participant did not attend.
	AttendanceAbsent Attendance = "absent"
)
