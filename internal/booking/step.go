package booking

type Step int

const (
	StepTypeAndLocation Step = iota
	StepBranch
	StepTime
	StepContact
	StepReview
	StepDone
)

var stepNames = [...]string{
	StepTypeAndLocation: "type_and_location",
	StepBranch:          "branch",
	StepTime:            "time",
	StepContact:         "contact",
	StepReview:          "review",
	StepDone:            "done",
}

var stepTitles = [...]string{
	StepTypeAndLocation: "Appointment Details",
	StepBranch:          "Select Branch",
	StepTime:            "Choose Time",
	StepContact:         "Your Information",
	StepReview:          "Review",
	StepDone:            "Confirmed",
}

func (s Step) String() string {
	if s < StepTypeAndLocation || s > StepDone {
		return "unknown"
	}
	return stepNames[s]
}

// Title is the user-facing heading of the step.
func (s Step) Title() string {
	if s < StepTypeAndLocation || s > StepDone {
		return ""
	}
	return stepTitles[s]
}

// forward and backward are the wizard's transition table. Steps missing from a
// table have no edge in that direction.
var (
	forward = map[Step]Step{
		StepTypeAndLocation: StepBranch,
		StepBranch:          StepTime,
		StepTime:            StepContact,
		StepContact:         StepReview,
		StepReview:          StepDone,
	}
	backward = map[Step]Step{
		StepBranch:  StepTypeAndLocation,
		StepTime:    StepBranch,
		StepContact: StepTime,
		StepReview:  StepContact,
	}
)

type StepState string

const (
	StepCompleted StepState = "completed"
	StepActive    StepState = "active"
	StepPending   StepState = "pending"
)

type StepStatus struct {
	Step  Step      `json:"-"`
	Name  string    `json:"name"`
	Title string    `json:"title"`
	State StepState `json:"state"`
}

// Progress describes the five input steps relative to current, for a
// progress indicator. Once the booking is done every step is completed.
func Progress(current Step) []StepStatus {
	out := make([]StepStatus, 0, StepDone)
	for s := StepTypeAndLocation; s < StepDone; s++ {
		state := StepPending
		switch {
		case s < current:
			state = StepCompleted
		case s == current:
			state = StepActive
		}
		out = append(out, StepStatus{Step: s, Name: s.String(), Title: s.Title(), State: state})
	}
	return out
}
