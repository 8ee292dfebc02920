package booking

// Draft holds the selections of one in-progress booking. Setters never
// validate; validity is checked per step with IsValidForStep so that partial
// input survives incremental edits.
type Draft struct {
	AppointmentType AppointmentType `json:"appointment_type"`
	PostalCode      string          `json:"postal_code"`
	Branch          *Branch         `json:"branch,omitempty"`
	TimeSlot        *TimeSlot       `json:"time_slot,omitempty"`
	Contact         ContactInfo     `json:"contact"`
}

func (d *Draft) SetAppointmentType(t AppointmentType) {
	d.AppointmentType = t
}

func (d *Draft) SetPostalCode(code string) {
	d.PostalCode = code
}

// SetBranch stores a copy so the directory's value is never shared.
func (d *Draft) SetBranch(b Branch) {
	d.Branch = &b
}

func (d *Draft) SetTimeSlot(s TimeSlot) {
	d.TimeSlot = &s
}

func (d *Draft) SetContactInfo(c ContactInfo) {
	d.Contact = c
}

func (d *Draft) IsValidForStep(step Step) bool {
	switch step {
	case StepTypeAndLocation:
		return d.AppointmentType.Valid() && ValidPostalCode(d.PostalCode)
	case StepBranch:
		return d.Branch != nil
	case StepTime:
		return d.TimeSlot != nil && !IsHeld(*d.TimeSlot)
	case StepContact:
		return d.Contact.Valid()
	case StepReview, StepDone:
		_, ok := d.firstInvalidStep()
		return !ok
	default:
		return false
	}
}

// firstInvalidStep returns the earliest input step the draft does not satisfy.
func (d *Draft) firstInvalidStep() (Step, bool) {
	for _, s := range []Step{StepTypeAndLocation, StepBranch, StepTime, StepContact} {
		if !d.IsValidForStep(s) {
			return s, true
		}
	}
	return 0, false
}

// Reset clears every field. Records issued earlier hold their own copies and
// are unaffected.
func (d *Draft) Reset() {
	*d = Draft{}
}

// Clone returns a deep copy.
func (d Draft) Clone() Draft {
	out := d
	if d.Branch != nil {
		b := *d.Branch
		out.Branch = &b
	}
	if d.TimeSlot != nil {
		s := *d.TimeSlot
		out.TimeSlot = &s
	}
	return out
}
