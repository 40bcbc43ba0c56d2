package appointment

// IsBookable is the verification gate: only verified users holding the
// DOCTOR role expose slots or accept bookings.
func IsBookable(d *Doctor) bool {
	return d != nil && d.Role == RoleDoctor && d.IsDoctorVerified
}

func offers(specs []Specialization, apptType string) bool {
	for _, s := range specs {
		if s.Type == apptType {
			return true
		}
	}
	return false
}
