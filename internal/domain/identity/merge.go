package identity

// MergeBooking applies b onto existing in place and returns it.
//
// Name, age, gender and email always take the booking's value. The remaining
// fields keep the stored value unless the booking supplies one: a non-empty
// string, or a non-nil list or contact. Codes and phone are never changed.
func MergeBooking(existing *Patient, b BookingData) *Patient {
	existing.Name = b.Name
	existing.Age = b.Age
	existing.Gender = b.Gender
	existing.Email = b.Email

	if b.Addresses != nil {
		existing.Addresses = b.Addresses
	}
	if nonEmpty(b.BloodGroup) {
		existing.BloodGroup = b.BloodGroup
	}
	if b.Allergies != nil {
		existing.Allergies = b.Allergies
	}
	if b.EmergencyContact != nil {
		existing.EmergencyContact = b.EmergencyContact
	}
	if nonEmpty(b.ExternalHealthID) {
		existing.ExternalHealthID = b.ExternalHealthID
	}
	if nonEmpty(b.Notes) {
		existing.Notes = b.Notes
	}
	return existing
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
