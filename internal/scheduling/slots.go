package scheduling

// GenerateSlots emits back-to-back slots of durationMinutes starting at
// windowStart. A slot is only emitted if it fits entirely inside the
// window, so a 09:00-09:59 window yields nothing for a 60 minute service.
// Pure and deterministic; callers reject non-positive durations before
// calling.
func GenerateSlots(windowStart, windowEnd TimeOfDay, durationMinutes int) []Slot {
	var slots []Slot
	for cursor := windowStart; cursor.Add(durationMinutes) <= windowEnd; cursor = cursor.Add(durationMinutes) {
		slots = append(slots, Slot{Start: cursor, End: cursor.Add(durationMinutes)})
	}
	return slots
}

// Overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && aEnd > bStart
}

// FilterBooked drops every candidate slot that overlaps a booked
// appointment interval.
func FilterBooked(candidates []Slot, booked []Appointment) []Slot {
	free := make([]Slot, 0, len(candidates))
	for _, slot := range candidates {
		taken := false
		for _, appt := range booked {
			if Overlaps(slot.Start, slot.End, appt.StartTime, appt.EndTime) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, slot)
		}
	}
	return free
}
