package types

// PhoneChanges is the set of writes that turns a person's stored phones into
// the wanted ones.
type PhoneChanges struct {
	Delete []int64  // IDs of stored phones no longer wanted.
	Update []*Phone // Wanted phones whose stored number differs.
	Insert []*Phone // Wanted phones with no stored counterpart.
}

// PlanPhoneChanges compares the phones currently stored for a person with
// the phones the caller wants. A wanted phone whose ID is not among the
// stored ones (zero, deleted meanwhile, or owned by someone else) is
// inserted as a new phone.
func PlanPhoneChanges(stored map[int64]string, wanted []*Phone) PhoneChanges {
	var ch PhoneChanges
	kept := make(map[int64]bool, len(wanted))
	for _, ph := range wanted {
		if ph == nil {
			continue
		}
		number, ok := stored[ph.ID]
		if ph.ID == 0 || !ok || kept[ph.ID] {
			ch.Insert = append(ch.Insert, ph)
			continue
		}
		kept[ph.ID] = true
		if number != ph.Number {
			ch.Update = append(ch.Update, ph)
		}
	}
	for id := range stored {
		if !kept[id] {
			ch.Delete = append(ch.Delete, id)
		}
	}
	return ch
}
