package addons

// Reconcile merges a discovery pass into the previous activation order.
//
// Entries whose package is no longer discovered are dropped and returned
// separately. Surviving entries keep their position, order, enabled flag and
// addon id. Each newly discovered name is appended disabled, in discovery
// order, with an order one past the current maximum and the lowest addon id
// that is neither in use nor reserved. The result depends only on the
// inputs, so reconciling the output again with the same names returns it
// unchanged.
func Reconcile(prev []Entry, discovered []string, reserved ...string) (next []Entry, dropped []Entry) {
	present := make(map[string]struct{}, len(discovered))
	for _, name := range discovered {
		present[name] = struct{}{}
	}

	known := make(map[string]struct{}, len(prev))
	next = make([]Entry, 0, len(discovered))
	maxOrder := -1
	for _, e := range prev {
		if _, ok := present[e.Name]; !ok {
			dropped = append(dropped, e)
			continue
		}
		if _, dup := known[e.Name]; dup {
			dropped = append(dropped, e)
			continue
		}
		known[e.Name] = struct{}{}
		next = append(next, e)
		if e.Order > maxOrder {
			maxOrder = e.Order
		}
	}

	for _, name := range discovered {
		if _, ok := known[name]; ok {
			continue
		}
		known[name] = struct{}{}

		maxOrder++
		next = append(next, Entry{
			Name:    name,
			Order:   maxOrder,
			Enabled: false,
			AddonID: NextAddonID(next, reserved...),
		})
	}

	return next, dropped
}

// normalizeIDs gives every entry a unique addon id. Entries without an id,
// or repeating one already taken earlier in the list, get the lowest free id.
// It reports whether anything changed.
func normalizeIDs(entries []Entry) bool {
	changed := false
	seen := make(map[string]struct{}, len(entries))

	for i := range entries {
		id := entries[i].AddonID
		if _, dup := seen[id]; id == "" || dup {
			entries[i].AddonID = ""
			entries[i].AddonID = NextAddonID(entries)
			changed = true
		}
		seen[entries[i].AddonID] = struct{}{}
	}

	return changed
}
