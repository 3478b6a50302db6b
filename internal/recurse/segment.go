package recurse

// TrackStarts flags the first sample of every track. Element 0 is always true;
// element i is true when labels[i] differs from labels[i-1].
func TrackStarts[L comparable](labels []L) []bool {
	starts := make([]bool, len(labels))
	for i := range labels {
		starts[i] = i == 0 || labels[i] != labels[i-1]
	}
	return starts
}

// TrackIDs maps arbitrary labels to dense integer ids, assigned in first-seen
// order starting at 1. A label that reappears later keeps its original id.
func TrackIDs[L comparable](labels []L) []int {
	ids := make([]int, len(labels))
	mapping := make(map[L]int)
	next := 1

	for i, label := range labels {
		id, ok := mapping[label]
		if !ok {
			id = next
			mapping[label] = id
			next++
		}
		ids[i] = id
	}

	return ids
}

func trackLabels(samples []Sample) []string {
	labels := make([]string, len(samples))
	for i, s := range samples {
		labels[i] = s.Track
	}
	return labels
}
